package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/graph"
	"github.com/strandview/strand/pkg/model"
)

// levelRow is one issue in the execution-levels view, tagged with its
// dependency depth. first marks the top row of each level so the renderer
// can show the wave number once.
type levelRow struct {
	issue *model.Issue
	level int
	first bool
}

// levelsState lists issues grouped by dependency depth: everything at
// level 0 is unblocked now, level 1 is one completed dependency away, and
// rows within a level are safe to work in parallel.
type levelsState struct {
	rows   []levelRow
	cursor int
}

func (s *levelsState) rebuild(ds *dataset.Dataset) {
	var keep string
	if issue := s.selected(); issue != nil {
		keep = issue.ID
	}

	s.rows = s.rows[:0]
	for level, issues := range graph.BuildLevels(ds) {
		for i, issue := range issues {
			s.rows = append(s.rows, levelRow{issue: issue, level: level, first: i == 0})
		}
	}

	if keep != "" {
		for i, row := range s.rows {
			if row.issue.ID == keep {
				s.cursor = i
				return
			}
		}
	}
	s.clampCursor()
}

func (s *levelsState) clampCursor() {
	if s.cursor >= len(s.rows) {
		s.cursor = len(s.rows) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *levelsState) selected() *model.Issue {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return nil
	}
	return s.rows[s.cursor].issue
}

func (s *levelsState) move(delta int) {
	s.cursor += delta
	s.clampCursor()
}

func (s *levelsState) jumpFirst() { s.cursor = 0 }

func (s *levelsState) jumpLast() {
	s.cursor = len(s.rows) - 1
	s.clampCursor()
}

// renderLevels draws the parallel work waves with a criticality gauge per
// row. Scores are scaled against the hottest issue so the widest bar always
// marks the most blocking one.
func (m *Model) renderLevels(width int) string {
	t := m.theme
	s := &m.levels
	height := m.contentHeight()

	if len(s.rows) == 0 {
		return t.MutedText.Render("  no issues")
	}

	stats := m.ensureStats()
	maxCrit := 0.0
	for _, score := range stats.Criticality {
		if score > maxCrit {
			maxCrit = score
		}
	}

	var header string
	if stats.HasCycles() {
		header = t.ErrorText.Render(fmt.Sprintf("  %s detected, levels are approximate",
			pluralize(len(stats.Cycles), "dependency cycle")))
		height--
	}

	start := 0
	if s.cursor >= height {
		start = s.cursor - height + 1
	}
	end := start + height
	if end > len(s.rows) {
		end = len(s.rows)
	}

	lines := make([]string, 0, height+1)
	if header != "" {
		lines = append(lines, header)
	}
	for i := start; i < end; i++ {
		row := s.rows[i]
		crit := 0.0
		if maxCrit > 0 {
			crit = stats.CriticalityOf(row.issue.ID) / maxCrit
		}
		lines = append(lines, m.renderLevelRow(row, width, crit, i == s.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderLevelRow(row levelRow, width int, crit float64, selected bool) string {
	t := m.theme
	issue := row.issue

	wave := "    "
	if row.first {
		wave = fmt.Sprintf("L%-3d", row.level)
	}

	status := t.Renderer.NewStyle().
		Foreground(t.StatusColor(issue.EffectiveStatus())).
		Render(StatusGlyph(issue.EffectiveStatus()))

	const barWidth = 8
	bar := RenderMiniBar(t.Renderer, t, crit, barWidth)
	pct := fmt.Sprintf("%3.0f", crit*100)

	used := 2 + 4 + 3 + 2 + runewidth.StringWidth(issue.ID) + 1 + barWidth + 1 + len(pct) + 2
	titleWidth := width - used
	if titleWidth < 4 {
		titleWidth = 4
	}
	title := padCells(truncateCells(issue.Title, titleWidth, "…"), titleWidth)

	line := t.SecondaryText.Render(wave) + " │ " + status + " " +
		t.MutedText.Render(issue.ID) + " " + t.Base.Render(title) + " " +
		bar + " " + t.MutedText.Render(pct)

	if selected {
		return t.Selected.Render(line)
	}
	return "  " + line
}
