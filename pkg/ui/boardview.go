package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/strandview/strand/pkg/board"
	"github.com/strandview/strand/pkg/model"
)

func bucketTitle(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return "Open"
	case model.StatusInProgress:
		return "In Progress"
	case model.StatusBlocked:
		return "Blocked"
	case model.StatusClosed:
		return "Closed"
	}
	return string(s)
}

// renderBoard draws the four status columns side by side. Each column is
// exactly contentHeight lines: header, divider, pageSize card rows, and a
// page indicator, so the join never ragged-edges.
func (m *Model) renderBoard(width int) string {
	t := m.theme
	colWidth := width/board.NumBuckets - 1
	if colWidth < 16 {
		colWidth = 16
	}
	focused := m.b.Focused()
	filtered := !m.b.Filter().IsZero()

	cols := make([]string, 0, board.NumBuckets)
	for i, bucket := range board.Buckets() {
		view := m.b.BucketView(bucket)
		var lines []string

		count := fmt.Sprintf("%d", len(view.Items))
		if filtered && m.ds != nil {
			count = fmt.Sprintf("%d/%d", len(view.Items), len(m.ds.Bucket(bucket)))
		}
		title := fmt.Sprintf("%s %s (%s)", StatusGlyph(bucket), bucketTitle(bucket), count)
		if i == focused {
			spec := m.b.SortSpec(bucket)
			title += " " + spec.Order.Indicator()
			lines = append(lines, t.PrimaryBold.Render(truncateCells(title, colWidth, "…")))
		} else {
			lines = append(lines, t.Header.Render(truncateCells(title, colWidth, "…")))
		}
		lines = append(lines, RenderDivider(t.Renderer, colWidth))

		pageSize := m.b.PageSize()
		end := view.ScrollOffset + pageSize
		if end > len(view.Items) {
			end = len(view.Items)
		}
		for _, issue := range view.Items[view.ScrollOffset:end] {
			selected := i == focused && issue.ID == view.SelectedID
			lines = append(lines, m.renderCard(issue, colWidth, selected))
		}
		for len(lines) < pageSize+2 {
			lines = append(lines, "")
		}

		if view.TotalPages > 1 {
			lines = append(lines, t.MutedText.Render(
				fmt.Sprintf("%d/%d", view.Page, view.TotalPages)))
		} else {
			lines = append(lines, "")
		}

		col := lipgloss.JoinVertical(lipgloss.Left, lines...)
		cols = append(cols, t.Renderer.NewStyle().Width(colWidth).MarginRight(1).Render(col))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// renderCard draws one issue as a single row. The selected row carries the
// thick left border from the Selected style; other rows get two spaces so
// columns stay aligned.
func (m *Model) renderCard(issue *model.Issue, width int, selected bool) string {
	t := m.theme

	glyph, glyphColor := t.TypeGlyph(issue.IssueType)
	prio := RenderPriorityBadge(t.Renderer, issue.Priority)
	id := issue.ID

	// Two cells of the width go to the selection gutter.
	titleWidth := width - 2 - 3 - 2 - runewidth.StringWidth(id) - 1
	if titleWidth < 4 {
		titleWidth = 4
	}
	title := truncateCells(issue.Title, titleWidth, "…")

	row := fmt.Sprintf("%s %s %s %s",
		prio,
		t.Renderer.NewStyle().Foreground(glyphColor).Render(glyph),
		t.MutedText.Render(id),
		t.Base.Render(title),
	)

	if selected {
		return t.Selected.Render(row)
	}
	return "  " + row
}
