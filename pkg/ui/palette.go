package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/query"
)

// paletteState is the fuzzy jump palette: type a few characters of an id
// or title, pick a row, and the board selection moves there.
type paletteState struct {
	input    textinput.Model
	ids      []string
	haystack []string
	matches  []int
	cursor   int
	maxRows  int
	width    int
}

func newPaletteState() paletteState {
	in := textinput.New()
	in.Prompt = "» "
	in.Placeholder = "jump to issue"
	in.CharLimit = 80
	return paletteState{input: in, maxRows: 10, width: 48}
}

func (p *paletteState) setSize(width, height int) {
	rows := height/2 - 4
	if rows < 5 {
		rows = 5
	}
	if rows > 15 {
		rows = 15
	}
	p.maxRows = rows

	w := width / 2
	if w < 40 {
		w = 40
	}
	if w > 70 {
		w = 70
	}
	p.width = w
	p.input.Width = w - 4
}

// open rebuilds the haystack from the current dataset and resets the query.
func (p *paletteState) open(ds *dataset.Dataset) {
	p.ids = p.ids[:0]
	p.haystack = p.haystack[:0]
	if ds != nil {
		issues := make([]string, 0, ds.Len())
		byID := make(map[string]string, ds.Len())
		for _, issue := range ds.Issues {
			issues = append(issues, issue.ID)
			byID[issue.ID] = issue.Title
		}
		sort.Strings(issues)
		for _, id := range issues {
			p.ids = append(p.ids, id)
			p.haystack = append(p.haystack, id+" "+byID[id])
		}
	}
	p.input.SetValue("")
	p.input.Focus()
	p.requery()
}

// requery recomputes the match set for the current input. An empty query
// matches everything; the cursor always resets to the top hit.
func (p *paletteState) requery() {
	q := strings.TrimSpace(p.input.Value())
	p.matches = p.matches[:0]
	if q == "" {
		for i := range p.ids {
			p.matches = append(p.matches, i)
		}
	} else {
		for _, match := range fuzzy.Find(q, p.haystack) {
			p.matches = append(p.matches, match.Index)
		}
	}
	p.cursor = 0
}

func (p *paletteState) move(delta int) {
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(p.matches) {
		p.cursor = len(p.matches) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// chosen returns the id under the cursor.
func (p *paletteState) chosen() (string, bool) {
	if len(p.matches) == 0 || p.cursor >= len(p.matches) {
		return "", false
	}
	return p.ids[p.matches[p.cursor]], true
}

func (p *paletteState) render(t Theme) string {
	lines := []string{p.input.View(), ""}

	// Window the rows around the cursor.
	start := 0
	if p.cursor >= p.maxRows {
		start = p.cursor - p.maxRows + 1
	}
	end := start + p.maxRows
	if end > len(p.matches) {
		end = len(p.matches)
	}

	if len(p.matches) == 0 {
		lines = append(lines, t.MutedText.Render("no matches"))
	}
	for i := start; i < end; i++ {
		row := truncate(p.haystack[p.matches[i]], p.width-4)
		if i == p.cursor {
			lines = append(lines, t.Selected.Render(row))
		} else {
			lines = append(lines, t.Base.Render("  "+row))
		}
	}

	lines = append(lines, "", t.MutedText.Render(
		fmt.Sprintf("%d of %s", len(p.matches), pluralize(len(p.ids), "issue"))))
	return strings.Join(lines, "\n")
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = OverlayNone
		m.palette.input.Blur()
		return m, nil
	case "enter":
		id, ok := m.palette.chosen()
		m.overlay = OverlayNone
		m.palette.input.Blur()
		if !ok {
			return m, nil
		}
		m.activeView = ViewBoard
		m.detailFor = ""
		if !m.b.SelectByID(id) {
			// The target may be hidden by the active filter; drop it and retry.
			if !m.b.Filter().IsZero() {
				m.b.SetFilter(query.Filter{})
				m.filterInput.SetValue("")
				if m.b.SelectByID(id) {
					return m, m.flash("Filter cleared to reach "+id, false)
				}
			}
			return m, m.flash(id+" is not on the board", true)
		}
		if m.detailOpen {
			m.ensureDetail()
		}
		return m, nil
	case "down", "ctrl+n":
		m.palette.move(1)
		return m, nil
	case "up", "ctrl+p":
		m.palette.move(-1)
		return m, nil
	}

	var cmd tea.Cmd
	m.palette.input, cmd = m.palette.input.Update(msg)
	m.palette.requery()
	return m, cmd
}
