package ui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strandview/strand/pkg/board"
	"github.com/strandview/strand/pkg/model"
	"github.com/strandview/strand/pkg/query"
)

func (m Model) handleHelpKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q", "?", "enter":
		m.overlay = OverlayNone
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Abandon the draft and restore whatever was active before.
		m.b.SetFilter(m.savedFilter)
		m.filterInput.SetValue(filterText(m.savedFilter))
		m.filterInput.Blur()
		m.overlay = OverlayNone
		return m, nil
	case "enter":
		m.filterInput.Blur()
		m.overlay = OverlayNone
		f := m.b.Filter()
		if f.IsZero() {
			return m, nil
		}
		return m, m.flash("Filter: "+filterText(f), false)
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	// Narrow live on every keystroke so the board shows what would match.
	m.b.SetFilter(parseFilter(m.filterInput.Value()))
	return m, cmd
}

func (m Model) handleSortKey(key string) (tea.Model, tea.Cmd) {
	fields := query.Fields()
	switch key {
	case "esc", "q", "s":
		m.overlay = OverlayNone
	case "j", "down":
		if m.sortCursor < len(fields)-1 {
			m.sortCursor++
		}
	case "k", "up":
		if m.sortCursor > 0 {
			m.sortCursor--
		}
	case "enter":
		bucket := m.b.FocusedBucket()
		cur := m.b.SortSpec(bucket)
		field := fields[m.sortCursor]
		spec := query.SortSpec{Field: field, Order: field.DefaultOrder()}
		if cur.Field == field {
			spec.Order = cur.Order.Toggle()
		}
		m.b.Resort(bucket, spec)
		m.overlay = OverlayNone
		return m, m.flash(fmt.Sprintf("%s sorted by %s %s",
			bucketTitle(bucket), field.Label(), spec.Order.Indicator()), false)
	}
	return m, nil
}

func (m Model) handleExportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.exportInput.Blur()
		m.overlay = OverlayNone
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.exportInput.Value())
		m.exportInput.Blur()
		m.overlay = OverlayNone
		if path == "" {
			return m, m.flash("Export needs a path", true)
		}
		if m.ds == nil || m.ds.IsEmpty() {
			return m, m.flash("Nothing to export", true)
		}
		title := filepath.Base(m.repoPath)
		return m, tea.Batch(
			m.flash("Exporting "+path+"…", false),
			exportSnapshotCmd(m.ds, path, title),
		)
	}

	var cmd tea.Cmd
	m.exportInput, cmd = m.exportInput.Update(msg)
	return m, cmd
}

// parseFilter turns the filter line into a structured filter. Prefixed
// tokens bind fields, everything else is fuzzy text. Unparseable values
// fall back to text rather than being dropped.
func parseFilter(s string) query.Filter {
	var f query.Filter
	var text []string

	for _, tok := range strings.Fields(s) {
		lower := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(lower, "a:"), strings.HasPrefix(lower, "assignee:"):
			f.Assignee = tok[strings.Index(tok, ":")+1:]
		case strings.HasPrefix(lower, "l:"), strings.HasPrefix(lower, "label:"):
			if v := tok[strings.Index(tok, ":")+1:]; v != "" {
				f.Labels = append(f.Labels, v)
			}
		case strings.HasPrefix(lower, "p:"):
			if n, err := strconv.Atoi(tok[2:]); err == nil && n >= 0 {
				p := n
				f.Priority = &p
			} else {
				text = append(text, tok)
			}
		case strings.HasPrefix(lower, "s:"), strings.HasPrefix(lower, "status:"):
			if st, ok := parseStatus(lower[strings.Index(lower, ":")+1:]); ok {
				f.Status = st
			} else {
				text = append(text, tok)
			}
		default:
			text = append(text, tok)
		}
	}

	f.Query = strings.Join(text, " ")
	return f
}

func parseStatus(s string) (model.Status, bool) {
	switch s {
	case "open", "o":
		return model.StatusOpen, true
	case "in_progress", "progress", "wip", "p":
		return model.StatusInProgress, true
	case "blocked", "b":
		return model.StatusBlocked, true
	case "closed", "done", "c":
		return model.StatusClosed, true
	}
	return "", false
}

// filterText renders a filter back into the line syntax parseFilter reads.
func filterText(f query.Filter) string {
	var parts []string
	if f.Query != "" {
		parts = append(parts, f.Query)
	}
	if f.Assignee != "" {
		parts = append(parts, "a:"+f.Assignee)
	}
	for _, l := range f.Labels {
		parts = append(parts, "l:"+l)
	}
	if f.Priority != nil {
		parts = append(parts, fmt.Sprintf("p:%d", *f.Priority))
	}
	if f.Status != "" {
		parts = append(parts, "s:"+string(f.Status))
	}
	return strings.Join(parts, " ")
}

// overlayBox wraps overlay content in the shared bordered frame.
func (m Model) overlayBox(content string) string {
	box := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2).
		Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderOverlay() string {
	switch m.overlay {
	case OverlayHelp:
		return m.overlayBox(m.renderHelp())
	case OverlayPalette:
		return m.overlayBox(m.palette.render(m.theme))
	case OverlayFilter:
		return m.overlayBox(m.renderFilterPrompt())
	case OverlaySort:
		return m.overlayBox(m.renderSortMenu())
	case OverlayEdit:
		if m.edit != nil {
			return m.overlayBox(m.edit.form.View())
		}
	case OverlayExport:
		return m.overlayBox(m.renderExportPrompt())
	case OverlayError:
		return m.overlayBox(m.renderErrorDetail())
	}
	return ""
}

func (m Model) renderHelp() string {
	t := m.theme
	section := t.PrimaryBold.Render
	key := t.SecondaryText.Render
	dim := t.MutedText.Render

	row := func(k, desc string) string {
		return "  " + key(padRunes(k, 12)) + dim(desc)
	}

	lines := []string{
		section("Navigate"),
		row("h/j/k/l", "move between columns and rows"),
		row("g / G", "first / last row"),
		row("ctrl+d/u", "half page down / up"),
		row("tab", "cycle board, tree, levels"),
		row("enter", "toggle detail pane"),
		"",
		section("Find"),
		row("/", "filter (a: l: p: s: prefixes)"),
		row("ctrl+p", "jump to issue by fuzzy match"),
		row("s", "sort focused column"),
		row("esc", "clear filter / close detail"),
		"",
		section("Act"),
		row("e", "edit selected issue"),
		row("ctrl+n", "create issue"),
		row("t", "start / pause work"),
		row("d", "close selected issue"),
		row("0-4", "set priority"),
		row("y / Y", "yank id / id with title"),
		row("x", "export graph snapshot"),
		row("r", "reload now"),
		"",
		section("Quit"),
		row("q", "exit"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFilterPrompt() string {
	t := m.theme
	lines := []string{
		t.PrimaryBold.Render("Filter"),
		"",
		m.filterInput.View(),
		"",
		t.MutedText.Render("enter apply · esc cancel"),
	}
	if f := m.b.Filter(); !f.IsZero() {
		total := 0
		for _, bucket := range board.Buckets() {
			total += len(m.b.BucketView(bucket).Items)
		}
		lines = append(lines, t.MutedText.Render(pluralize(total, "match")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSortMenu() string {
	t := m.theme
	bucket := m.b.FocusedBucket()
	cur := m.b.SortSpec(bucket)

	lines := []string{t.PrimaryBold.Render("Sort " + bucketTitle(bucket)), ""}
	for i, f := range query.Fields() {
		label := f.Label()
		if f == cur.Field {
			label += " " + cur.Order.Indicator()
		}
		var line string
		if i == m.sortCursor {
			line = t.Selected.Render("▸ " + padRunes(label, 16))
		} else {
			line = t.Base.Render("  " + padRunes(label, 16))
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", t.MutedText.Render("enter apply · again to flip · esc cancel"))
	return strings.Join(lines, "\n")
}

func (m Model) renderExportPrompt() string {
	t := m.theme
	return strings.Join([]string{
		t.PrimaryBold.Render("Export graph"),
		"",
		m.exportInput.View(),
		"",
		t.MutedText.Render(".svg or .png by extension · enter save · esc cancel"),
	}, "\n")
}

func (m Model) renderErrorDetail() string {
	t := m.theme
	body := strings.TrimSpace(m.errorDetail)
	if body == "" {
		body = "unknown error"
	}
	if len(body) > 2000 {
		body = body[:2000] + "…"
	}
	return strings.Join([]string{
		t.ErrorText.Render("Command failed"),
		"",
		t.Base.Render(body),
		"",
		t.MutedText.Render("any key to dismiss"),
	}, "\n")
}
