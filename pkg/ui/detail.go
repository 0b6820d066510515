package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/strandview/strand/pkg/model"
)

// ensureDetail rebuilds the detail viewport when the selection moved.
// detailFor tracks the issue the current content belongs to; reloads and
// cursor moves blank it to force the rebuild.
func (m *Model) ensureDetail() {
	issue := m.selectedIssue()
	if issue == nil {
		m.detail.SetContent(m.theme.MutedText.Render("nothing selected"))
		m.detailFor = ""
		return
	}
	if m.detailFor == issue.ID {
		return
	}
	m.detail.SetContent(m.buildDetail(issue))
	m.detail.GotoTop()
	m.detailFor = issue.ID
}

// buildDetail renders one issue's full record: badges, metadata, relations,
// then the markdown body through glamour.
func (m *Model) buildDetail(issue *model.Issue) string {
	t := m.theme
	width := m.detail.Width
	var b strings.Builder

	b.WriteString(t.PrimaryBold.Render(truncateCells(issue.Title, width, "…")))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s  %s\n",
		t.MutedText.Render(issue.ID),
		RenderStatusBadge(t.Renderer, issue.EffectiveStatus()),
		RenderPriorityBadge(t.Renderer, issue.Priority),
		RenderTypeBadge(t.Renderer, issue.IssueType),
	))
	b.WriteString(RenderDivider(t.Renderer, width))
	b.WriteString("\n")

	meta := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(t.MutedText.Render(padRunes(label, 10)))
		b.WriteString(t.Base.Render(value))
		b.WriteString("\n")
	}
	meta("assignee", issue.Assignee)
	meta("labels", strings.Join(issue.Labels, ", "))
	meta("created", FormatTimeRel(issue.CreatedAt))
	meta("updated", FormatTimeRel(issue.UpdatedAt))
	if issue.ClosedAt != nil {
		meta("closed", FormatTimeRel(*issue.ClosedAt))
	}
	if issue.EstimatedMinutes != nil {
		meta("estimate", fmt.Sprintf("%dm", *issue.EstimatedMinutes))
	}
	meta("ref", issue.ExternalRef)

	if stats := m.ensureStats(); stats != nil && issue.HasRelations() {
		if rank := stats.Rank(issue.ID); rank > 0 {
			meta("impact", fmt.Sprintf("#%d of %d by criticality", rank, stats.NodeCount))
		}
	}

	m.writeRelations(&b, issue)

	if body := m.issueMarkdown(issue); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}

	if len(issue.Comments) > 0 {
		b.WriteString("\n")
		b.WriteString(t.Header.Render(pluralize(len(issue.Comments), "comment")))
		b.WriteString("\n")
		for _, c := range issue.Comments {
			b.WriteString(t.SecondaryText.Render(c.Author))
			b.WriteString(t.MutedText.Render(" · " + FormatTimeRel(c.CreatedAt)))
			b.WriteString("\n")
			b.WriteString(t.Base.Render(c.Text))
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

// writeRelations lists the dependency edges with resolved titles, each id
// annotated with the live status glyph so blockers stand out.
func (m *Model) writeRelations(b *strings.Builder, issue *model.Issue) {
	t := m.theme

	writeList := func(header string, ids []string) {
		if len(ids) == 0 {
			return
		}
		b.WriteString("\n")
		b.WriteString(t.Header.Render(header))
		b.WriteString("\n")
		for _, id := range ids {
			line := "  " + id
			glyph := " "
			if m.ds != nil {
				if other, ok := m.ds.Get(id); ok {
					glyph = t.Renderer.NewStyle().
						Foreground(t.StatusColor(other.EffectiveStatus())).
						Render(StatusGlyph(other.EffectiveStatus()))
					line = fmt.Sprintf("  %s %s %s", glyph, id,
						t.MutedText.Render(truncateCells(other.Title, m.detail.Width-len(id)-6, "…")))
					b.WriteString(line)
					b.WriteString("\n")
					continue
				}
			}
			b.WriteString(t.MutedText.Render(line))
			b.WriteString("\n")
		}
	}

	writeList("blocked by", issue.BlockedBy)
	writeList("blocks", issue.Blocks)
	if issue.Parent != "" {
		writeList("parent", []string{issue.Parent})
	}
	writeList("children", issue.Children)
}

// issueMarkdown concatenates the long-form sections and renders them as
// markdown. A renderer failure falls back to the raw text.
func (m *Model) issueMarkdown(issue *model.Issue) string {
	var sections []string
	add := func(title, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		sections = append(sections, "## "+title+"\n\n"+text)
	}
	add("Description", issue.Description)
	add("Design", issue.Design)
	add("Acceptance Criteria", issue.AcceptanceCriteria)
	add("Notes", issue.Notes)
	if len(sections) == 0 {
		return ""
	}

	raw := strings.Join(sections, "\n\n")
	if m.mdRenderer == nil {
		return raw
	}
	rendered, err := m.mdRenderer.Render(raw)
	if err != nil {
		return raw
	}
	return rendered
}

// renderDetailPane frames the viewport beside the main view.
func (m *Model) renderDetailPane() string {
	m.ensureDetail()
	t := m.theme
	return t.Renderer.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(t.Border).
		PaddingLeft(1).
		Height(m.contentHeight()).
		Render(m.detail.View())
}
