package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/strandview/strand/pkg/model"
)

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading strand…"
	}
	if m.overlay != OverlayNone {
		if s := m.renderOverlay(); s != "" {
			return s
		}
	}

	body := m.theme.Renderer.NewStyle().
		Height(m.contentHeight()).
		MaxHeight(m.contentHeight()).
		Render(m.renderBody())

	return strings.Join([]string{
		m.renderHeader(),
		RenderDivider(m.theme.Renderer, m.width),
		body,
		RenderDivider(m.theme.Renderer, m.width),
		m.renderFooter(),
	}, "\n")
}

func (m Model) renderBody() string {
	width := m.width
	if m.detailOpen {
		detail := m.renderDetailPane()
		width = m.width - lipgloss.Width(detail)
		if width < 20 {
			width = 20
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, m.renderMain(width), detail)
	}
	return m.renderMain(width)
}

func (m Model) renderMain(width int) string {
	switch m.activeView {
	case ViewTree:
		return m.renderTree(width)
	case ViewLevels:
		return m.renderLevels(width)
	default:
		return m.renderBoard(width)
	}
}

func (m Model) renderHeader() string {
	t := m.theme

	var tabs []string
	for _, v := range []ActiveView{ViewBoard, ViewTree, ViewLevels} {
		if v == m.activeView {
			tabs = append(tabs, t.PrimaryBold.Render(v.Title()))
		} else {
			tabs = append(tabs, t.MutedText.Render(v.Title()))
		}
	}

	left := t.PrimaryBold.Render(" strand ") + t.MutedText.Render("│ ") +
		strings.Join(tabs, t.MutedText.Render(" · "))

	if m.ds != nil {
		st := m.ds.Stats
		counts := fmt.Sprintf("%s %d  %s %d  %s %d  %s %d",
			colorize(t, t.Open, StatusGlyph(model.StatusOpen)), st.Open,
			colorize(t, t.InProgress, StatusGlyph(model.StatusInProgress)), st.InProgress,
			colorize(t, t.Blocked, StatusGlyph(model.StatusBlocked)), st.Blocked,
			colorize(t, t.Closed, StatusGlyph(model.StatusClosed)), st.Closed,
		)
		left += t.MutedText.Render("  │ ") + counts
	}

	var right string
	if n := len(m.warnings); n > 0 {
		right += t.ErrorText.Render(fmt.Sprintf("⚠ %d ", n))
	}
	if m.source != "" {
		right += t.MutedText.Render(m.source + " ")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderFooter() string {
	t := m.theme

	var left string
	switch {
	case m.statusIsError && m.statusMsg != "":
		left = " " + t.ErrorText.Render(m.statusMsg)
	case m.statusMsg != "":
		left = " " + t.SuccessText.Render(m.statusMsg)
	default:
		left = " " + t.MutedText.Render("? help · / filter · tab views · enter detail · q quit")
	}

	var parts []string
	if f := m.b.Filter(); !f.IsZero() {
		parts = append(parts, t.SecondaryText.Render("⧩ "+filterText(f)))
	}
	if m.activeView == ViewBoard {
		spec := m.b.SortSpec(m.b.FocusedBucket())
		parts = append(parts, t.MutedText.Render(
			spec.Field.Label()+" "+spec.Order.Indicator()))
	}
	right := strings.Join(parts, t.MutedText.Render(" · ")) + " "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// colorize renders s in the given adaptive color.
func colorize(t Theme, c lipgloss.AdaptiveColor, s string) string {
	return t.Renderer.NewStyle().Foreground(c).Render(s)
}
