package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/strandview/strand/pkg/model"
)

// Adaptive color tokens shared across views. Light mode values are tuned
// for WCAG AA contrast on white backgrounds.
var (
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	// Status badge foregrounds and backgrounds.
	ColorStatusOpen         = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorStatusInProgress   = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorStatusBlocked      = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorStatusClosed       = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorStatusOpenBg       = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorStatusInProgressBg = lipgloss.AdaptiveColor{Light: "#D1ECF1", Dark: "#1A3344"}
	ColorStatusBlockedBg    = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorStatusClosedBg     = lipgloss.AdaptiveColor{Light: "#E2E3E5", Dark: "#2A2A3D"}

	// Priority colors, critical to backlog.
	ColorPrioCritical = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorPrioHigh     = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorPrioMedium   = lipgloss.AdaptiveColor{Light: "#808000", Dark: "#F1FA8C"}
	ColorPrioLow      = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}

	// Jira-style saturated type badge backgrounds, white glyph on top.
	ColorTypeBadgeText = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ColorTypeBugBg     = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#E5493A"}
	ColorTypeFeatureBg = lipgloss.AdaptiveColor{Light: "#36B37E", Dark: "#36B37E"}
	ColorTypeTaskBg    = lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"}
	ColorTypeEpicBg    = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#904EE2"}
	ColorTypeChoreBg   = lipgloss.AdaptiveColor{Light: "#6B778C", Dark: "#6B778C"}
)

// RenderPriorityBadge renders the P0..P4 tag. 0 is critical, 4 backlog.
func RenderPriorityBadge(r *lipgloss.Renderer, priority int) string {
	var fg lipgloss.AdaptiveColor
	var label string

	switch priority {
	case 0:
		fg, label = ColorPrioCritical, "P0"
	case 1:
		fg, label = ColorPrioHigh, "P1"
	case 2:
		fg, label = ColorPrioMedium, "P2"
	case 3:
		fg, label = ColorPrioLow, "P3"
	case 4:
		fg, label = ColorMuted, "P4"
	default:
		fg, label = ColorMuted, "P?"
	}

	return r.NewStyle().Foreground(fg).Bold(priority <= 1).Render(label)
}

// RenderStatusBadge renders a four-letter status tag on a subtle background.
func RenderStatusBadge(r *lipgloss.Renderer, status model.Status) string {
	var fg, bg lipgloss.AdaptiveColor
	var label string

	switch status {
	case model.StatusOpen:
		fg, bg, label = ColorStatusOpen, ColorStatusOpenBg, "OPEN"
	case model.StatusInProgress:
		fg, bg, label = ColorStatusInProgress, ColorStatusInProgressBg, "PROG"
	case model.StatusBlocked:
		fg, bg, label = ColorStatusBlocked, ColorStatusBlockedBg, "BLKD"
	case model.StatusClosed:
		fg, bg, label = ColorStatusClosed, ColorStatusClosedBg, "DONE"
	default:
		fg, bg, label = ColorMuted, ColorBgSubtle, "????"
	}

	return r.NewStyle().Foreground(fg).Background(bg).Padding(0, 1).Render(label)
}

// RenderTypeBadge renders the one-cell colored type square.
func RenderTypeBadge(r *lipgloss.Renderer, typ model.IssueType) string {
	var bg lipgloss.AdaptiveColor
	var label string

	switch typ {
	case model.TypeBug:
		bg, label = ColorTypeBugBg, "B"
	case model.TypeFeature:
		bg, label = ColorTypeFeatureBg, "F"
	case model.TypeTask:
		bg, label = ColorTypeTaskBg, "T"
	case model.TypeEpic:
		bg, label = ColorTypeEpicBg, "E"
	case model.TypeChore:
		bg, label = ColorTypeChoreBg, "C"
	default:
		bg, label = ColorBgSubtle, "·"
	}

	return r.NewStyle().Foreground(ColorTypeBadgeText).Background(bg).Bold(true).Render(label)
}

// RenderDivider renders a horizontal rule.
func RenderDivider(r *lipgloss.Renderer, width int) string {
	if width <= 0 {
		return ""
	}
	return r.NewStyle().Foreground(ColorBgHighlight).Render(strings.Repeat("─", width))
}

// RenderMiniBar renders a small gauge for a value in [0, 1], used for the
// criticality column in the levels view.
func RenderMiniBar(r *lipgloss.Renderer, t Theme, value float64, width int) string {
	if width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}

	var barColor lipgloss.AdaptiveColor
	switch {
	case value >= 0.75:
		barColor = t.Blocked
	case value >= 0.5:
		barColor = t.InProgress
	case value >= 0.25:
		barColor = t.Open
	default:
		barColor = t.Secondary
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return r.NewStyle().Foreground(barColor).Render(bar)
}
