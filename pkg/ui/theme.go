package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/strandview/strand/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background instead of a down-converted approximation that may clash
// with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme carries the adaptive palette and the precomputed styles every view
// renders with. Styles are built once at startup on a shared renderer, not
// per frame.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Status accents, matched with the snapshot export palette.
	Open       lipgloss.AdaptiveColor
	InProgress lipgloss.AdaptiveColor
	Blocked    lipgloss.AdaptiveColor
	Closed     lipgloss.AdaptiveColor

	// Issue types
	Bug     lipgloss.AdaptiveColor
	Feature lipgloss.AdaptiveColor
	Task    lipgloss.AdaptiveColor
	Epic    lipgloss.AdaptiveColor
	Chore   lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base          lipgloss.Style
	Selected      lipgloss.Style
	Header        lipgloss.Style
	MutedText     lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	ErrorText     lipgloss.Style
	SuccessText   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired adaptive theme. Light
// mode colors are darkened for contrast on white backgrounds.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Open:       lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		InProgress: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Blocked:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Closed:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},

		Bug:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Feature: lipgloss.AdaptiveColor{Light: "#36B37E", Dark: "#57D9A3"},
		Epic:    lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Task:    lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"},
		Chore:   lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ErrorText = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.SuccessText = r.NewStyle().Foreground(t.Open)

	return t
}

// StatusColor maps an effective status to its accent color.
func (t Theme) StatusColor(s model.Status) lipgloss.AdaptiveColor {
	switch s {
	case model.StatusOpen:
		return t.Open
	case model.StatusInProgress:
		return t.InProgress
	case model.StatusBlocked:
		return t.Blocked
	case model.StatusClosed:
		return t.Closed
	default:
		return t.Subtext
	}
}

// TypeGlyph returns the single-letter glyph and accent color for an issue
// type. Every glyph is one cell wide so card columns stay aligned.
func (t Theme) TypeGlyph(typ model.IssueType) (string, lipgloss.AdaptiveColor) {
	switch typ {
	case model.TypeBug:
		return "B", t.Bug
	case model.TypeFeature:
		return "F", t.Feature
	case model.TypeTask:
		return "T", t.Task
	case model.TypeEpic:
		return "E", t.Epic
	case model.TypeChore:
		return "C", t.Chore
	default:
		return "·", t.Subtext
	}
}

// StatusGlyph returns the dot glyph rendered in front of card ids.
func StatusGlyph(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return "○"
	case model.StatusInProgress:
		return "◐"
	case model.StatusBlocked:
		return "●"
	case model.StatusClosed:
		return "✓"
	default:
		return "·"
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
