package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strandview/strand/pkg/query"
)

func openPalette(t *testing.T, m Model) Model {
	t.Helper()
	m = drive(t, m, keyMsg("ctrl+p"))
	if m.overlay != OverlayPalette {
		t.Fatalf("ctrl+p should open the palette, got %v", m.overlay)
	}
	return m
}

func typeString(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = drive(t, m, keyMsg(string(r)))
	}
	return m
}

func TestPaletteListsEverythingOnEmptyQuery(t *testing.T) {
	m := openPalette(t, newTestModel(t, boardIssues()...))

	if got := len(m.palette.matches); got != 4 {
		t.Fatalf("empty query matches = %d, want all 4", got)
	}
	// Ids are listed in sorted order.
	if id, ok := m.palette.chosen(); !ok || id != "st-1" {
		t.Errorf("top hit = %q, want st-1", id)
	}
}

func TestPaletteFuzzyNarrowsByTitle(t *testing.T) {
	m := openPalette(t, newTestModel(t, boardIssues()...))
	m = typeString(t, m, "watcher")

	if got := len(m.palette.matches); got != 1 {
		t.Fatalf("matches = %d, want 1", got)
	}
	if id, ok := m.palette.chosen(); !ok || id != "st-2" {
		t.Fatalf("chosen = %q, want st-2", id)
	}
}

func TestPaletteEnterJumpsBoardSelection(t *testing.T) {
	m := newTestModel(t, boardIssues()...)
	m.activeView = ViewLevels

	m = openPalette(t, m)
	m = typeString(t, m, "exporter")
	m = drive(t, m, keyMsg("enter"))

	if m.overlay != OverlayNone {
		t.Fatalf("enter should close the palette")
	}
	if m.activeView != ViewBoard {
		t.Fatalf("jump should land on the board view, got %v", m.activeView)
	}
	if got := m.b.SelectedIssue(); got == nil || got.ID != "st-3" {
		t.Fatalf("selected = %v, want st-3", got)
	}
}

func TestPaletteJumpDropsHidingFilter(t *testing.T) {
	m := newTestModel(t, boardIssues()...)
	m.b.SetFilter(query.Filter{Assignee: "sam"})

	m = openPalette(t, m)
	m = typeString(t, m, "st-1")
	m = drive(t, m, keyMsg("enter"))

	if !m.b.Filter().IsZero() {
		t.Fatalf("jump to a hidden issue should clear the filter")
	}
	if got := m.b.SelectedIssue(); got == nil || got.ID != "st-1" {
		t.Fatalf("selected = %v, want st-1", got)
	}
	if !strings.Contains(m.statusMsg, "Filter cleared") {
		t.Errorf("flash = %q, want a filter-cleared notice", m.statusMsg)
	}
}

func TestPaletteCursorMovesAndEscCloses(t *testing.T) {
	m := openPalette(t, newTestModel(t, boardIssues()...))

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if id, _ := m.palette.chosen(); id != "st-3" {
		t.Fatalf("after two downs chosen = %q, want st-3", id)
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if id, _ := m.palette.chosen(); id != "st-2" {
		t.Fatalf("after up chosen = %q, want st-2", id)
	}

	m = drive(t, m, keyMsg("esc"))
	if m.overlay != OverlayNone {
		t.Errorf("esc should close the palette")
	}
}

func TestPaletteRenderShowsMatchesAndCount(t *testing.T) {
	m := openPalette(t, newTestModel(t, boardIssues()...))
	m = typeString(t, m, "st")

	out := m.palette.render(m.theme)
	if !strings.Contains(out, "st-1") {
		t.Errorf("render missing matches:\n%s", out)
	}
	if !strings.Contains(out, "4 issues") {
		t.Errorf("render missing total count:\n%s", out)
	}
}
