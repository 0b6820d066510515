package ui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/strandview/strand/pkg/model"
	"github.com/strandview/strand/pkg/query"
)

func TestParseFilterTokens(t *testing.T) {
	f := parseFilter("crash loop a:sam l:infra l:ui p:2 s:blocked")

	if f.Query != "crash loop" {
		t.Errorf("Query = %q, want free text joined", f.Query)
	}
	if f.Assignee != "sam" {
		t.Errorf("Assignee = %q", f.Assignee)
	}
	if !reflect.DeepEqual(f.Labels, []string{"infra", "ui"}) {
		t.Errorf("Labels = %v", f.Labels)
	}
	if f.Priority == nil || *f.Priority != 2 {
		t.Errorf("Priority = %v, want 2", f.Priority)
	}
	if f.Status != model.StatusBlocked {
		t.Errorf("Status = %q", f.Status)
	}
}

func TestParseFilterLongPrefixes(t *testing.T) {
	f := parseFilter("assignee:kim label:core status:open")
	if f.Assignee != "kim" || len(f.Labels) != 1 || f.Labels[0] != "core" {
		t.Errorf("long prefixes misparsed: %+v", f)
	}
	if f.Status != model.StatusOpen {
		t.Errorf("Status = %q, want open", f.Status)
	}
}

func TestParseFilterStatusAliases(t *testing.T) {
	cases := map[string]model.Status{
		"s:wip":      model.StatusInProgress,
		"s:progress": model.StatusInProgress,
		"s:done":     model.StatusClosed,
		"s:b":        model.StatusBlocked,
	}
	for in, want := range cases {
		if got := parseFilter(in).Status; got != want {
			t.Errorf("parseFilter(%q).Status = %q, want %q", in, got, want)
		}
	}
}

func TestParseFilterBadValuesFallBackToText(t *testing.T) {
	f := parseFilter("p:high s:someday")
	if f.Priority != nil {
		t.Errorf("non-numeric priority should not bind, got %v", *f.Priority)
	}
	if f.Status != "" {
		t.Errorf("unknown status should not bind, got %q", f.Status)
	}
	if !strings.Contains(f.Query, "p:high") || !strings.Contains(f.Query, "s:someday") {
		t.Errorf("unparsed tokens should survive as text, got %q", f.Query)
	}
}

func TestParseFilterEmptyIsZero(t *testing.T) {
	if f := parseFilter("   "); !f.IsZero() {
		t.Errorf("blank input should parse to the zero filter, got %+v", f)
	}
}

func TestFilterTextRoundTrip(t *testing.T) {
	p := 1
	in := query.Filter{
		Query:    "panic",
		Assignee: "sam",
		Labels:   []string{"infra"},
		Priority: &p,
		Status:   model.StatusOpen,
	}

	back := parseFilter(filterText(in))
	if back.Query != in.Query || back.Assignee != in.Assignee ||
		!reflect.DeepEqual(back.Labels, in.Labels) ||
		back.Priority == nil || *back.Priority != p ||
		back.Status != in.Status {
		t.Errorf("round trip changed the filter: %+v -> %+v", in, back)
	}
}

func TestSortMenuShowsFieldsAndIndicator(t *testing.T) {
	m := newTestModel(t, boardIssues()...)
	m = drive(t, m, keyMsg("s"))

	out := m.renderSortMenu()
	for _, f := range query.Fields() {
		if !strings.Contains(out, f.Label()) {
			t.Errorf("sort menu missing field %q:\n%s", f.Label(), out)
		}
	}
	if !strings.Contains(out, "▲") && !strings.Contains(out, "▼") {
		t.Errorf("sort menu should mark the active order:\n%s", out)
	}
}

func TestErrorOverlayTruncatesAndDismisses(t *testing.T) {
	m := newTestModel(t, boardIssues()...)
	m.errorDetail = strings.Repeat("x", 5000)
	m.overlay = OverlayError

	out := m.renderErrorDetail()
	if len(out) > 9000 {
		t.Errorf("error detail should be truncated, got %d bytes", len(out))
	}

	m = drive(t, m, keyMsg("q"))
	if m.overlay != OverlayNone || m.errorDetail != "" {
		t.Errorf("any key should dismiss and clear the error")
	}
}

func TestExportOverlayValidatesPath(t *testing.T) {
	m := newTestModel(t, boardIssues()...)
	m = drive(t, m, keyMsg("x"))
	if m.overlay != OverlayExport {
		t.Fatalf("x should open the export prompt, got %v", m.overlay)
	}

	// Wipe the prefilled path and submit; that must not dispatch an export.
	m.exportInput.SetValue("   ")
	m = drive(t, m, keyMsg("enter"))
	if m.overlay != OverlayNone {
		t.Fatalf("enter should close the prompt")
	}
	if !m.statusIsError {
		t.Errorf("blank path should flash an error, got %q", m.statusMsg)
	}
}
