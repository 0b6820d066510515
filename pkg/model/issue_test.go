package model_test

import (
	"testing"
	"time"

	"github.com/strandview/strand/pkg/model"
)

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    model.Status
		blockedBy []string
		want      model.Status
	}{
		{"open unblocked", model.StatusOpen, nil, model.StatusOpen},
		{"open with blockers", model.StatusOpen, []string{"x-1"}, model.StatusBlocked},
		{"in_progress with blockers keeps status", model.StatusInProgress, []string{"x-1"}, model.StatusInProgress},
		{"closed with blockers keeps status", model.StatusClosed, []string{"x-1"}, model.StatusClosed},
		{"stored blocked without blockers", model.StatusBlocked, nil, model.StatusBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := model.Issue{ID: "a-1", Status: tt.status, BlockedBy: tt.blockedBy}
			if got := i.EffectiveStatus(); got != tt.want {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Status
	}{
		{"open", model.StatusOpen},
		{"OPEN", model.StatusOpen},
		{"  In_Progress ", model.StatusInProgress},
		{"in-progress", model.StatusInProgress},
		{"Closed", model.StatusClosed},
		{"tombstone", model.StatusTombstone},
	}
	for _, tt := range tests {
		if got := model.NormalizeStatus(tt.raw); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	est := 45
	closed := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	orig := model.Issue{
		ID:               "a-1",
		Title:            "original",
		Status:           model.StatusClosed,
		EstimatedMinutes: &est,
		ClosedAt:         &closed,
		Labels:           []string{"backend"},
		BlockedBy:        []string{"b-2"},
		Dependencies:     []*model.Dependency{{IssueID: "a-1", DependsOnID: "b-2", Type: model.DepBlocks}},
		Comments:         []*model.Comment{{ID: 1, IssueID: "a-1", Text: "hi"}},
	}

	clone := orig.Clone()
	clone.Labels[0] = "frontend"
	clone.BlockedBy[0] = "c-3"
	*clone.EstimatedMinutes = 90
	clone.Dependencies[0].DependsOnID = "c-3"
	clone.Comments[0].Text = "bye"

	if orig.Labels[0] != "backend" {
		t.Errorf("labels shared between clone and original")
	}
	if orig.BlockedBy[0] != "b-2" {
		t.Errorf("blockedBy shared between clone and original")
	}
	if *orig.EstimatedMinutes != 45 {
		t.Errorf("estimated minutes shared between clone and original")
	}
	if orig.Dependencies[0].DependsOnID != "b-2" {
		t.Errorf("dependencies shared between clone and original")
	}
	if orig.Comments[0].Text != "hi" {
		t.Errorf("comments shared between clone and original")
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := model.Issue{
		ID: "a-1", Title: "t", Status: model.StatusOpen, Priority: 2,
		IssueType: model.TypeTask, CreatedAt: now, UpdatedAt: now,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid issue rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*model.Issue)
	}{
		{"empty id", func(i *model.Issue) { i.ID = "" }},
		{"empty title", func(i *model.Issue) { i.Title = "" }},
		{"tombstone status", func(i *model.Issue) { i.Status = model.StatusTombstone }},
		{"unknown status", func(i *model.Issue) { i.Status = "archived" }},
		{"priority below range", func(i *model.Issue) { i.Priority = -1 }},
		{"priority above range", func(i *model.Issue) { i.Priority = 5 }},
		{"updated before created", func(i *model.Issue) { i.UpdatedAt = now.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := valid.Clone()
			tt.mutate(&i)
			if err := i.Validate(); err == nil {
				t.Errorf("expected validation error, got nil")
			}
		})
	}
}

func TestDependencyTypeIsBlocking(t *testing.T) {
	if !model.DepBlocks.IsBlocking() {
		t.Errorf("blocks should be blocking")
	}
	if !model.DependencyType("").IsBlocking() {
		t.Errorf("empty type should default to blocking")
	}
	for _, d := range []model.DependencyType{model.DepRelated, model.DepParentChild, model.DepDiscoveredFrom} {
		if d.IsBlocking() {
			t.Errorf("%q should not be blocking", d)
		}
	}
}
