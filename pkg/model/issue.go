// Package model defines the issue records read from a beads dataset and the
// derived relational fields the rest of the program works with.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Issue is a single work item. The json tags describe the beads wire format;
// the relational fields at the bottom are filled in by the resolution pass
// and never decoded from disk.
type Issue struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description,omitempty"`
	Design             string        `json:"design,omitempty"`
	AcceptanceCriteria string        `json:"acceptance_criteria,omitempty"`
	Notes              string        `json:"notes,omitempty"`
	Status             Status        `json:"status"`
	Priority           int           `json:"priority"`
	IssueType          IssueType     `json:"issue_type"`
	Assignee           string        `json:"assignee,omitempty"`
	ExternalRef        string        `json:"external_ref,omitempty"`
	EstimatedMinutes   *int          `json:"estimated_minutes,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	ClosedAt           *time.Time    `json:"closed_at,omitempty"`
	Labels             []string      `json:"labels,omitempty"`
	Dependencies       []*Dependency `json:"dependencies,omitempty"`
	Comments           []*Comment    `json:"comments,omitempty"`

	// Derived by dataset.Resolve. Parent holds at most one id; BlockedBy
	// holds only blockers whose status is not closed.
	Parent    string   `json:"-"`
	Children  []string `json:"-"`
	BlockedBy []string `json:"-"`
	Blocks    []string `json:"-"`
}

// EffectiveStatus is the status the views display. An open issue with
// unresolved blockers shows as blocked; the stored Status field is never
// rewritten by this rule.
func (i *Issue) EffectiveStatus() Status {
	if i.Status == StatusOpen && len(i.BlockedBy) > 0 {
		return StatusBlocked
	}
	return i.Status
}

// HasRelations reports whether the issue participates in any parent/child or
// blocking relationship after resolution.
func (i *Issue) HasRelations() bool {
	return i.Parent != "" || len(i.Children) > 0 || len(i.BlockedBy) > 0 || len(i.Blocks) > 0
}

// Clone returns a deep copy, including the derived relational fields.
func (i Issue) Clone() Issue {
	clone := i

	if i.EstimatedMinutes != nil {
		v := *i.EstimatedMinutes
		clone.EstimatedMinutes = &v
	}
	if i.ClosedAt != nil {
		v := *i.ClosedAt
		clone.ClosedAt = &v
	}
	clone.Labels = cloneStrings(i.Labels)
	clone.Children = cloneStrings(i.Children)
	clone.BlockedBy = cloneStrings(i.BlockedBy)
	clone.Blocks = cloneStrings(i.Blocks)

	if i.Dependencies != nil {
		clone.Dependencies = make([]*Dependency, len(i.Dependencies))
		for idx, dep := range i.Dependencies {
			if dep != nil {
				v := *dep
				clone.Dependencies[idx] = &v
			}
		}
	}
	if i.Comments != nil {
		clone.Comments = make([]*Comment, len(i.Comments))
		for idx, c := range i.Comments {
			if c != nil {
				v := *c
				clone.Comments[idx] = &v
			}
		}
	}
	return clone
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Validate checks that the record is usable by the views. Loaders skip
// issues that fail validation rather than aborting the load.
func (i *Issue) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("issue ID cannot be empty")
	}
	if i.Title == "" {
		return fmt.Errorf("issue title cannot be empty")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %q", i.Status)
	}
	if i.Priority < 0 || i.Priority > 4 {
		return fmt.Errorf("priority %d out of range [0,4]", i.Priority)
	}
	if !i.UpdatedAt.IsZero() && !i.CreatedAt.IsZero() && i.UpdatedAt.Before(i.CreatedAt) {
		return fmt.Errorf("updated_at (%v) before created_at (%v)", i.UpdatedAt, i.CreatedAt)
	}
	return nil
}

// Status is the stored lifecycle state of an issue.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"

	// StatusTombstone marks a deleted record in the beads stores. Loaders
	// drop tombstones; the views never see one.
	StatusTombstone Status = "tombstone"
)

// Statuses lists the renderable statuses in board-column order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusBlocked, StatusClosed}
}

// IsValid reports whether s is a renderable status. Tombstones are not.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusClosed:
		return true
	}
	return false
}

func (s Status) IsClosed() bool {
	return s == StatusClosed
}

func (s Status) IsTombstone() bool {
	return s == StatusTombstone
}

// IsOpen reports whether the issue is actionable (open or in_progress).
func (s Status) IsOpen() bool {
	return s == StatusOpen || s == StatusInProgress
}

// NormalizeStatus maps the spellings found in the wild onto the canonical
// values: trims, lowercases, and accepts the hyphenated in-progress variant.
func NormalizeStatus(raw string) Status {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "in-progress" {
		return StatusInProgress
	}
	return Status(trimmed)
}

// IssueType categorizes the kind of work.
type IssueType string

const (
	TypeBug     IssueType = "bug"
	TypeFeature IssueType = "feature"
	TypeTask    IssueType = "task"
	TypeEpic    IssueType = "epic"
	TypeChore   IssueType = "chore"
)

func (t IssueType) IsValid() bool {
	switch t {
	case TypeBug, TypeFeature, TypeTask, TypeEpic, TypeChore:
		return true
	}
	return false
}

// Dependency is a typed edge between two issues. IssueID depends on
// DependsOnID; for blocking edges that means DependsOnID blocks IssueID.
type Dependency struct {
	IssueID     string         `json:"issue_id"`
	DependsOnID string         `json:"depends_on_id"`
	Type        DependencyType `json:"type"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	CreatedBy   string         `json:"created_by,omitempty"`
}

// DependencyType categorizes the relationship carried by an edge.
type DependencyType string

const (
	DepBlocks         DependencyType = "blocks"
	DepRelated        DependencyType = "related"
	DepParentChild    DependencyType = "parent-child"
	DepDiscoveredFrom DependencyType = "discovered-from"
)

func (d DependencyType) IsValid() bool {
	switch d {
	case DepBlocks, DepRelated, DepParentChild, DepDiscoveredFrom:
		return true
	}
	return false
}

// IsBlocking reports whether the edge affects blockedBy/blocks. An empty
// type is treated as blocking, matching how bd records bare dependencies.
func (d DependencyType) IsBlocking() bool {
	return d == "" || d == DepBlocks
}

// Comment is a single comment attached to an issue.
type Comment struct {
	ID        int64     `json:"id"`
	IssueID   string    `json:"issue_id"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
