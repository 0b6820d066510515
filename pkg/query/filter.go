package query

import (
	"strings"

	"github.com/strandview/strand/pkg/model"
)

// Filter is a conjunctive set of criteria. Zero-valued criteria are
// pass-throughs, so the zero Filter matches everything.
type Filter struct {
	// Query matches case-insensitively as a substring of title,
	// description, or id.
	Query string
	// Assignee and Status match exactly. Status is compared against the
	// effective status, the one the boards display.
	Assignee string
	Status   model.Status
	// Priority matches exactly when non-nil.
	Priority *int
	// Labels matches when the issue shares at least one label.
	Labels []string
}

// IsZero reports whether the filter has no criteria.
func (f Filter) IsZero() bool {
	return f.Query == "" && f.Assignee == "" && f.Status == "" &&
		f.Priority == nil && len(f.Labels) == 0
}

// Match reports whether the issue satisfies every set criterion.
func (f Filter) Match(issue *model.Issue) bool {
	if issue == nil {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(issue.Title), q) &&
			!strings.Contains(strings.ToLower(issue.Description), q) &&
			!strings.Contains(strings.ToLower(issue.ID), q) {
			return false
		}
	}
	if f.Assignee != "" && issue.Assignee != f.Assignee {
		return false
	}
	if f.Status != "" && issue.EffectiveStatus() != f.Status {
		return false
	}
	if f.Priority != nil && issue.Priority != *f.Priority {
		return false
	}
	if len(f.Labels) > 0 && !sharesLabel(issue.Labels, f.Labels) {
		return false
	}
	return true
}

// Apply returns the subsequence of issues matching the filter, preserving
// input order. The zero filter returns the input slice as-is.
func Apply(issues []*model.Issue, f Filter) []*model.Issue {
	if f.IsZero() {
		return issues
	}
	var out []*model.Issue
	for _, issue := range issues {
		if f.Match(issue) {
			out = append(out, issue)
		}
	}
	return out
}

func sharesLabel(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
