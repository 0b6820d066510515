package datasource

import (
	"fmt"
	"sort"

	"github.com/strandview/strand/pkg/model"
)

// SourceDiff records how two sources disagree about the same tracker.
type SourceDiff struct {
	SourceA string
	SourceB string
	// MissingInA holds ids present in B but not A; MissingInB the reverse.
	MissingInA []string
	MissingInB []string
	// StatusMismatch holds ids both sources know but with different status.
	StatusMismatch []StatusDifference
	CountA         int
	CountB         int
}

// StatusDifference is one id whose status differs between sources.
type StatusDifference struct {
	ID      string `json:"id"`
	StatusA string `json:"status_a"`
	StatusB string `json:"status_b"`
}

func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.StatusMismatch) > 0
}

// Summary renders the diff for terminal output.
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("sources match (%d issues each)", d.CountA)
	}

	s := fmt.Sprintf("inconsistencies between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		s += fmt.Sprintf("  count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	if len(d.MissingInA) > 0 {
		s += fmt.Sprintf("  %d issues only in %s\n", len(d.MissingInA), d.SourceB)
		if len(d.MissingInA) <= 5 {
			for _, id := range d.MissingInA {
				s += fmt.Sprintf("    %s\n", id)
			}
		}
	}
	if len(d.MissingInB) > 0 {
		s += fmt.Sprintf("  %d issues only in %s\n", len(d.MissingInB), d.SourceA)
		if len(d.MissingInB) <= 5 {
			for _, id := range d.MissingInB {
				s += fmt.Sprintf("    %s\n", id)
			}
		}
	}
	if len(d.StatusMismatch) > 0 {
		s += fmt.Sprintf("  %d issues with different status\n", len(d.StatusMismatch))
		if len(d.StatusMismatch) <= 5 {
			for _, m := range d.StatusMismatch {
				s += fmt.Sprintf("    %s: %s vs %s\n", m.ID, m.StatusA, m.StatusB)
			}
		}
	}
	return s
}

// DiffOptions configures a source comparison.
type DiffOptions struct {
	// MaxDifferences caps how many differences of each kind are recorded;
	// 0 means unlimited.
	MaxDifferences int
}

// DefaultDiffOptions caps each difference list at 100 entries.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDifferences: 100}
}

// DetectInconsistencies compares two issue sets by id. Difference lists come
// back id-sorted so reports are stable run to run.
func DetectInconsistencies(issuesA, issuesB []*model.Issue, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{SourceA: sourceA, SourceB: sourceB}

	mapA := make(map[string]*model.Issue, len(issuesA))
	for _, issue := range issuesA {
		if issue.Status.IsTombstone() {
			continue
		}
		mapA[issue.ID] = issue
	}
	mapB := make(map[string]*model.Issue, len(issuesB))
	for _, issue := range issuesB {
		if issue.Status.IsTombstone() {
			continue
		}
		mapB[issue.ID] = issue
	}

	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	under := func(n int) bool {
		return opts.MaxDifferences == 0 || n < opts.MaxDifferences
	}

	for id := range mapA {
		if _, ok := mapB[id]; !ok && under(len(diff.MissingInB)) {
			diff.MissingInB = append(diff.MissingInB, id)
		}
	}
	for id, issueB := range mapB {
		issueA, ok := mapA[id]
		if !ok {
			if under(len(diff.MissingInA)) {
				diff.MissingInA = append(diff.MissingInA, id)
			}
			continue
		}
		if issueA.Status != issueB.Status && under(len(diff.StatusMismatch)) {
			diff.StatusMismatch = append(diff.StatusMismatch, StatusDifference{
				ID:      id,
				StatusA: string(issueA.Status),
				StatusB: string(issueB.Status),
			})
		}
	}

	sort.Strings(diff.MissingInA)
	sort.Strings(diff.MissingInB)
	sort.Slice(diff.StatusMismatch, func(i, j int) bool {
		return diff.StatusMismatch[i].ID < diff.StatusMismatch[j].ID
	})
	return diff
}

// CompareSources loads both sources and diffs them.
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	issuesA, err := LoadFromSource(sourceA, nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", sourceA.Path, err)
	}
	issuesB, err := LoadFromSource(sourceB, nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", sourceB.Path, err)
	}
	diff := DetectInconsistencies(issuesA, issuesB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent pairwise-compares every valid source and returns
// the diffs that found problems. Pairs that fail to load are skipped; this
// is a diagnostic, not a gate.
func CheckAllSourcesConsistent(sources []DataSource, opts DiffOptions) []SourceDiff {
	var diffs []SourceDiff
	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}
			diff, err := CompareSources(sources[i], sources[j], opts)
			if err != nil {
				continue
			}
			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}
	return diffs
}
