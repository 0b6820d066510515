package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"time"

	"github.com/strandview/strand/pkg/model"
)

// Stats counts issues per effective status.
type Stats struct {
	Open       int
	InProgress int
	Blocked    int
	Closed     int
}

// Total is the number of issues across all buckets.
func (s Stats) Total() int {
	return s.Open + s.InProgress + s.Blocked + s.Closed
}

// Dataset is an immutable, self-contained snapshot of the issue collection:
// the issues in load order, an id lookup map, per-effective-status buckets,
// and aggregate stats. The UI reads exclusively from its current Dataset
// pointer and swaps in a whole new one on reload, so a Dataset never
// changes after New returns.
type Dataset struct {
	Issues []*model.Issue

	byID    map[string]*model.Issue
	buckets map[model.Status][]*model.Issue

	Stats     Stats
	CreatedAt time.Time
	// Hash identifies the source content; reloads that hash identically
	// can skip view reconciliation.
	Hash string
	// Warnings counts non-fatal problems the loader skipped over.
	Warnings int
}

// New resolves the issues against the edge list and indexes the result.
// Bucket membership is keyed by effective status, so an open issue with
// live blockers lands in the blocked bucket. Bucket order is load order.
func New(issues []*model.Issue, edges []*model.Dependency) *Dataset {
	Resolve(issues, edges)

	d := &Dataset{
		Issues:    issues,
		byID:      make(map[string]*model.Issue, len(issues)),
		buckets:   make(map[model.Status][]*model.Issue, 4),
		CreatedAt: time.Now(),
	}
	for _, issue := range issues {
		d.byID[issue.ID] = issue
		eff := issue.EffectiveStatus()
		d.buckets[eff] = append(d.buckets[eff], issue)
		switch eff {
		case model.StatusOpen:
			d.Stats.Open++
		case model.StatusInProgress:
			d.Stats.InProgress++
		case model.StatusBlocked:
			d.Stats.Blocked++
		case model.StatusClosed:
			d.Stats.Closed++
		}
	}
	d.Hash = computeHash(issues)
	return d
}

// Get looks up an issue by id.
func (d *Dataset) Get(id string) (*model.Issue, bool) {
	if d == nil {
		return nil, false
	}
	issue, ok := d.byID[id]
	return issue, ok
}

// Bucket returns the issues whose effective status matches, in load order.
// The returned slice is shared; callers must not modify it.
func (d *Dataset) Bucket(status model.Status) []*model.Issue {
	if d == nil {
		return nil
	}
	return d.buckets[status]
}

// Len is the total issue count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Issues)
}

// IsEmpty reports whether the snapshot has no issues.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// Age returns how long ago this snapshot was built.
func (d *Dataset) Age() time.Duration {
	if d == nil {
		return 0
	}
	return time.Since(d.CreatedAt)
}

// Snapshot deep-clones the id lookup map for diffing against a later
// reload. The clones share nothing with the live issues, so the diff sees
// exactly the state at the time of the call.
func (d *Dataset) Snapshot() map[string]model.Issue {
	if d == nil {
		return nil
	}
	prev := make(map[string]model.Issue, len(d.byID))
	for id, issue := range d.byID {
		prev[id] = issue.Clone()
	}
	return prev
}

// computeHash builds a deterministic digest of the fields that matter for
// change detection. Issues are hashed in id order so input order is
// irrelevant.
func computeHash(issues []*model.Issue) string {
	if len(issues) == 0 {
		return "empty"
	}

	sorted := make([]*model.Issue, len(issues))
	copy(sorted, issues)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	h := sha256.New()
	sep := []byte{0}
	for _, issue := range sorted {
		h.Write([]byte(issue.ID))
		h.Write(sep)
		h.Write([]byte(issue.Title))
		h.Write(sep)
		h.Write([]byte(issue.Status))
		h.Write(sep)
		h.Write([]byte(issue.Assignee))
		h.Write(sep)
		h.Write([]byte(strconv.Itoa(issue.Priority)))
		h.Write(sep)
		h.Write([]byte(issue.UpdatedAt.UTC().Format(time.RFC3339Nano)))
		h.Write(sep)
	}
	return hex.EncodeToString(h.Sum(nil))
}
