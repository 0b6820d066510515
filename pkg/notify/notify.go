// Package notify detects status transitions between dataset snapshots and
// applies the event policy the footer and shell hooks consume. It works on
// the immutable snapshot maps, never on live view state.
package notify

import (
	"sort"

	"github.com/strandview/strand/pkg/model"
)

// StatusChange records one issue whose stored status differs between two
// snapshots. Issue is the new snapshot's record.
type StatusChange struct {
	Issue     model.Issue
	OldStatus model.Status
	NewStatus model.Status
}

// Diff compares two id-to-issue snapshots and returns one StatusChange per
// id whose status differs. Ids present in only one snapshot are ignored:
// new and removed issues are not transitions, so importing a batch of
// already-closed issues stays silent. Results are ordered by id, and
// identical snapshots produce nothing.
func Diff(prev, next map[string]model.Issue) []StatusChange {
	if len(prev) == 0 || len(next) == 0 {
		return nil
	}

	ids := make([]string, 0, len(next))
	for id := range next {
		if _, ok := prev[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var changes []StatusChange
	for _, id := range ids {
		oldIssue, newIssue := prev[id], next[id]
		if oldIssue.Status == newIssue.Status {
			continue
		}
		changes = append(changes, StatusChange{
			Issue:     newIssue,
			OldStatus: oldIssue.Status,
			NewStatus: newIssue.Status,
		})
	}
	return changes
}

// EventKind names a side-effect-worthy transition.
type EventKind string

const (
	// EventCompleted fires when an issue transitions into closed.
	EventCompleted EventKind = "completed"
	// EventBecameBlocked fires when an issue transitions into blocked
	// while it actually has live blockers.
	EventBecameBlocked EventKind = "became-blocked"
)

// Event is one transition that passed the policy filter.
type Event struct {
	Kind      EventKind
	Issue     model.Issue
	OldStatus model.Status
	NewStatus model.Status
}

// Events applies the consumer policy to raw status changes. Each qualifying
// change yields exactly one event:
//
//   - into closed from anything else: completed
//   - into blocked from anything else: became-blocked, but only when the
//     new snapshot shows live blockers; a hand-set blocked status with an
//     empty BlockedBy stays quiet
func Events(changes []StatusChange) []Event {
	var events []Event
	for _, change := range changes {
		switch {
		case change.NewStatus == model.StatusClosed && change.OldStatus != model.StatusClosed:
			events = append(events, Event{
				Kind:      EventCompleted,
				Issue:     change.Issue,
				OldStatus: change.OldStatus,
				NewStatus: change.NewStatus,
			})
		case change.NewStatus == model.StatusBlocked && change.OldStatus != model.StatusBlocked:
			if len(change.Issue.BlockedBy) == 0 {
				continue
			}
			events = append(events, Event{
				Kind:      EventBecameBlocked,
				Issue:     change.Issue,
				OldStatus: change.OldStatus,
				NewStatus: change.NewStatus,
			})
		}
	}
	return events
}
