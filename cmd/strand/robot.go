package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/strandview/strand/pkg/analysis"
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/model"
)

// robotIssue is one issue in the machine-readable snapshot. Status is the
// effective status, so an open issue with live blockers reads as blocked
// here exactly as it does on the board.
type robotIssue struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	Type        string   `json:"type"`
	Assignee    string   `json:"assignee,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	BlockedBy   []string `json:"blocked_by,omitempty"`
	Blocks      []string `json:"blocks,omitempty"`
	Criticality float64  `json:"criticality,omitempty"`
}

// robotSnapshot is the full snapshot payload. Issues follow the suggested
// attack order, dependencies before their dependents.
type robotSnapshot struct {
	GeneratedAt  string         `json:"generated_at"`
	DataHash     string         `json:"data_hash"`
	Source       string         `json:"source"`
	IssueCount   int            `json:"issue_count"`
	StatusCounts map[string]int `json:"status_counts"`
	Cycles       [][]string     `json:"cycles,omitempty"`
	Issues       []robotIssue   `json:"issues"`
}

func buildRobotSnapshot(ds *dataset.Dataset, stats *analysis.Stats, source string) robotSnapshot {
	snap := robotSnapshot{
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		DataHash:     ds.Hash,
		Source:       source,
		IssueCount:   ds.Len(),
		StatusCounts: make(map[string]int, len(model.Statuses())),
		Cycles:       stats.Cycles,
		Issues:       make([]robotIssue, 0, ds.Len()),
	}
	for _, status := range model.Statuses() {
		snap.StatusCounts[string(status)] = len(ds.Bucket(status))
	}
	for _, id := range stats.Order {
		issue, ok := ds.Get(id)
		if !ok {
			continue
		}
		snap.Issues = append(snap.Issues, robotIssue{
			ID:          issue.ID,
			Title:       issue.Title,
			Status:      string(issue.EffectiveStatus()),
			Priority:    issue.Priority,
			Type:        string(issue.IssueType),
			Assignee:    issue.Assignee,
			Labels:      issue.Labels,
			BlockedBy:   issue.BlockedBy,
			Blocks:      issue.Blocks,
			Criticality: stats.Criticality[id],
		})
	}
	return snap
}

func writeRobotSnapshot(w io.Writer, snap robotSnapshot, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return writeRobotText(w, snap)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	default:
		return fmt.Errorf("unknown robot format %q (expected text or json)", format)
	}
}

// writeRobotText renders the snapshot as stable plain text, one issue per
// line in attack order. No ANSI, no alignment that shifts with terminal
// width, so scripts can grep it.
func writeRobotText(w io.Writer, snap robotSnapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "strand snapshot: %d issues, source %s, hash %s\n",
		snap.IssueCount, snap.Source, shortHash(snap.DataHash))
	for _, status := range model.Statuses() {
		fmt.Fprintf(&b, "%s=%d ", status, snap.StatusCounts[string(status)])
	}
	b.WriteString("\n\n")

	for i, issue := range snap.Issues {
		fmt.Fprintf(&b, "%3d. %s [%s] p%d %s", i+1, issue.ID, issue.Status, issue.Priority, issue.Title)
		if len(issue.BlockedBy) > 0 {
			fmt.Fprintf(&b, " (blocked by: %s)", strings.Join(issue.BlockedBy, ", "))
		}
		b.WriteString("\n")
	}

	if len(snap.Cycles) > 0 {
		b.WriteString("\ncycles:\n")
		for _, cycle := range snap.Cycles {
			fmt.Fprintf(&b, "  %s\n", formatCycle(cycle))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatCycle renders a blocking cycle with the first member repeated at
// the end to close the loop visually.
func formatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return "(empty)"
	}
	return strings.Join(cycle, " → ") + " → " + cycle[0]
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	if h == "" {
		return "none"
	}
	return h
}
