package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/strandview/strand/pkg/model"
)

// ToJSONL renders issues one JSON object per line, the format bd exports.
func ToJSONL(issues []*model.Issue) string {
	var sb strings.Builder
	for _, issue := range issues {
		data, err := json.Marshal(issue)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TempBeadsDir creates a project directory containing an empty .beads
// subdirectory.
func TempBeadsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".beads"), 0o755); err != nil {
		t.Fatalf("create .beads dir: %v", err)
	}
	return dir
}

// WriteBeadsFile writes issues to .beads/issues.jsonl under dir, creating
// the directory when needed, and returns the file path.
func WriteBeadsFile(t *testing.T, dir string, issues []*model.Issue) string {
	t.Helper()
	path := filepath.Join(dir, ".beads", "issues.jsonl")
	WriteIssuesFile(t, path, issues)
	return path
}

// WriteIssuesFile writes issues as JSONL to an arbitrary path, creating
// parent directories.
func WriteIssuesFile(t *testing.T, path string, issues []*model.Issue) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(ToJSONL(issues)), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

// Find returns the issue with the given id, nil when absent.
func Find(issues []*model.Issue, id string) *model.Issue {
	for _, issue := range issues {
		if issue.ID == id {
			return issue
		}
	}
	return nil
}

// IDs lists issue ids in slice order.
func IDs(issues []*model.Issue) []string {
	ids := make([]string, len(issues))
	for i, issue := range issues {
		ids[i] = issue.ID
	}
	return ids
}
