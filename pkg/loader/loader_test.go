package loader_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/strandview/strand/pkg/loader"
	"github.com/strandview/strand/pkg/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestParseValidMultiLine(t *testing.T) {
	data := `{"id":"is-1","title":"First","status":"open","priority":1,"issue_type":"task"}
{"id":"is-2","title":"Second","status":"closed","priority":2,"issue_type":"bug"}
`
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if issues[0].ID != "is-1" || issues[1].ID != "is-2" {
		t.Errorf("issues out of file order: %s, %s", issues[0].ID, issues[1].ID)
	}
	if issues[1].Status != model.StatusClosed {
		t.Errorf("expected closed status, got %q", issues[1].Status)
	}
}

func TestParseSkipsMalformedWithWarning(t *testing.T) {
	data := `{"id":"is-1","title":"Good","status":"open"}
{not valid json
{"id":"is-2","title":"Also good","status":"open"}
`
	var warnings []string
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{
		Warn: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "line 2") {
		t.Errorf("warning should name line 2: %q", warnings[0])
	}
}

func TestParseSkipsInvalidIssue(t *testing.T) {
	data := `{"id":"","title":"No id","status":"open"}
{"id":"is-1","title":"Fine","status":"open"}
{"id":"is-2","title":"Bad priority","status":"open","priority":9}
`
	var warnings []string
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{
		Warn: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 1 || issues[0].ID != "is-1" {
		t.Fatalf("expected only is-1 to survive, got %d issues", len(issues))
	}
	if len(warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestParseEmptyLinesAndBOM(t *testing.T) {
	data := "\xEF\xBB\xBF{\"id\":\"is-1\",\"title\":\"BOM line\",\"status\":\"open\"}\n\n\n{\"id\":\"is-2\",\"title\":\"After blanks\",\"status\":\"open\"}\n"
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if issues[0].ID != "is-1" {
		t.Errorf("BOM not stripped, first id %q", issues[0].ID)
	}
}

func TestParseNormalizesStatus(t *testing.T) {
	data := `{"id":"is-1","title":"Mixed case","status":" In-Progress "}
`
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Status != model.StatusInProgress {
		t.Errorf("status not normalized: %q", issues[0].Status)
	}
}

func TestParseDropsTombstonesSilently(t *testing.T) {
	data := `{"id":"is-1","title":"Alive","status":"open"}
{"id":"is-2","title":"Deleted","status":"tombstone"}
`
	var warnings []string
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{
		Warn: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 1 || issues[0].ID != "is-1" {
		t.Fatalf("tombstone should be dropped, got %d issues", len(issues))
	}
	if len(warnings) != 0 {
		t.Errorf("tombstones are not warnings, got %v", warnings)
	}
}

func TestParseSkipsOversizedLine(t *testing.T) {
	long := `{"id":"is-big","title":"` + strings.Repeat("x", 4096) + `","status":"open"}`
	data := long + "\n" + `{"id":"is-2","title":"Small","status":"open"}` + "\n"
	var warnings []string
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{
		MaxLineBytes: 1024,
		Warn:         func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 1 || issues[0].ID != "is-2" {
		t.Fatalf("expected only the small issue, got %d issues", len(issues))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "too long") {
		t.Errorf("expected a too-long warning, got %v", warnings)
	}
}

func TestParseFilter(t *testing.T) {
	data := `{"id":"is-1","title":"Open","status":"open"}
{"id":"is-2","title":"Closed","status":"closed"}
`
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{
		Filter: func(issue *model.Issue) bool { return issue.Status != model.StatusClosed },
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 1 || issues[0].ID != "is-1" {
		t.Fatalf("filter should drop closed issues, got %d issues", len(issues))
	}
}

func TestParseUnicode(t *testing.T) {
	data := `{"id":"is-1","title":"日本語のタイトル 🎯","status":"open","assignee":"maría"}
`
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if issues[0].Title != "日本語のタイトル 🎯" {
		t.Errorf("unicode title mangled: %q", issues[0].Title)
	}
}

func TestParseAllFields(t *testing.T) {
	data := `{"id":"is-7","title":"Full","description":"Body","design":"Plan","acceptance_criteria":"Done when","notes":"N","status":"open","priority":1,"issue_type":"feature","assignee":"ada","estimated_minutes":90,"created_at":"2026-01-02T10:00:00Z","updated_at":"2026-01-03T10:00:00Z","labels":["backend","urgent"],"dependencies":[{"issue_id":"is-7","depends_on_id":"is-3","type":"blocks"}],"comments":[{"id":1,"issue_id":"is-7","author":"bob","text":"hi"}]}
`
	issues, err := loader.Parse(strings.NewReader(data), loader.Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	is := issues[0]
	if is.Assignee != "ada" || is.IssueType != model.TypeFeature {
		t.Errorf("scalar fields wrong: %+v", is)
	}
	if is.EstimatedMinutes == nil || *is.EstimatedMinutes != 90 {
		t.Errorf("estimated_minutes not decoded: %v", is.EstimatedMinutes)
	}
	if len(is.Labels) != 2 || len(is.Dependencies) != 1 || len(is.Comments) != 1 {
		t.Errorf("slices wrong: labels=%d deps=%d comments=%d",
			len(is.Labels), len(is.Dependencies), len(is.Comments))
	}
	if is.Dependencies[0].DependsOnID != "is-3" {
		t.Errorf("dependency edge wrong: %+v", is.Dependencies[0])
	}
	if is.Dependencies[0].IssueID != is.ID {
		t.Errorf("embedded dependency should inherit its owner id, got %q", is.Dependencies[0].IssueID)
	}
}

func TestLoadFileNonExistent(t *testing.T) {
	_, err := loader.LoadFile(filepath.Join(t.TempDir(), "missing.jsonl"), loader.Options{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "no beads issues found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "issues.jsonl", "")
	issues, err := loader.LoadFile(path, loader.Options{})
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected no issues from empty file, got %d", len(issues))
	}
}

func TestFindJSONLPathPrefersIssuesJSONL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "beads.jsonl", `{"id":"b-1"}`+"\n")
	want := writeFile(t, dir, "issues.jsonl", `{"id":"i-1"}`+"\n")

	got, err := loader.FindJSONLPath(dir, nil)
	if err != nil {
		t.Fatalf("FindJSONLPath returned error: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFindJSONLPathSkipsEmptyPreferred(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "issues.jsonl", "")
	want := writeFile(t, dir, "beads.jsonl", `{"id":"b-1"}`+"\n")

	got, err := loader.FindJSONLPath(dir, nil)
	if err != nil {
		t.Fatalf("FindJSONLPath returned error: %v", err)
	}
	if got != want {
		t.Errorf("empty issues.jsonl should lose to beads.jsonl, got %s", got)
	}
}

func TestFindJSONLPathSkipsArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "issues.jsonl.backup", `{"id":"x"}`+"\n")
	writeFile(t, dir, "beads.orig.jsonl", `{"id":"x"}`+"\n")
	writeFile(t, dir, "deletions.jsonl", `{"id":"x"}`+"\n")
	writeFile(t, dir, "notes.txt", "not jsonl\n")
	want := writeFile(t, dir, "beads.base.jsonl", `{"id":"x"}`+"\n")

	got, err := loader.FindJSONLPath(dir, nil)
	if err != nil {
		t.Fatalf("FindJSONLPath returned error: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFindJSONLPathWarnsOnMergeSides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "beads.left.jsonl", `{"id":"l"}`+"\n")
	writeFile(t, dir, "beads.right.jsonl", `{"id":"r"}`+"\n")
	writeFile(t, dir, "issues.jsonl", `{"id":"i"}`+"\n")

	var warnings []string
	got, err := loader.FindJSONLPath(dir, func(msg string) { warnings = append(warnings, msg) })
	if err != nil {
		t.Fatalf("FindJSONLPath returned error: %v", err)
	}
	if filepath.Base(got) != "issues.jsonl" {
		t.Errorf("merge sides must not win: %s", got)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "merge artifact") {
		t.Errorf("expected a merge artifact warning, got %v", warnings)
	}
}

func TestFindJSONLPathEmptyDirectory(t *testing.T) {
	if _, err := loader.FindJSONLPath(t.TempDir(), nil); err == nil {
		t.Fatal("expected error for directory without JSONL files")
	}
}

func TestFindJSONLPathNonExistentDirectory(t *testing.T) {
	if _, err := loader.FindJSONLPath(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestFindJSONLPathLastResortEmptyFile(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "custom.jsonl", "")

	got, err := loader.FindJSONLPath(dir, nil)
	if err != nil {
		t.Fatalf("FindJSONLPath returned error: %v", err)
	}
	if got != want {
		t.Errorf("expected empty candidate as last resort, got %s", got)
	}
}

func TestResolveBeadsDirEnvOverride(t *testing.T) {
	custom := t.TempDir()
	t.Setenv(loader.BeadsDirEnvVar, custom)

	got, err := loader.ResolveBeadsDir("/some/repo")
	if err != nil {
		t.Fatalf("ResolveBeadsDir returned error: %v", err)
	}
	if got != custom {
		t.Errorf("env override ignored: %s", got)
	}
}

func TestResolveBeadsDirDefault(t *testing.T) {
	t.Setenv(loader.BeadsDirEnvVar, "")
	repo := t.TempDir()

	got, err := loader.ResolveBeadsDir(repo)
	if err != nil {
		t.Fatalf("ResolveBeadsDir returned error: %v", err)
	}
	if got != filepath.Join(repo, ".beads") {
		t.Errorf("expected .beads under repo, got %s", got)
	}
}

func TestLoadEndToEnd(t *testing.T) {
	repo := t.TempDir()
	beadsDir := filepath.Join(repo, ".beads")
	if err := os.MkdirAll(beadsDir, 0o755); err != nil {
		t.Fatalf("creating beads dir: %v", err)
	}
	writeFile(t, beadsDir, "issues.jsonl",
		`{"id":"is-1","title":"One","status":"open","priority":1,"issue_type":"task"}
{"id":"is-2","title":"Two","status":"in_progress","priority":0,"issue_type":"bug"}
`)
	t.Setenv(loader.BeadsDirEnvVar, "")

	issues, err := loader.Load(repo, loader.Options{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
}
