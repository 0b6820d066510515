package main_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestRobotSnapshotJSON(t *testing.T) {
	dir := writeProject(t, fixtureJSONL)

	cmd := exec.Command(strandBinary(t), "--robot", "--robot-format", "json")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("robot json failed: %v\nout=%s", err, out)
	}

	var payload map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	for _, key := range []string{"generated_at", "data_hash", "source", "status_counts", "issues"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("payload missing %q", key)
		}
	}

	issues, ok := payload["issues"].([]any)
	if !ok || len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %v", payload["issues"])
	}

	// st-2 waits on the open st-1, so its effective status is blocked.
	var sawBlocked bool
	for _, raw := range issues {
		issue, ok := raw.(map[string]any)
		if !ok || issue["id"] != "st-2" {
			continue
		}
		sawBlocked = issue["status"] == "blocked"
	}
	if !sawBlocked {
		t.Fatalf("expected st-2 to be reported as blocked: %s", out)
	}
}

func TestRobotModeEngagesOnPipedStdout(t *testing.T) {
	dir := writeProject(t, fixtureJSONL)

	// No --robot flag: a piped stdout alone must select the plain snapshot.
	cmd := exec.Command(strandBinary(t))
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("piped run failed: %v\nout=%s", err, out)
	}

	text := string(out)
	if !strings.Contains(text, "strand snapshot") {
		t.Fatalf("expected the plain snapshot header, got:\n%s", text)
	}
	if strings.Contains(text, "\x1b") {
		t.Fatalf("piped output must not contain ANSI escapes:\n%q", text)
	}
	if !strings.Contains(text, "(blocked by: st-1)") {
		t.Fatalf("expected the blocker annotation, got:\n%s", text)
	}
}

func TestExportGraphWritesSVG(t *testing.T) {
	dir := writeProject(t, fixtureJSONL)
	outPath := filepath.Join(t.TempDir(), "graph.svg")

	cmd := exec.Command(strandBinary(t), "--export-graph", outPath)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("export failed: %v\nout=%s", err, out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("expected SVG markup in %s", outPath)
	}
}

func TestCheckSourcesSingleSource(t *testing.T) {
	dir := writeProject(t, fixtureJSONL)

	cmd := exec.Command(strandBinary(t), "--check-sources")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("check-sources failed: %v\nout=%s", err, out)
	}
	if !strings.Contains(string(out), "source") {
		t.Fatalf("expected a source listing, got:\n%s", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := exec.Command(strandBinary(t), "--version").Output()
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.HasPrefix(string(out), "strand ") {
		t.Fatalf("expected a version line, got %q", out)
	}
}
