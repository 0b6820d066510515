package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/strandview/strand/pkg/model"
)

func depIDs(issue *model.Issue) []string {
	ids := make([]string, 0, len(issue.Dependencies))
	for _, d := range issue.Dependencies {
		ids = append(ids, d.DependsOnID)
	}
	return ids
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := ToJSONL(NewDefault().RandomDAG(20, 0.3))
	b := ToJSONL(NewDefault().RandomDAG(20, 0.3))
	if a != b {
		t.Errorf("same config must yield identical fixtures")
	}
}

func TestChain(t *testing.T) {
	tests := []struct {
		size      int
		wantEdges int
	}{
		{1, 0},
		{2, 1},
		{5, 4},
	}
	for _, tt := range tests {
		issues := QuickChain(tt.size)
		if len(issues) != tt.size {
			t.Errorf("Chain(%d): %d issues", tt.size, len(issues))
		}
		edges := 0
		for _, is := range issues {
			edges += len(is.Dependencies)
		}
		if edges != tt.wantEdges {
			t.Errorf("Chain(%d): %d edges, want %d", tt.size, edges, tt.wantEdges)
		}
		if tt.size > 1 {
			last := issues[tt.size-1]
			if got := depIDs(last); len(got) != 1 || got[0] != issues[tt.size-2].ID {
				t.Errorf("Chain(%d): tail deps = %v", tt.size, got)
			}
		}
	}
}

func TestStarSpokesDependOnHub(t *testing.T) {
	issues := NewDefault().Star(3)
	if len(issues) != 4 {
		t.Fatalf("issues = %d, want 4", len(issues))
	}
	hub := issues[0]
	if len(hub.Dependencies) != 0 {
		t.Errorf("hub must not depend on anything")
	}
	for _, spoke := range issues[1:] {
		if got := depIDs(spoke); len(got) != 1 || got[0] != hub.ID {
			t.Errorf("spoke %s deps = %v", spoke.ID, got)
		}
	}
}

func TestDiamondShape(t *testing.T) {
	issues := QuickDiamond(2)
	if len(issues) != 4 {
		t.Fatalf("issues = %d, want 4", len(issues))
	}
	top, bottom := issues[0], issues[3]
	if len(depIDs(top)) != 2 {
		t.Errorf("top deps = %v, want both mids", depIDs(top))
	}
	if len(bottom.Dependencies) != 0 {
		t.Errorf("bottom is the root dependency, deps = %v", depIDs(bottom))
	}
	for _, mid := range issues[1:3] {
		if got := depIDs(mid); len(got) != 1 || got[0] != bottom.ID {
			t.Errorf("mid %s deps = %v", mid.ID, got)
		}
	}
}

func TestTreeCounts(t *testing.T) {
	issues := QuickTree(2, 2)
	if len(issues) != 7 {
		t.Fatalf("issues = %d, want 7", len(issues))
	}
	edges := 0
	for _, is := range issues {
		edges += len(is.Dependencies)
	}
	if edges != 6 {
		t.Errorf("edges = %d, want 6", edges)
	}
}

func TestCycleWraps(t *testing.T) {
	issues := QuickCycle(3)
	for i, is := range issues {
		want := issues[(i+1)%3].ID
		if got := depIDs(is); len(got) != 1 || got[0] != want {
			t.Errorf("issue %s deps = %v, want [%s]", is.ID, got, want)
		}
	}
}

func TestSelfLoop(t *testing.T) {
	issues := NewDefault().SelfLoop()
	if len(issues) != 1 {
		t.Fatalf("issues = %d", len(issues))
	}
	if got := depIDs(issues[0]); len(got) != 1 || got[0] != issues[0].ID {
		t.Errorf("deps = %v, want self", got)
	}
}

func TestDisconnectedComponentsDoNotCross(t *testing.T) {
	issues := NewDefault().Disconnected(3, 4)
	if len(issues) != 12 {
		t.Fatalf("issues = %d, want 12", len(issues))
	}
	for _, is := range issues {
		comp := strings.SplitN(strings.TrimPrefix(is.ID, "test-"), "-", 2)[0]
		for _, dep := range depIDs(is) {
			if !strings.HasPrefix(dep, "test-"+comp+"-") {
				t.Errorf("%s depends on %s across components", is.ID, dep)
			}
		}
	}
}

func TestRandomDAGIsAcyclic(t *testing.T) {
	issues := NewDefault().RandomDAG(15, 0.5)
	index := make(map[string]int, len(issues))
	for i, is := range issues {
		index[is.ID] = i
	}
	for i, is := range issues {
		for _, dep := range depIDs(is) {
			if index[dep] >= i {
				t.Errorf("%s depends forward on %s", is.ID, dep)
			}
		}
	}
}

func TestConfigKnobs(t *testing.T) {
	gen := New(Config{
		Seed:        7,
		IDPrefix:    "fx",
		StatusMix:   []model.Status{model.StatusClosed},
		WithLabels:  true,
		WithMinutes: true,
	})
	issues := gen.Chain(5)
	for _, is := range issues {
		if !strings.HasPrefix(is.ID, "fx-") {
			t.Errorf("id %s missing prefix", is.ID)
		}
		if is.Status != model.StatusClosed {
			t.Errorf("status = %s, want closed", is.Status)
		}
		if len(is.Labels) == 0 {
			t.Errorf("labels missing on %s", is.ID)
		}
		if is.EstimatedMinutes == nil || *is.EstimatedMinutes < 30 {
			t.Errorf("minutes missing on %s", is.ID)
		}
	}
}

func TestDependenciesCarryOwnerID(t *testing.T) {
	for _, is := range QuickChain(4) {
		for _, dep := range is.Dependencies {
			if dep.IssueID != is.ID {
				t.Errorf("dependency owner = %q, want %q", dep.IssueID, is.ID)
			}
			if dep.Type != model.DepBlocks {
				t.Errorf("dependency type = %q", dep.Type)
			}
		}
	}
}

func TestWriteBeadsFile(t *testing.T) {
	dir := t.TempDir()
	issues := QuickChain(3)
	path := WriteBeadsFile(t, dir, issues)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("lines = %d, want 3", len(lines))
	}
	if !strings.HasSuffix(path, ".beads/issues.jsonl") {
		t.Errorf("path = %s", path)
	}
}

func TestFindAndIDs(t *testing.T) {
	issues := QuickChain(3)
	if got := Find(issues, issues[1].ID); got != issues[1] {
		t.Errorf("Find returned %v", got)
	}
	if got := Find(issues, "nope"); got != nil {
		t.Errorf("Find(nope) = %v, want nil", got)
	}
	ids := IDs(issues)
	if len(ids) != 3 || ids[0] != issues[0].ID {
		t.Errorf("IDs = %v", ids)
	}
}
