//go:build ignore

// generate_testdata.go regenerates the benchmark fixture corpus.
// Usage: go run scripts/generate_testdata.go
//
// Creates under tests/testdata/benchmark/:
//
//	small.jsonl   (100 issues)
//	medium.jsonl  (1000 issues)
//	large.jsonl   (5000 issues)
//
// Each file is a sparse random DAG seeded by its size, so reruns produce
// byte-identical output.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/strandview/strand/pkg/model"
	"github.com/strandview/strand/pkg/testutil"
)

var datasets = []struct {
	name string
	size int
}{
	{"small", 100},
	{"medium", 1000},
	{"large", 5000},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		gen := testutil.New(testutil.Config{
			Seed:        int64(ds.size),
			IDPrefix:    "bench",
			StatusMix:   []model.Status{model.StatusOpen, model.StatusInProgress, model.StatusClosed},
			TypeMix:     []model.IssueType{model.TypeTask, model.TypeBug, model.TypeFeature, model.TypeEpic},
			WithLabels:  true,
			WithMinutes: true,
		})
		issues := gen.RandomDAG(ds.size, densityFor(ds.size))
		jsonl := testutil.ToJSONL(issues)

		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := os.WriteFile(outputPath, []byte(jsonl), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d issues, %d bytes)\n", outputPath, ds.size, len(jsonl))
	}
}

// densityFor scales edge chance inversely with size so the edge count stays
// roughly linear instead of quadratic.
func densityFor(size int) float64 {
	switch {
	case size <= 100:
		return 0.1
	case size <= 1000:
		return 0.01
	default:
		return 0.002
	}
}
