package datasource

import (
	"fmt"

	"github.com/strandview/strand/pkg/loader"
	"github.com/strandview/strand/pkg/model"
)

// LoadResult is a completed load: the issues plus where they came from.
type LoadResult struct {
	Issues   []*model.Issue
	Source   DataSource
	Warnings []string
}

// Load discovers every source for the repo, validates them, and loads from
// the freshest valid one. When discovery finds nothing it falls back to a
// direct JSONL load so a bare .beads/issues.jsonl still works.
func Load(repoPath string, logf func(format string, args ...any)) (*LoadResult, error) {
	beadsDir, err := loader.ResolveBeadsDir(repoPath)
	if err != nil {
		return nil, err
	}
	return LoadFromDir(beadsDir, repoPath, logf)
}

// LoadFromDir is Load with a known beads directory.
func LoadFromDir(beadsDir, repoPath string, logf func(format string, args ...any)) (*LoadResult, error) {
	result, smartErr := loadSmart(beadsDir, repoPath, logf)
	if smartErr == nil {
		return result, nil
	}

	var warnings []string
	warn := func(msg string) { warnings = append(warnings, msg) }

	jsonlPath, err := loader.FindJSONLPath(beadsDir, warn)
	if err != nil {
		// Surface the discovery failure; the fallback had nothing either.
		return nil, smartErr
	}
	issues, err := loader.LoadFile(jsonlPath, loader.Options{Warn: warn})
	if err != nil {
		return nil, err
	}
	return &LoadResult{
		Issues: issues,
		Source: DataSource{
			Type:     SourceTypeJSONLLocal,
			Path:     jsonlPath,
			Priority: PriorityJSONLLocal,
			Valid:    true,
		},
		Warnings: warnings,
	}, nil
}

func loadSmart(beadsDir, repoPath string, logf func(format string, args ...any)) (*LoadResult, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		BeadsDir: beadsDir,
		RepoPath: repoPath,
		Validate: true,
		Logf:     logf,
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNoSource
	}

	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, err
	}

	var warnings []string
	issues, err := LoadFromSource(best, func(msg string) { warnings = append(warnings, msg) })
	if err != nil {
		return nil, err
	}
	return &LoadResult{Issues: issues, Source: best, Warnings: warnings}, nil
}

// LoadFromSource loads issues from one specific source.
func LoadFromSource(source DataSource, warn func(string)) ([]*model.Issue, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadIssues()

	case SourceTypeJSONLLocal, SourceTypeJSONLWorktree:
		return loader.LoadFile(source.Path, loader.Options{Warn: warn})

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
