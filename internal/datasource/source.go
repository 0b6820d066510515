// Package datasource discovers, validates, and selects the freshest usable
// beads data source. A repo can carry several at once (SQLite database,
// worktree JSONL exports, local JSONL files); readers pick one and the rest
// are only consulted for consistency checks.
package datasource

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/strandview/strand/pkg/loader"
)

// SourceType identifies where issue data comes from.
type SourceType string

const (
	SourceTypeSQLite        SourceType = "sqlite"
	SourceTypeJSONLWorktree SourceType = "jsonl_worktree"
	SourceTypeJSONLLocal    SourceType = "jsonl_local"
)

// Priority when modification times tie. The database reflects bd's most
// recent writes, so it outranks its own JSONL exports.
const (
	PrioritySQLite        = 100
	PriorityJSONLWorktree = 80
	PriorityJSONLLocal    = 50
)

// DataSource is one discovered candidate.
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"`
	ModTime  time.Time  `json:"mod_time"`
	Size     int64      `json:"size"`

	// Filled in by validation.
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	IssueCount      int    `json:"issue_count"`
}

func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, issues=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.IssueCount, status)
}

// Label is the short form for status lines, just the file name. String
// carries the full diagnostic detail and is too wide for a header.
func (s DataSource) Label() string {
	if s.Path == "" {
		return string(s.Type)
	}
	return filepath.Base(s.Path)
}

// DiscoveryOptions configures source discovery.
type DiscoveryOptions struct {
	// BeadsDir is the .beads directory; auto-detected when empty.
	BeadsDir string
	// RepoPath is the repository root; working directory when empty.
	RepoPath string
	// Validate runs validation on every discovered source.
	Validate bool
	// IncludeInvalid keeps sources that failed validation in the result.
	IncludeInvalid bool
	// Logf receives discovery trace lines when non-nil.
	Logf func(format string, args ...any)
}

func (o DiscoveryOptions) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// DiscoverSources finds every candidate source under the beads directory and
// sorts them freshest first, priority breaking mtime ties.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	beadsDir := opts.BeadsDir
	if beadsDir == "" {
		var err error
		beadsDir, err = loader.ResolveBeadsDir(opts.RepoPath)
		if err != nil {
			return nil, err
		}
	}
	opts.logf("discovering sources in %s", beadsDir)

	var sources []DataSource
	sources = append(sources, discoverSQLite(beadsDir, opts)...)

	local, err := discoverLocalJSONL(beadsDir, opts)
	if err != nil {
		opts.logf("local JSONL discovery: %v", err)
	}
	sources = append(sources, local...)

	worktree, err := discoverWorktreeJSONL(opts.RepoPath, opts)
	if err != nil {
		opts.logf("worktree discovery: %v", err)
	}
	sources = append(sources, worktree...)

	if opts.Validate {
		ValidateAll(sources)
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				} else {
					opts.logf("dropping invalid source %s: %s", s.Path, s.ValidationError)
				}
			}
			sources = valid
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	opts.logf("discovered %d sources", len(sources))
	return sources, nil
}

func discoverSQLite(beadsDir string, opts DiscoveryOptions) []DataSource {
	dbPath := filepath.Join(beadsDir, "beads.db")
	info, err := os.Stat(dbPath)
	if err != nil {
		return nil
	}
	opts.logf("found sqlite %s (mod=%s)", dbPath, info.ModTime().Format(time.RFC3339))
	return []DataSource{{
		Type:     SourceTypeSQLite,
		Path:     dbPath,
		Priority: PrioritySQLite,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}}
}

func discoverLocalJSONL(beadsDir string, opts DiscoveryOptions) ([]DataSource, error) {
	entries, err := os.ReadDir(beadsDir)
	if err != nil {
		return nil, fmt.Errorf("reading beads directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		// Same exclusions the loader applies when picking a file directly.
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.Contains(name, ".merge") ||
			name == "deletions.jsonl" ||
			strings.HasPrefix(name, "beads.left") ||
			strings.HasPrefix(name, "beads.right") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(beadsDir, name)
		opts.logf("found local jsonl %s (mod=%s)", path, info.ModTime().Format(time.RFC3339))
		sources = append(sources, DataSource{
			Type:     SourceTypeJSONLLocal,
			Path:     path,
			Priority: PriorityJSONLLocal,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
	}
	return sources, nil
}

// discoverWorktreeJSONL looks for issues.jsonl exports under the git dir's
// beads-worktrees tree. Outside a git repo this quietly finds nothing.
func discoverWorktreeJSONL(repoPath string, opts DiscoveryOptions) ([]DataSource, error) {
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
	}

	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, nil
	}
	gitDir := strings.TrimSpace(string(out))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(repoPath, gitDir)
	}

	worktreesDir := filepath.Join(gitDir, "beads-worktrees")
	entries, err := os.ReadDir(worktreesDir)
	if err != nil {
		return nil, nil
	}

	var sources []DataSource
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		jsonlPath := filepath.Join(worktreesDir, e.Name(), "issues.jsonl")
		info, err := os.Stat(jsonlPath)
		if err != nil {
			continue
		}
		opts.logf("found worktree jsonl %s (mod=%s)", jsonlPath, info.ModTime().Format(time.RFC3339))
		sources = append(sources, DataSource{
			Type:     SourceTypeJSONLWorktree,
			Path:     jsonlPath,
			Priority: PriorityJSONLWorktree,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
	}
	return sources, nil
}
