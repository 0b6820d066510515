// Package loader reads beads JSONL issue files: locating the right file
// under a .beads directory and parsing it line by line with per-record
// recovery. A bad line costs a warning, never the load.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/strandview/strand/pkg/model"
)

// BeadsDirEnvVar overrides beads directory discovery when set.
const BeadsDirEnvVar = "BEADS_DIR"

// PreferredNames is the lookup order for beads data files. issues.jsonl is
// canonical upstream; the others are backward-compat and merge fallbacks.
var PreferredNames = []string{"issues.jsonl", "beads.jsonl", "beads.base.jsonl"}

// DefaultMaxLineBytes caps a single JSONL line (10MB). Longer lines are
// skipped with a warning.
const DefaultMaxLineBytes = 1024 * 1024 * 10

// ResolveBeadsDir returns the beads directory: BEADS_DIR when set,
// otherwise .beads under repoPath (or the working directory).
func ResolveBeadsDir(repoPath string) (string, error) {
	if envDir := os.Getenv(BeadsDirEnvVar); envDir != "" {
		return envDir, nil
	}
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
	}
	return filepath.Join(repoPath, ".beads"), nil
}

// FindJSONLPath picks the data file inside a beads directory. Backup files,
// merge artifacts, and the deletion manifest are never candidates; merge
// conflict sides (beads.left/right) additionally raise a warning since they
// signal an unfinished merge.
func FindJSONLPath(beadsDir string, warn func(string)) (string, error) {
	entries, err := os.ReadDir(beadsDir)
	if err != nil {
		return "", fmt.Errorf("reading beads directory: %w", err)
	}

	var candidates []string
	var mergeArtifacts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.Contains(name, ".merge") ||
			name == "deletions.jsonl" {
			continue
		}
		// beads.left / beads.right are the OURS/THEIRS sides of a git merge.
		if strings.HasPrefix(name, "beads.left") || strings.HasPrefix(name, "beads.right") {
			mergeArtifacts = append(mergeArtifacts, name)
			continue
		}
		candidates = append(candidates, name)
	}

	if len(mergeArtifacts) > 0 && warn != nil {
		warn(fmt.Sprintf("merge artifact files detected: %s; consider running 'bd clean'",
			strings.Join(mergeArtifacts, ", ")))
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no beads JSONL file found in %s", beadsDir)
	}

	for _, preferred := range PreferredNames {
		for _, name := range candidates {
			if name != preferred {
				continue
			}
			path := filepath.Join(beadsDir, name)
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				return path, nil
			}
		}
	}
	// No preferred name matched; take the first non-empty candidate.
	for _, name := range candidates {
		path := filepath.Join(beadsDir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	return filepath.Join(beadsDir, candidates[0]), nil
}

// Options configures parsing.
type Options struct {
	// Warn receives non-fatal problems (malformed lines, oversized lines,
	// invalid records). Nil discards them.
	Warn func(string)
	// MaxLineBytes caps line length; 0 means DefaultMaxLineBytes.
	MaxLineBytes int
	// Filter keeps only matching issues when non-nil.
	Filter func(*model.Issue) bool
}

// Load reads issues from the beads directory for repoPath, locating the
// JSONL file automatically.
func Load(repoPath string, opts Options) ([]*model.Issue, error) {
	beadsDir, err := ResolveBeadsDir(repoPath)
	if err != nil {
		return nil, err
	}
	path, err := FindJSONLPath(beadsDir, opts.Warn)
	if err != nil {
		return nil, err
	}
	return LoadFile(path, opts)
}

// LoadFile reads and parses one JSONL file.
func LoadFile(path string, opts Options) ([]*model.Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no beads issues found at %s", path)
		}
		return nil, fmt.Errorf("opening issues file: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse decodes JSONL issues from a reader. Malformed JSON, oversized
// lines, and records failing validation are skipped with a warning;
// tombstoned records are dropped silently since they are deletions, not
// errors. Issue order follows file order.
func Parse(r io.Reader, opts Options) ([]*model.Issue, error) {
	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	warn := opts.Warn
	if warn == nil {
		warn = func(string) {}
	}

	reader := bufio.NewReaderSize(r, maxLine)
	var issues []*model.Issue

	lineNum := 0
	for {
		lineNum++
		// ReadLine sets isPrefix when a line exceeds the buffer; the
		// remainder has to be drained before the next record.
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("reading issues stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxLine))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}
		if len(line) == 0 {
			continue
		}
		if lineNum == 1 {
			line = stripBOM(line)
		}

		issue := new(model.Issue)
		if err := json.Unmarshal(line, issue); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}

		issue.Status = model.NormalizeStatus(string(issue.Status))
		if issue.Status == model.StatusTombstone {
			continue
		}
		if err := issue.Validate(); err != nil {
			warn(fmt.Sprintf("skipping invalid issue on line %d: %v", lineNum, err))
			continue
		}
		// Embedded dependencies usually omit issue_id since the owner is
		// implied by position.
		for _, dep := range issue.Dependencies {
			if dep != nil && dep.IssueID == "" {
				dep.IssueID = issue.ID
			}
		}
		if opts.Filter != nil && !opts.Filter(issue) {
			continue
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// stripBOM removes a UTF-8 byte order mark.
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
