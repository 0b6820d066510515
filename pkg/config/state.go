package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/strandview/strand/pkg/query"
)

// ViewState is the per-project view state persisted between runs. It keeps
// the sort choice per board column so reopening a project restores the
// ordering the user left it in.
type ViewState struct {
	Sorts map[string]query.SortSpec `yaml:"sorts,omitempty"`
}

// ViewStatePath maps a project path to its state file. The file name embeds
// a short hash of the absolute path so distinct projects never collide.
func ViewStatePath(projectPath string) string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		abs = projectPath
	}
	h := fnv.New32a()
	h.Write([]byte(abs))
	return filepath.Join(dir, fmt.Sprintf("view-%08x.yaml", h.Sum32()))
}

// LoadViewState reads the state for a project. Missing files yield an empty
// state without error.
func LoadViewState(projectPath string) (ViewState, error) {
	var st ViewState
	path := ViewStatePath(projectPath)
	if path == "" {
		return st, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("reading view state: %w", err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parsing view state: %w", err)
	}
	return st, nil
}

// SaveViewState writes the state for a project.
func SaveViewState(projectPath string, st ViewState) error {
	path := ViewStatePath(projectPath)
	if path == "" {
		return fmt.Errorf("cannot determine state directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling view state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing view state: %w", err)
	}
	return nil
}
