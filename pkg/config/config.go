// Package config handles strand's configuration and per-project view state.
//
// Files follow the XDG Base Directory specification:
//   - Config: ~/.config/strand/config.yaml
//   - State:  ~/.local/state/strand/ (per-project sort state)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/strandview/strand/pkg/query"
)

// Project is a registered project root.
type Project struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// WatcherConfig tunes file watching. Zero values defer to the watcher's
// own defaults.
type WatcherConfig struct {
	PollIntervalMS int  `yaml:"poll_interval_ms,omitempty"`
	DebounceMS     int  `yaml:"debounce_ms,omitempty"`
	ForcePolling   bool `yaml:"force_polling,omitempty"`
}

// PollInterval returns the configured interval, or zero when unset.
func (w WatcherConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMS) * time.Millisecond
}

// Debounce returns the configured window, or zero when unset.
func (w WatcherConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Config is the top-level strand configuration.
type Config struct {
	// Theme selects the glamour/lipgloss rendering theme: auto, dark, light.
	Theme string `yaml:"theme,omitempty"`
	// DefaultSort is "field:order", e.g. "priority:asc".
	DefaultSort string         `yaml:"default_sort,omitempty"`
	Watcher     WatcherConfig  `yaml:"watcher,omitempty"`
	Projects    []Project      `yaml:"projects,omitempty"`
	Favorites   map[int]string `yaml:"favorites,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Theme:       "auto",
		DefaultSort: "priority:asc",
		Favorites:   make(map[int]string),
	}
}

// SortSpec parses DefaultSort. Unknown fields or orders fall back to the
// query defaults rather than erroring; a typo in the config file is not
// worth refusing to start over.
func (c Config) SortSpec() query.SortSpec {
	spec := query.DefaultSortSpec()
	if c.DefaultSort == "" {
		return spec
	}
	parts := strings.SplitN(c.DefaultSort, ":", 2)
	spec.Field = query.Field(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		spec.Order = query.Order(strings.TrimSpace(parts[1]))
	} else {
		spec.Order = ""
	}
	return spec.Normalize()
}

// ConfigDir returns the XDG config directory for strand.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "strand")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "strand")
}

// DataDir returns the XDG data directory for strand.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "strand")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "strand")
}

// StateDir returns the XDG state directory for strand.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "strand")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "strand")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config from the XDG location, or returns defaults when the
// file does not exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. A missing file yields the
// defaults without error.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}
	for i := range cfg.Projects {
		cfg.Projects[i].Path = expandHome(cfg.Projects[i].Path)
	}
	return cfg, nil
}

// Save writes the config to the XDG location.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path, creating directories as
// needed.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// FindProject returns the named project, matching case-insensitively.
func (c Config) FindProject(name string) *Project {
	for i := range c.Projects {
		if strings.EqualFold(c.Projects[i].Name, name) {
			return &c.Projects[i]
		}
	}
	return nil
}

// FavoriteProject returns the project bound to number key n, or nil.
func (c Config) FavoriteProject(n int) *Project {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindProject(name)
}

// SetFavorite binds a project name to a number key; an empty name clears it.
func (c *Config) SetFavorite(n int, projectName string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if projectName == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = projectName
	}
}

// ResolvedPath returns the project path with ~ expanded.
func (p Project) ResolvedPath() string {
	return expandHome(p.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
