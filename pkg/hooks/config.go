// Package hooks provides a hook system for strand event automation.
// Hooks are configured via .strand/hooks.yaml and run when watched issue
// data produces a notification-worthy transition (on-completed,
// on-blocked) or after a reload settles (post-reload).
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookPhase represents when a hook runs
type HookPhase string

const (
	// OnCompleted runs when an issue transitions into closed.
	OnCompleted HookPhase = "on-completed"
	// OnBlocked runs when an issue transitions into blocked with live blockers.
	OnBlocked HookPhase = "on-blocked"
	// PostReload runs after a dataset reload has been applied.
	PostReload HookPhase = "post-reload"
)

// Hook defines a single hook configuration
type Hook struct {
	Name    string            `yaml:"name" json:"name"`                             // Human-readable name
	Command string            `yaml:"command" json:"command"`                       // Shell command to run
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`   // Execution timeout (default: 30s)
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`           // Additional environment variables
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"` // "continue" (default) or "fail" (stop remaining hooks in the phase)
}

// Config holds all hook configurations
type Config struct {
	Hooks HooksByPhase `yaml:"hooks" json:"hooks"`
}

// HooksByPhase organizes hooks by their execution phase
type HooksByPhase struct {
	OnCompleted []Hook `yaml:"on-completed,omitempty" json:"on-completed,omitempty"`
	OnBlocked   []Hook `yaml:"on-blocked,omitempty" json:"on-blocked,omitempty"`
	PostReload  []Hook `yaml:"post-reload,omitempty" json:"post-reload,omitempty"`
}

// EventContext contains information passed to hooks via environment variables.
// Issue fields are empty for post-reload; IssueCount and Source are zero for
// per-issue events.
type EventContext struct {
	Event      string    // STRAND_EVENT: 'completed', 'became-blocked', or 'reload'
	IssueID    string    // STRAND_ISSUE_ID
	IssueTitle string    // STRAND_ISSUE_TITLE
	OldStatus  string    // STRAND_OLD_STATUS
	NewStatus  string    // STRAND_NEW_STATUS
	IssueCount int       // STRAND_ISSUE_COUNT: issues in the reloaded dataset
	Source     string    // STRAND_SOURCE: path of the data source that changed
	Timestamp  time.Time // STRAND_TIMESTAMP: event time (RFC3339)
}

// ToEnv converts event context to environment variables
func (c EventContext) ToEnv() []string {
	return []string{
		fmt.Sprintf("STRAND_EVENT=%s", c.Event),
		fmt.Sprintf("STRAND_ISSUE_ID=%s", c.IssueID),
		fmt.Sprintf("STRAND_ISSUE_TITLE=%s", c.IssueTitle),
		fmt.Sprintf("STRAND_OLD_STATUS=%s", c.OldStatus),
		fmt.Sprintf("STRAND_NEW_STATUS=%s", c.NewStatus),
		fmt.Sprintf("STRAND_ISSUE_COUNT=%d", c.IssueCount),
		fmt.Sprintf("STRAND_SOURCE=%s", c.Source),
		fmt.Sprintf("STRAND_TIMESTAMP=%s", c.Timestamp.Format(time.RFC3339)),
	}
}

// DefaultTimeout is the default hook execution timeout
const DefaultTimeout = 30 * time.Second

// Loader loads hook configuration from .strand/hooks.yaml
type Loader struct {
	projectDir string
	config     *Config
	warnings   []string
}

// LoaderOption configures the loader
type LoaderOption func(*Loader)

// WithProjectDir sets the project directory (default: current directory)
func WithProjectDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.projectDir = dir
	}
}

// NewLoader creates a new hook loader with options
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}

	for _, opt := range opts {
		opt(l)
	}

	if l.projectDir == "" {
		l.projectDir, _ = os.Getwd()
	}

	return l
}

// Load loads hook configuration from .strand/hooks.yaml
func (l *Loader) Load() error {
	configPath := filepath.Join(l.projectDir, ".strand", "hooks.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file means no hooks - this is OK
			l.config = &Config{}
			return nil
		}
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing %s: %w", configPath, err)
	}

	// Apply defaults and validate
	l.normalizeConfig(&config)

	l.config = &config
	return nil
}

// normalizeConfig applies defaults and validates hooks
func (l *Loader) normalizeConfig(config *Config) {
	config.Hooks.OnCompleted, l.warnings = normalizeHooks(config.Hooks.OnCompleted, OnCompleted, l.warnings)
	config.Hooks.OnBlocked, l.warnings = normalizeHooks(config.Hooks.OnBlocked, OnBlocked, l.warnings)
	config.Hooks.PostReload, l.warnings = normalizeHooks(config.Hooks.PostReload, PostReload, l.warnings)
}

// normalizeHooks applies defaults, drops empty commands, and accumulates warnings.
func normalizeHooks(hooks []Hook, phase HookPhase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i := range hooks {
		hook := hooks[i]
		if strings.TrimSpace(hook.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if hook.Timeout == 0 {
			hook.Timeout = DefaultTimeout
		}
		if hook.OnError == "" {
			// Hooks react to events that already happened, so there is
			// nothing to cancel. "fail" only stops later hooks in the phase.
			hook.OnError = "continue"
		}
		if hook.Name == "" {
			hook.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, hook)
	}
	return out, warnings
}

// Config returns the loaded configuration (or empty if not loaded)
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// HasHooks returns true if any hooks are configured
func (l *Loader) HasHooks() bool {
	if l.config == nil {
		return false
	}
	return len(l.config.Hooks.OnCompleted) > 0 ||
		len(l.config.Hooks.OnBlocked) > 0 ||
		len(l.config.Hooks.PostReload) > 0
}

// GetHooks returns hooks for a specific phase
func (l *Loader) GetHooks(phase HookPhase) []Hook {
	if l.config == nil {
		return nil
	}

	switch phase {
	case OnCompleted:
		return l.config.Hooks.OnCompleted
	case OnBlocked:
		return l.config.Hooks.OnBlocked
	case PostReload:
		return l.config.Hooks.PostReload
	default:
		return nil
	}
}

// Warnings returns any warnings from loading
func (l *Loader) Warnings() []string {
	return l.warnings
}

// LoadDefault creates a loader and loads with default settings
func LoadDefault() (*Loader, error) {
	loader := NewLoader()
	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// UnmarshalYAML implements custom YAML unmarshalling for Duration
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	// WARNING: This struct must match Hook definition exactly, except for Timeout which is string.
	// If you add a field to Hook, you MUST add it here too.
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}

	h.Name = dto.Name
	h.Command = dto.Command
	h.Env = dto.Env
	h.OnError = dto.OnError

	// Parse timeout
	if dto.Timeout != "" {
		d, err := time.ParseDuration(dto.Timeout)
		if err == nil {
			h.Timeout = d
		} else {
			// Fallback: try numeric value (assumed seconds)
			// This handles cases like "timeout: 30" which YAML decodes as string "30"
			// but time.ParseDuration rejects (missing unit).
			var seconds float64
			if _, scanErr := fmt.Sscanf(dto.Timeout, "%f", &seconds); scanErr == nil {
				h.Timeout = time.Duration(seconds * float64(time.Second))
			} else {
				return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
			}
		}
	}

	return nil
}
