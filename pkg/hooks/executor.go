package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/strandview/strand/pkg/notify"
)

// maxCaptureBytes bounds how much hook output is kept per stream.
const maxCaptureBytes = 8192

// Result records the outcome of a single hook execution
type Result struct {
	Hook     string // hook name
	Phase    HookPhase
	Success  bool
	Stdout   string // trimmed and truncated
	Stderr   string // trimmed and truncated
	Duration time.Duration
	Err      error
}

// Runner executes configured hooks for notification events. Hook failures
// are recorded in Results but never propagate: a broken hook must not take
// down the viewer.
type Runner struct {
	config *Config

	mu      sync.Mutex
	results []Result
}

// NewRunner creates a runner for the given configuration
func NewRunner(config *Config) *Runner {
	if config == nil {
		config = &Config{}
	}
	return &Runner{config: config}
}

// NewRunnerFor loads .strand/hooks.yaml under projectDir and returns a ready
// runner plus any loader warnings. A nil runner with nil error means hooks
// are disabled or none are configured.
func NewRunnerFor(projectDir string, disabled bool) (*Runner, []string, error) {
	if disabled {
		return nil, nil, nil
	}

	loader := NewLoader(WithProjectDir(projectDir))
	if err := loader.Load(); err != nil {
		return nil, loader.Warnings(), err
	}
	if !loader.HasHooks() {
		return nil, loader.Warnings(), nil
	}
	return NewRunner(loader.Config()), loader.Warnings(), nil
}

// Run executes the hooks configured for the phase, in order. A failing hook
// with on_error "fail" stops the rest of its phase; with "continue" (the
// default) later hooks still run. Either way the failure stays in Results
// and never reaches the caller as an error.
func (r *Runner) Run(ctx context.Context, phase HookPhase, ectx EventContext) []Result {
	var hooks []Hook
	switch phase {
	case OnCompleted:
		hooks = r.config.Hooks.OnCompleted
	case OnBlocked:
		hooks = r.config.Hooks.OnBlocked
	case PostReload:
		hooks = r.config.Hooks.PostReload
	}
	if len(hooks) == 0 {
		return nil
	}

	results := make([]Result, 0, len(hooks))
	for _, hook := range hooks {
		res := r.runHook(ctx, phase, hook, ectx)
		results = append(results, res)
		if !res.Success && hook.OnError == "fail" {
			break
		}
	}

	r.mu.Lock()
	r.results = append(r.results, results...)
	r.mu.Unlock()

	return results
}

// runHook executes one hook through `sh -c` with the event context in the
// environment and the hook's timeout enforced.
func (r *Runner) runHook(ctx context.Context, phase HookPhase, hook Hook, ectx EventContext) Result {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", hook.Command)

	env := append(os.Environ(), ectx.ToEnv()...)
	for k, v := range hook.Env {
		// Values may reference the parent environment, e.g. "${HOME}/log".
		env = append(env, k+"="+os.ExpandEnv(v))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if cctx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("hook %q timed out after %s", hook.Name, timeout)
	} else if err != nil {
		err = fmt.Errorf("hook %q: %w", hook.Name, err)
	}

	return Result{
		Hook:     hook.Name,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   truncate(strings.TrimSpace(stdout.String()), maxCaptureBytes),
		Stderr:   truncate(strings.TrimSpace(stderr.String()), maxCaptureBytes),
		Duration: duration,
		Err:      err,
	}
}

// Results returns all recorded hook outcomes in execution order
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// RunEvent maps a notification event to its hook phase and runs it. Events
// with no corresponding phase are ignored.
func (r *Runner) RunEvent(ctx context.Context, ev notify.Event) []Result {
	phase, ectx, ok := ContextForEvent(ev)
	if !ok {
		return nil
	}
	return r.Run(ctx, phase, ectx)
}

// ContextForEvent builds the hook phase and environment context for a
// notification event
func ContextForEvent(ev notify.Event) (HookPhase, EventContext, bool) {
	var phase HookPhase
	switch ev.Kind {
	case notify.EventCompleted:
		phase = OnCompleted
	case notify.EventBecameBlocked:
		phase = OnBlocked
	default:
		return "", EventContext{}, false
	}

	return phase, EventContext{
		Event:      string(ev.Kind),
		IssueID:    ev.Issue.ID,
		IssueTitle: ev.Issue.Title,
		OldStatus:  string(ev.OldStatus),
		NewStatus:  string(ev.NewStatus),
		Timestamp:  time.Now(),
	}, true
}

// ReloadContext builds the environment context for a post-reload phase
func ReloadContext(issueCount int, source string) EventContext {
	return EventContext{
		Event:      "reload",
		IssueCount: issueCount,
		Source:     source,
		Timestamp:  time.Now(),
	}
}

// truncate shortens s to at most n bytes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
