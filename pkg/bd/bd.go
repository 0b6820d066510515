// Package bd shells out to the bd CLI for issue mutations. The viewer never
// writes .beads data itself; bd owns the canonical store, and callers pick
// up the result on the following reload.
package bd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Op names the bd subcommand an invocation ran.
type Op string

const (
	OpResolve Op = "resolve"
	OpUpdate  Op = "update"
	OpClose   Op = "close"
	OpCreate  Op = "create"
)

// DefaultTimeout bounds a single bd invocation.
const DefaultTimeout = 10 * time.Second

// stderr longer than this is cut; it feeds a one-line status message.
const maxStderrBytes = 2048

// MutationError reports a failed bd invocation. Stderr carries the CLI's
// own diagnostic, which is usually more useful than the exit code.
type MutationError struct {
	Op     Op
	ID     string // empty for create
	Stderr string
	Err    error
}

func (e *MutationError) Error() string {
	target := string(e.Op)
	if e.ID != "" {
		target += " " + e.ID
	}
	if e.Stderr != "" {
		return fmt.Sprintf("bd %s: %s", target, e.Stderr)
	}
	return fmt.Sprintf("bd %s: %v", target, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Client runs bd subcommands against one project's store.
type Client struct {
	bin     string
	dir     string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDir sets the working directory for bd, so it resolves the same
// .beads store the viewer loaded.
func WithDir(dir string) Option {
	return func(c *Client) { c.dir = dir }
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBinary overrides binary resolution entirely. Tests point this at a
// stub script.
func WithBinary(path string) Option {
	return func(c *Client) { c.bin = path }
}

// NewClient resolves the bd binary: STRAND_BD_BIN when set, otherwise bd
// on PATH. A missing binary surfaces here instead of on the first
// keypress that tries to mutate.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		bin:     os.Getenv("STRAND_BD_BIN"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bin == "" {
		c.bin = "bd"
	}
	path, err := exec.LookPath(c.bin)
	if err != nil {
		return nil, &MutationError{
			Op:  OpResolve,
			Err: fmt.Errorf("bd binary not found (install bd or set STRAND_BD_BIN): %w", err),
		}
	}
	c.bin = path
	return c, nil
}

// UpdateStatus runs `bd update <id> --status <status>`.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	return c.UpdateFields(ctx, id, map[string]string{"status": status})
}

// UpdatePriority runs `bd update <id> --priority <n>`.
func (c *Client) UpdatePriority(ctx context.Context, id string, priority int) error {
	return c.UpdateFields(ctx, id, map[string]string{"priority": strconv.Itoa(priority)})
}

// UpdateAssignee runs `bd update <id> --assignee <name>`.
func (c *Client) UpdateAssignee(ctx context.Context, id, assignee string) error {
	return c.UpdateFields(ctx, id, map[string]string{"assignee": assignee})
}

// UpdateFields applies several changed fields in one bd update call. Keys
// follow bd's flag names (labels must already travel as "set-labels").
// An empty patch is a no-op.
func (c *Client) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := append([]string{"update", id}, flagArgs(fields)...)
	return c.run(ctx, OpUpdate, id, args)
}

// CloseIssue runs `bd close <id>`, with --reason when one is given.
func (c *Client) CloseIssue(ctx context.Context, id, reason string) error {
	args := []string{"close", id}
	if strings.TrimSpace(reason) != "" {
		args = append(args, "--reason", reason)
	}
	return c.run(ctx, OpClose, id, args)
}

// CreateIssue runs `bd create <title> --<field> <value>...` from the
// non-empty fields. The title is positional; bd create has no --status
// flag, so a status field is dropped and the new issue opens as open.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]string) error {
	title := strings.TrimSpace(fields["title"])
	if title == "" {
		return &MutationError{Op: OpCreate, Err: fmt.Errorf("title is required")}
	}
	rest := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "title" || k == "status" || v == "" {
			continue
		}
		rest[k] = v
	}
	args := append([]string{"create", title}, flagArgs(rest)...)
	return c.run(ctx, OpCreate, "", args)
}

// flagArgs renders fields as --key value pairs in a stable order.
func flagArgs(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, "--"+k, fields[k])
	}
	return args
}

func (c *Client) run(ctx context.Context, op Op, id string, args []string) error {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.bin, args...)
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s", c.timeout)
		}
		// Some bd errors land on stdout.
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = strings.TrimSpace(stdout.String())
		}
		if len(diag) > maxStderrBytes {
			diag = diag[:maxStderrBytes]
		}
		return &MutationError{Op: op, ID: id, Stderr: diag, Err: err}
	}
	return nil
}
