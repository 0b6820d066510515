package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strandview/strand/internal/datasource"
	"github.com/strandview/strand/pkg/bd"
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/debug"
	"github.com/strandview/strand/pkg/export"
	"github.com/strandview/strand/pkg/hooks"
	"github.com/strandview/strand/pkg/notify"
	"github.com/strandview/strand/pkg/watcher"
)

// FileChangedMsg is sent when the backing store changed on disk.
type FileChangedMsg struct{}

// ReloadedMsg carries the result of a dataset reload. On error the previous
// dataset stays in place and Err is surfaced in the footer.
type ReloadedMsg struct {
	Dataset  *dataset.Dataset
	Source   string
	Warnings []string
	Err      error
}

// BdResultMsg reports a completed bd invocation. Success triggers a reload;
// the views never apply mutations optimistically.
type BdResultMsg struct {
	Op  bd.Op
	ID  string
	Err error
}

// ExportDoneMsg reports a finished graph snapshot export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// ReadyTimeoutMsg fires shortly after startup so the UI leaves the loading
// screen even when the terminal is slow to report its size (tmux, SSH).
type ReadyTimeoutMsg struct{}

// flashExpiredMsg clears the transient footer message. The sequence number
// guards against an old timer wiping a newer flash.
type flashExpiredMsg struct{ seq int }

// autoCloseMsg quits the program, used by the test harness hook.
type autoCloseMsg struct{}

const flashDuration = 4 * time.Second

// WatchFileCmd blocks on the watcher's change channel and converts the next
// signal into a FileChangedMsg. Re-issue it after every handled change.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.Changed(); !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}

// ReadyTimeoutCmd sends ReadyTimeoutMsg after 100ms.
func ReadyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return ReadyTimeoutMsg{}
	})
}

// ReloadCmd loads a fresh dataset from the repo's best source.
func ReloadCmd(repoPath string) tea.Cmd {
	return func() tea.Msg {
		done := debug.Span("reload")
		defer done()

		result, err := datasource.Load(repoPath, debug.Log)
		if err != nil {
			return ReloadedMsg{Err: err}
		}
		ds := dataset.New(result.Issues, dataset.CollectEdges(result.Issues))
		ds.Warnings = len(result.Warnings)
		return ReloadedMsg{
			Dataset:  ds,
			Source:   result.Source.Label(),
			Warnings: result.Warnings,
		}
	}
}

// dispatchHooksCmd runs the event hooks and the post-reload hooks off the
// event loop. Hook failures are logged and never surface as UI errors.
func dispatchHooksCmd(runner *hooks.Runner, events []notify.Event, issueCount int, source string) tea.Cmd {
	if runner == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		for _, ev := range events {
			for _, res := range runner.RunEvent(ctx, ev) {
				if res.Err != nil {
					debug.Log("hook %s failed for %s: %v", res.Hook, ev.Issue.ID, res.Err)
				}
			}
		}
		for _, res := range runner.Run(ctx, hooks.PostReload, hooks.ReloadContext(issueCount, source)) {
			if res.Err != nil {
				debug.Log("post-reload hook %s failed: %v", res.Hook, res.Err)
			}
		}
		return nil
	}
}

// updateFieldsCmd applies a field patch to one issue through bd.
func updateFieldsCmd(c *bd.Client, id string, fields map[string]string) tea.Cmd {
	return func() tea.Msg {
		err := c.UpdateFields(context.Background(), id, fields)
		return BdResultMsg{Op: bd.OpUpdate, ID: id, Err: err}
	}
}

// updateStatusCmd sets one issue's status through bd.
func updateStatusCmd(c *bd.Client, id, status string) tea.Cmd {
	return func() tea.Msg {
		err := c.UpdateStatus(context.Background(), id, status)
		return BdResultMsg{Op: bd.OpUpdate, ID: id, Err: err}
	}
}

// updatePriorityCmd sets one issue's priority through bd.
func updatePriorityCmd(c *bd.Client, id string, priority int) tea.Cmd {
	return func() tea.Msg {
		err := c.UpdatePriority(context.Background(), id, priority)
		return BdResultMsg{Op: bd.OpUpdate, ID: id, Err: err}
	}
}

// closeIssueCmd closes one issue through bd.
func closeIssueCmd(c *bd.Client, id, reason string) tea.Cmd {
	return func() tea.Msg {
		err := c.CloseIssue(context.Background(), id, reason)
		return BdResultMsg{Op: bd.OpClose, ID: id, Err: err}
	}
}

// createIssueCmd creates a new issue through bd.
func createIssueCmd(c *bd.Client, fields map[string]string) tea.Cmd {
	return func() tea.Msg {
		err := c.CreateIssue(context.Background(), fields)
		return BdResultMsg{Op: bd.OpCreate, Err: err}
	}
}

// exportSnapshotCmd renders the dependency graph to path.
func exportSnapshotCmd(ds *dataset.Dataset, path, title string) tea.Cmd {
	return func() tea.Msg {
		err := export.SaveSnapshot(ds, nil, export.SnapshotOptions{Path: path, Title: title})
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// flashCmd schedules the expiry of the footer flash carrying seq.
func flashCmd(seq int) tea.Cmd {
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{seq: seq}
	})
}

// autoCloseCmd quits after d. Wired to STRAND_TUI_AUTOCLOSE_MS so terminal
// smoke tests can drive a real TUI session to completion.
func autoCloseCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return autoCloseMsg{}
	})
}
