// Package ui implements the terminal front end: a kanban board over the
// four status buckets, a dependency tree, and an execution-levels view,
// all fed by immutable dataset snapshots and driven through the Bubble Tea
// event loop. Mutations go out through bd; the views only ever change on
// the reload that follows.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/strandview/strand/pkg/analysis"
	"github.com/strandview/strand/pkg/bd"
	"github.com/strandview/strand/pkg/board"
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/hooks"
	"github.com/strandview/strand/pkg/model"
	"github.com/strandview/strand/pkg/notify"
	"github.com/strandview/strand/pkg/query"
	"github.com/strandview/strand/pkg/watcher"
)

// ActiveView names the main content views, cycled with tab.
type ActiveView int

const (
	ViewBoard ActiveView = iota
	ViewTree
	ViewLevels
)

// Title returns the header label for the view.
func (v ActiveView) Title() string {
	switch v {
	case ViewTree:
		return "Tree"
	case ViewLevels:
		return "Levels"
	default:
		return "Board"
	}
}

// Overlay names the modal surfaces. At most one is active; every overlay
// key handler either keeps its overlay or returns to OverlayNone, so the
// states cannot stack or leak into each other.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayPalette
	OverlayFilter
	OverlaySort
	OverlayEdit
	OverlayExport
	OverlayError
)

// Options configures NewModel. Dataset carries the initial load performed
// by the caller; Watcher, Hooks and Bd may each be nil to disable live
// reload, hook dispatch, or mutations.
type Options struct {
	RepoPath     string
	Theme        Theme
	Dataset      *dataset.Dataset
	Source       string
	Warnings     []string
	Watcher      *watcher.Watcher
	Hooks        *hooks.Runner
	Bd           *bd.Client
	SortSpecs    board.SortSpecs
	PersistSorts func(board.SortSpecs)
	AutoClose    time.Duration
}

// Model is the root Bubble Tea model. All state mutation happens inside
// Update, strictly serialized by the event loop.
type Model struct {
	repoPath string
	theme    Theme

	ds    *dataset.Dataset
	b     *board.Board
	stats *analysis.Stats // computed on demand, dropped on reload

	activeView ActiveView
	overlay    Overlay

	tree   treeState
	levels levelsState

	detailOpen bool
	detail     viewport.Model
	mdRenderer *glamour.TermRenderer
	detailFor  string

	palette     paletteState
	filterInput textinput.Model
	savedFilter query.Filter
	sortCursor  int
	exportInput textinput.Model
	edit        *editForm
	errorDetail string

	watcher *watcher.Watcher
	hooks   *hooks.Runner
	bd      *bd.Client

	source   string
	warnings []string

	statusMsg     string
	statusIsError bool
	flashSeq      int

	width, height int
	ready         bool
	autoClose     time.Duration
}

// NewModel builds the root model around an already-loaded dataset.
func NewModel(opts Options) Model {
	b := board.New(
		board.WithSortSpecs(opts.SortSpecs),
		board.WithSortPersist(opts.PersistSorts),
	)
	if opts.Dataset != nil {
		b.ApplyReload(opts.Dataset)
	}

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "text  a:assignee  l:label  p:2  s:open"
	filter.CharLimit = 120

	exportIn := textinput.New()
	exportIn.Prompt = "path: "
	exportIn.SetValue("strand-graph.svg")
	exportIn.CharLimit = 255

	m := Model{
		repoPath:    opts.RepoPath,
		theme:       opts.Theme,
		ds:          opts.Dataset,
		b:           b,
		source:      opts.Source,
		warnings:    opts.Warnings,
		watcher:     opts.Watcher,
		hooks:       opts.Hooks,
		bd:          opts.Bd,
		detail:      viewport.New(40, 20),
		filterInput: filter,
		exportInput: exportIn,
		palette:     newPaletteState(),
		autoClose:   opts.AutoClose,
	}
	m.tree.rebuild(opts.Dataset)
	m.levels.rebuild(opts.Dataset)
	return m
}

// Init starts the watch loop and the startup timers.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ReadyTimeoutCmd(), textinput.Blink}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	if m.autoClose > 0 {
		cmds = append(cmds, autoCloseCmd(m.autoClose))
	}
	return tea.Batch(cmds...)
}

// Dataset returns the current snapshot, nil before the first load.
func (m Model) Dataset() *dataset.Dataset {
	return m.ds
}

// Board exposes the navigation state machine, mainly for tests.
func (m Model) Board() *board.Board {
	return m.b
}

// ensureStats computes the graph metrics for the current dataset once;
// reloads reset the cache.
func (m *Model) ensureStats() *analysis.Stats {
	if m.stats == nil && m.ds != nil {
		m.stats = analysis.Analyze(m.ds)
	}
	return m.stats
}

// selectedIssue returns the issue under the cursor of the active view.
func (m *Model) selectedIssue() *model.Issue {
	switch m.activeView {
	case ViewTree:
		return m.tree.selected()
	case ViewLevels:
		return m.levels.selected()
	default:
		return m.b.SelectedIssue()
	}
}

// flash replaces the footer status message and schedules its expiry.
func (m *Model) flash(msg string, isErr bool) tea.Cmd {
	m.statusMsg = msg
	m.statusIsError = isErr
	m.flashSeq++
	return flashCmd(m.flashSeq)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The edit form consumes every message type while open: huh routes its
	// internal field messages through Update, not just key events.
	if m.overlay == OverlayEdit && m.edit != nil {
		if _, ok := msg.(tea.WindowSizeMsg); !ok {
			newModel, cmd := m.updateEditForm(msg)
			return newModel, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.applyLayout()

	case ReadyTimeoutMsg:
		m.ready = true

	case autoCloseMsg:
		return m, tea.Quit

	case FileChangedMsg:
		cmds = append(cmds, ReloadCmd(m.repoPath))
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}

	case ReloadedMsg:
		cmds = append(cmds, m.applyReload(msg)...)

	case BdResultMsg:
		cmds = append(cmds, m.applyBdResult(msg)...)

	case ExportDoneMsg:
		if msg.Err != nil {
			cmds = append(cmds, m.flash(fmt.Sprintf("Export failed: %v", msg.Err), true))
		} else {
			cmds = append(cmds, m.flash("Exported "+msg.Path, false))
		}

	case flashExpiredMsg:
		if msg.seq == m.flashSeq {
			m.statusMsg = ""
			m.statusIsError = false
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

// applyReload swaps in a freshly loaded dataset: diff against the previous
// snapshot for notifications, reconcile every view's selection, and hand
// the events to the hook dispatcher. A load error keeps the old dataset.
func (m *Model) applyReload(msg ReloadedMsg) []tea.Cmd {
	var cmds []tea.Cmd

	if msg.Err != nil {
		cmds = append(cmds, m.flash(fmt.Sprintf("Reload failed: %v", msg.Err), true))
		return cmds
	}
	if m.ds != nil && msg.Dataset.Hash == m.ds.Hash {
		// Same content; editors often touch the file without changing it.
		return nil
	}

	var events []notify.Event
	if m.ds != nil {
		changes := notify.Diff(m.ds.Snapshot(), msg.Dataset.Snapshot())
		events = notify.Events(changes)
	}

	m.ds = msg.Dataset
	m.source = msg.Source
	m.warnings = msg.Warnings
	m.stats = nil
	m.detailFor = ""

	m.b.ApplyReload(m.ds)
	m.tree.rebuild(m.ds)
	m.levels.rebuild(m.ds)
	if m.detailOpen {
		m.ensureDetail()
	}

	if f := m.flashForReload(events); f != "" {
		cmds = append(cmds, m.flash(f, false))
	}
	if cmd := dispatchHooksCmd(m.hooks, events, m.ds.Len(), m.source); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// flashForReload summarizes a reload for the footer. Transitions outrank
// the plain refresh notice; loader warnings tag along either way.
func (m *Model) flashForReload(events []notify.Event) string {
	var parts []string
	switch len(events) {
	case 0:
		parts = append(parts, fmt.Sprintf("Reloaded %s", pluralize(m.ds.Len(), "issue")))
	case 1:
		ev := events[0]
		switch ev.Kind {
		case notify.EventCompleted:
			parts = append(parts, fmt.Sprintf("✓ %s completed", ev.Issue.ID))
		case notify.EventBecameBlocked:
			parts = append(parts, fmt.Sprintf("✗ %s became blocked", ev.Issue.ID))
		}
	default:
		parts = append(parts, fmt.Sprintf("%s changed status", pluralize(len(events), "issue")))
	}
	if n := len(m.warnings); n > 0 {
		parts = append(parts, fmt.Sprintf("%s skipped", pluralize(n, "bad record")))
	}
	return strings.Join(parts, ", ")
}

// applyBdResult reacts to a finished bd invocation. Success schedules the
// reload that makes the mutation visible; failure opens the error overlay
// with the captured stderr.
func (m *Model) applyBdResult(msg BdResultMsg) []tea.Cmd {
	var cmds []tea.Cmd

	if msg.Err == nil {
		verb := "Updated"
		switch msg.Op {
		case bd.OpClose:
			verb = "Closed"
		case bd.OpCreate:
			verb = "Created issue"
		}
		text := verb
		if msg.ID != "" {
			text = verb + " " + msg.ID
		}
		cmds = append(cmds, m.flash(text, false))
		cmds = append(cmds, ReloadCmd(m.repoPath))
		return cmds
	}

	var mutErr *bd.MutationError
	if errors.As(msg.Err, &mutErr) && mutErr.Stderr != "" {
		m.errorDetail = mutErr.Stderr
	} else {
		m.errorDetail = msg.Err.Error()
	}
	m.overlay = OverlayError
	cmds = append(cmds, m.flash(fmt.Sprintf("bd %s failed", msg.Op), true))
	return cmds
}

// applyLayout propagates the terminal size to every subview.
func (m *Model) applyLayout() {
	m.b.SetPageSize(m.boardPageSize())

	detailWidth := m.detailPaneWidth()
	m.detail.Width = detailWidth
	m.detail.Height = m.contentHeight()
	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(detailWidth-2),
	); err == nil {
		m.mdRenderer = r
	}
	m.detailFor = ""

	inputWidth := m.width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.filterInput.Width = inputWidth
	m.exportInput.Width = inputWidth
	m.palette.setSize(m.width, m.height)
}

// contentHeight is the row budget between header and footer.
func (m *Model) contentHeight() int {
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	return h
}

// boardPageSize is the card rows per column: content minus the column
// header and count line.
func (m *Model) boardPageSize() int {
	n := m.contentHeight() - 3
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Model) detailPaneWidth() int {
	w := m.width * 2 / 5
	if w < 30 {
		w = 30
	}
	if w > m.width-20 {
		w = m.width - 20
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayHelp:
		return m.handleHelpKey(key)
	case OverlayPalette:
		return m.handlePaletteKey(msg)
	case OverlayFilter:
		return m.handleFilterKey(msg)
	case OverlaySort:
		return m.handleSortKey(key)
	case OverlayExport:
		return m.handleExportKey(msg)
	case OverlayError:
		// Any key dismisses.
		m.overlay = OverlayNone
		m.errorDetail = ""
		return m, nil
	}

	return m.handleMainKey(key)
}

func (m Model) handleMainKey(key string) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch key {
	case "q":
		return m, tea.Quit

	case "?":
		m.overlay = OverlayHelp

	case "tab":
		m.activeView = (m.activeView + 1) % 3
	case "shift+tab":
		m.activeView = (m.activeView + 2) % 3

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "h", "left":
		switch m.activeView {
		case ViewBoard:
			m.b.FocusLeft()
		case ViewTree:
			m.tree.collapseOrParent()
		}
	case "l", "right":
		switch m.activeView {
		case ViewBoard:
			m.b.FocusRight()
		case ViewTree:
			m.tree.expand()
		}
	case " ":
		if m.activeView == ViewTree {
			m.tree.toggle()
		}

	case "g", "home":
		m.jumpFirst()
	case "G", "end":
		m.jumpLast()
	case "ctrl+d", "pgdown":
		m.movePage(1)
	case "ctrl+u", "pgup":
		m.movePage(-1)

	case "enter":
		if m.selectedIssue() != nil {
			m.detailOpen = !m.detailOpen
		}
	case "J", "ctrl+e":
		if m.detailOpen {
			m.detail.LineDown(3)
		}
	case "K", "ctrl+y":
		if m.detailOpen {
			m.detail.LineUp(3)
		}
	case "esc":
		switch {
		case m.detailOpen:
			m.detailOpen = false
		case !m.b.Filter().IsZero():
			m.b.SetFilter(query.Filter{})
			m.filterInput.SetValue("")
			cmds = append(cmds, m.flash("Filter cleared", false))
		}

	case "/":
		m.savedFilter = m.b.Filter()
		m.overlay = OverlayFilter
		m.filterInput.Focus()
		cmds = append(cmds, textinput.Blink)

	case "s":
		if m.activeView == ViewBoard {
			m.overlay = OverlaySort
			m.sortCursor = fieldIndex(m.b.SortSpec(m.b.FocusedBucket()).Field)
		}

	case "ctrl+p":
		m.palette.open(m.ds)
		m.overlay = OverlayPalette
		cmds = append(cmds, textinput.Blink)

	case "e":
		if issue := m.selectedIssue(); issue != nil {
			if m.bd == nil {
				cmds = append(cmds, m.flash("bd unavailable, editing disabled", true))
				break
			}
			m.edit = newEditForm(issue)
			m.overlay = OverlayEdit
			cmds = append(cmds, m.edit.form.Init())
		}
	case "ctrl+n":
		if m.bd == nil {
			cmds = append(cmds, m.flash("bd unavailable, editing disabled", true))
			break
		}
		m.edit = newCreateForm()
		m.overlay = OverlayEdit
		cmds = append(cmds, m.edit.form.Init())

	case "t":
		// Toggle the work state without opening the form.
		if issue := m.selectedIssue(); issue != nil && m.bd != nil {
			switch issue.Status {
			case model.StatusInProgress:
				cmds = append(cmds, updateStatusCmd(m.bd, issue.ID, string(model.StatusOpen)))
			default:
				cmds = append(cmds, updateStatusCmd(m.bd, issue.ID, string(model.StatusInProgress)))
			}
		}

	case "d":
		if issue := m.selectedIssue(); issue != nil && m.bd != nil {
			cmds = append(cmds, closeIssueCmd(m.bd, issue.ID, ""))
		}

	case "0", "1", "2", "3", "4":
		if issue := m.selectedIssue(); issue != nil && m.bd != nil {
			prio := int(key[0] - '0')
			if issue.Priority != prio {
				cmds = append(cmds, updatePriorityCmd(m.bd, issue.ID, prio))
			}
		}

	case "y":
		if issue := m.selectedIssue(); issue != nil {
			if err := clipboard.WriteAll(issue.ID); err != nil {
				cmds = append(cmds, m.flash(fmt.Sprintf("Clipboard: %v", err), true))
			} else {
				cmds = append(cmds, m.flash("Yanked "+issue.ID, false))
			}
		}
	case "Y":
		if issue := m.selectedIssue(); issue != nil {
			if err := clipboard.WriteAll(issue.ID+": "+issue.Title); err != nil {
				cmds = append(cmds, m.flash(fmt.Sprintf("Clipboard: %v", err), true))
			} else {
				cmds = append(cmds, m.flash("Yanked "+issue.ID+" with title", false))
			}
		}

	case "r":
		cmds = append(cmds, m.flash("Reloading…", false))
		cmds = append(cmds, ReloadCmd(m.repoPath))

	case "x":
		m.overlay = OverlayExport
		m.exportInput.Focus()
		cmds = append(cmds, textinput.Blink)
	}

	if m.detailOpen {
		m.ensureDetail()
	}
	return m, tea.Batch(cmds...)
}

// moveCursor advances the active view's selection by delta rows.
func (m *Model) moveCursor(delta int) {
	switch m.activeView {
	case ViewBoard:
		if delta > 0 {
			m.b.MoveDown()
		} else {
			m.b.MoveUp()
		}
	case ViewTree:
		m.tree.move(delta)
	case ViewLevels:
		m.levels.move(delta)
	}
	if m.detailOpen {
		m.detailFor = ""
	}
}

func (m *Model) jumpFirst() {
	switch m.activeView {
	case ViewBoard:
		m.b.JumpToFirst()
	case ViewTree:
		m.tree.jumpFirst()
	case ViewLevels:
		m.levels.jumpFirst()
	}
	m.detailFor = ""
}

func (m *Model) jumpLast() {
	switch m.activeView {
	case ViewBoard:
		m.b.JumpToLast()
	case ViewTree:
		m.tree.jumpLast()
	case ViewLevels:
		m.levels.jumpLast()
	}
	m.detailFor = ""
}

// movePage scrolls by half a page, vim style.
func (m *Model) movePage(direction int) {
	steps := m.b.PageSize() / 2
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		m.moveCursor(direction)
	}
}

func fieldIndex(f query.Field) int {
	for i, field := range query.Fields() {
		if field == f {
			return i
		}
	}
	return 0
}
