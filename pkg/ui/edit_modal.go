package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/strandview/strand/pkg/model"
)

// editForm wraps a huh form for editing an existing issue or creating a
// new one. The form runs embedded in the main event loop; on completion
// only the fields that actually changed go out to bd.
type editForm struct {
	form    *huh.Form
	create  bool
	issueID string

	title    string
	status   string
	priority int
	assignee string
	labels   string

	typ         string
	description string

	origTitle    string
	origStatus   string
	origPriority int
	origAssignee string
	origLabels   string
}

func statusOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(model.Statuses()))
	for _, s := range model.Statuses() {
		opts = append(opts, huh.NewOption(bucketTitle(s), string(s)))
	}
	return opts
}

func priorityOptions() []huh.Option[int] {
	return []huh.Option[int]{
		huh.NewOption("P0 critical", 0),
		huh.NewOption("P1 high", 1),
		huh.NewOption("P2 medium", 2),
		huh.NewOption("P3 low", 3),
		huh.NewOption("P4 backlog", 4),
	}
}

// newEditForm prefills the form from the issue's stored fields. Status is
// the raw value, not the blocked projection, so saving without touching
// it never writes a status change.
func newEditForm(issue *model.Issue) *editForm {
	f := &editForm{
		issueID:  issue.ID,
		title:    issue.Title,
		status:   string(issue.Status),
		priority: issue.Priority,
		assignee: issue.Assignee,
		labels:   strings.Join(issue.Labels, ", "),
	}
	f.origTitle = f.title
	f.origStatus = f.status
	f.origPriority = f.priority
	f.origAssignee = f.assignee
	f.origLabels = f.labels

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&f.title),
			huh.NewSelect[string]().
				Title("Status").
				Options(statusOptions()...).
				Value(&f.status),
			huh.NewSelect[int]().
				Title("Priority").
				Options(priorityOptions()...).
				Value(&f.priority),
			huh.NewInput().
				Title("Assignee").
				Value(&f.assignee).
				Placeholder("unassigned"),
			huh.NewInput().
				Title("Labels").
				Value(&f.labels).
				Placeholder("comma, separated"),
		),
	).WithTheme(huh.ThemeDracula())
	return f
}

func newCreateForm() *editForm {
	f := &editForm{
		create:   true,
		priority: 2,
		typ:      string(model.TypeTask),
	}

	typeOpts := []huh.Option[string]{
		huh.NewOption("Task", string(model.TypeTask)),
		huh.NewOption("Bug", string(model.TypeBug)),
		huh.NewOption("Feature", string(model.TypeFeature)),
		huh.NewOption("Epic", string(model.TypeEpic)),
		huh.NewOption("Chore", string(model.TypeChore)),
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&f.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Type").
				Options(typeOpts...).
				Value(&f.typ),
			huh.NewSelect[int]().
				Title("Priority").
				Options(priorityOptions()...).
				Value(&f.priority),
			huh.NewInput().
				Title("Assignee").
				Value(&f.assignee).
				Placeholder("unassigned"),
			huh.NewInput().
				Title("Labels").
				Value(&f.labels).
				Placeholder("comma, separated"),
			huh.NewText().
				Title("Description").
				Value(&f.description).
				Placeholder("optional"),
		),
	).WithTheme(huh.ThemeDracula())
	return f
}

// patch returns only the fields whose values differ from the loaded issue,
// keyed by bd's update flag names.
func (f *editForm) patch() map[string]string {
	fields := make(map[string]string)
	if t := strings.TrimSpace(f.title); t != f.origTitle && t != "" {
		fields["title"] = t
	}
	if f.status != f.origStatus {
		fields["status"] = f.status
	}
	if f.priority != f.origPriority {
		fields["priority"] = strconv.Itoa(f.priority)
	}
	if a := strings.TrimSpace(f.assignee); a != f.origAssignee {
		fields["assignee"] = a
	}
	if l := normalizeLabels(f.labels); l != normalizeLabels(f.origLabels) {
		fields["set-labels"] = l
	}
	return fields
}

// createFields returns the bd create flag set for a new issue.
func (f *editForm) createFields() map[string]string {
	fields := map[string]string{
		"title":    strings.TrimSpace(f.title),
		"type":     f.typ,
		"priority": strconv.Itoa(f.priority),
	}
	if a := strings.TrimSpace(f.assignee); a != "" {
		fields["assignee"] = a
	}
	if l := normalizeLabels(f.labels); l != "" {
		fields["labels"] = l
	}
	if d := strings.TrimSpace(f.description); d != "" {
		fields["description"] = d
	}
	return fields
}

// normalizeLabels collapses a hand-typed label list to bd's comma form.
func normalizeLabels(s string) string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

// updateEditForm forwards a message to the embedded form and reacts when
// the form finishes. Completion dispatches the mutation; abort just closes.
func (m Model) updateEditForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	next, cmd := m.edit.form.Update(msg)
	if form, ok := next.(*huh.Form); ok {
		m.edit.form = form
	}

	switch m.edit.form.State {
	case huh.StateCompleted:
		f := m.edit
		m.edit = nil
		m.overlay = OverlayNone
		if f.create {
			return m, tea.Batch(cmd, createIssueCmd(m.bd, f.createFields()))
		}
		fields := f.patch()
		if len(fields) == 0 {
			return m, tea.Batch(cmd, m.flash("No changes", false))
		}
		return m, tea.Batch(cmd, updateFieldsCmd(m.bd, f.issueID, fields))

	case huh.StateAborted:
		m.edit = nil
		m.overlay = OverlayNone
		return m, cmd
	}

	return m, cmd
}
