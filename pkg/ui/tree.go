package ui

import (
	"fmt"
	"strings"

	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/graph"
	"github.com/strandview/strand/pkg/model"
)

// treeState renders the parent/child forest with collapsible subtrees.
// Nodes are expanded unless their id is in collapsed, so a fresh dataset
// always shows the full hierarchy.
type treeState struct {
	roots     []*graph.Node
	rows      []*graph.Node
	collapsed map[string]bool
	cursor    int
}

// rebuild regrows the forest from a new snapshot. The cursor follows the
// previously selected id when it survives, otherwise it clamps.
func (s *treeState) rebuild(ds *dataset.Dataset) {
	var keep string
	if issue := s.selected(); issue != nil {
		keep = issue.ID
	}
	if s.collapsed == nil {
		s.collapsed = make(map[string]bool)
	}

	s.roots = graph.BuildForest(ds)
	s.flatten()

	if keep != "" {
		for i, n := range s.rows {
			if n.Issue.ID == keep {
				s.cursor = i
				return
			}
		}
	}
	s.clampCursor()
}

// flatten rebuilds the visible row list, skipping collapsed subtrees.
func (s *treeState) flatten() {
	s.rows = s.rows[:0]
	var visit func(n *graph.Node)
	visit = func(n *graph.Node) {
		s.rows = append(s.rows, n)
		if s.collapsed[n.Issue.ID] {
			return
		}
		for _, child := range n.Children {
			visit(child)
		}
	}
	for _, root := range s.roots {
		visit(root)
	}
}

func (s *treeState) clampCursor() {
	if s.cursor >= len(s.rows) {
		s.cursor = len(s.rows) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *treeState) selected() *model.Issue {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return nil
	}
	return s.rows[s.cursor].Issue
}

func (s *treeState) move(delta int) {
	s.cursor += delta
	s.clampCursor()
}

func (s *treeState) jumpFirst() { s.cursor = 0 }

func (s *treeState) jumpLast() {
	s.cursor = len(s.rows) - 1
	s.clampCursor()
}

func (s *treeState) expand() {
	if n := s.current(); n != nil && len(n.Children) > 0 {
		delete(s.collapsed, n.Issue.ID)
		s.flatten()
	}
}

// collapseOrParent folds the current subtree; on a leaf or an already
// folded node it moves the cursor to the parent instead, vim style.
func (s *treeState) collapseOrParent() {
	n := s.current()
	if n == nil {
		return
	}
	if len(n.Children) > 0 && !s.collapsed[n.Issue.ID] {
		s.collapsed[n.Issue.ID] = true
		s.flatten()
		s.clampCursor()
		return
	}
	if n.Parent != nil {
		for i, row := range s.rows {
			if row == n.Parent {
				s.cursor = i
				return
			}
		}
	}
}

func (s *treeState) toggle() {
	n := s.current()
	if n == nil || len(n.Children) == 0 {
		return
	}
	if s.collapsed[n.Issue.ID] {
		delete(s.collapsed, n.Issue.ID)
	} else {
		s.collapsed[n.Issue.ID] = true
	}
	s.flatten()
	s.clampCursor()
}

func (s *treeState) current() *graph.Node {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return nil
	}
	return s.rows[s.cursor]
}

// renderTree draws the visible window of the flattened forest.
func (m *Model) renderTree(width int) string {
	t := m.theme
	s := &m.tree
	height := m.contentHeight()

	if len(s.rows) == 0 {
		return t.MutedText.Render("  no issues")
	}

	start := 0
	if s.cursor >= height {
		start = s.cursor - height + 1
	}
	end := start + height
	if end > len(s.rows) {
		end = len(s.rows)
	}

	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderTreeRow(s.rows[i], width, i == s.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTreeRow(n *graph.Node, width int, selected bool) string {
	t := m.theme
	issue := n.Issue

	indent := strings.Repeat("  ", n.Depth)
	branch := "· "
	if len(n.Children) > 0 {
		if m.tree.collapsed[issue.ID] {
			branch = "▸ "
		} else {
			branch = "▾ "
		}
	}

	status := t.Renderer.NewStyle().
		Foreground(t.StatusColor(issue.EffectiveStatus())).
		Render(StatusGlyph(issue.EffectiveStatus()))

	suffix := ""
	if m.tree.collapsed[issue.ID] {
		suffix = fmt.Sprintf(" [+%d]", countDescendants(n))
	}
	if n := len(issue.BlockedBy); n > 0 {
		suffix += " " + fmt.Sprintf("⊘%d", n)
	}

	used := 2 + len(indent) + len(branch) + 2 + len(issue.ID) + 1 + len(suffix)
	titleWidth := width - used
	if titleWidth < 4 {
		titleWidth = 4
	}
	title := truncateCells(issue.Title, titleWidth, "…")

	row := indent + t.MutedText.Render(branch) + status + " " +
		t.SecondaryText.Render(issue.ID) + " " + t.Base.Render(title)
	if suffix != "" {
		row += t.MutedText.Render(suffix)
	}

	if selected {
		return t.Selected.Render(row)
	}
	return "  " + row
}

func countDescendants(n *graph.Node) int {
	total := 0
	for _, child := range n.Children {
		total += 1 + countDescendants(child)
	}
	return total
}
