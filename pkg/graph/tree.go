// Package graph derives the hierarchy forest and the dependency-level
// layout from a resolved snapshot. Both builders are pure and recompute
// from the current Dataset on demand; nothing is cached across reloads.
package graph

import (
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/model"
)

// Node is one entry in the parent/child forest.
type Node struct {
	Issue    *model.Issue
	Children []*Node
	Depth    int
	Parent   *Node
}

// BuildForest returns the parent/child forest: one root per issue without a
// resolvable parent, in load order, children in edge order.
//
// The visited set is shared across the whole traversal, not per path. An
// issue reachable through two parents is attached under whichever parent
// the DFS reaches first and skipped afterwards, and a cyclic parent chain
// cannot recurse forever because re-entering a visited id is impossible.
func BuildForest(ds *dataset.Dataset) []*Node {
	if ds == nil || ds.IsEmpty() {
		return nil
	}

	visited := make(map[string]bool, ds.Len())
	var roots []*Node
	for _, issue := range ds.Issues {
		if issue.Parent != "" {
			if _, ok := ds.Get(issue.Parent); ok {
				continue
			}
			// Parent id does not resolve; treat as a root.
		}
		if node := buildNode(ds, issue, 0, nil, visited); node != nil {
			roots = append(roots, node)
		}
	}
	return roots
}

// buildNode attaches issue and its descendants, skipping ids the traversal
// has already placed.
func buildNode(ds *dataset.Dataset, issue *model.Issue, depth int, parent *Node, visited map[string]bool) *Node {
	if issue == nil || visited[issue.ID] {
		return nil
	}
	visited[issue.ID] = true

	node := &Node{
		Issue:  issue,
		Depth:  depth,
		Parent: parent,
	}
	for _, childID := range issue.Children {
		child, ok := ds.Get(childID)
		if !ok {
			continue
		}
		if childNode := buildNode(ds, child, depth+1, node, visited); childNode != nil {
			node.Children = append(node.Children, childNode)
		}
	}
	return node
}

// Walk visits every node of the forest depth-first in display order.
func Walk(roots []*Node, visit func(*Node)) {
	for _, root := range roots {
		walkNode(root, visit)
	}
}

func walkNode(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		walkNode(child, visit)
	}
}
