// Package dataset turns flat issue lists into the immutable, fully resolved
// snapshots the views render from. A reload always builds a brand-new
// Dataset; nothing here mutates a snapshot after construction.
package dataset

import (
	"github.com/strandview/strand/pkg/model"
)

type edgeKey struct {
	from, to string
	kind     byte
}

// CollectEdges flattens the dependency lists embedded on the issues into a
// single edge list for Resolve. Both backing stores attach dependencies to
// their source issue, so this is the usual way edges arrive.
func CollectEdges(issues []*model.Issue) []*model.Dependency {
	var edges []*model.Dependency
	for _, issue := range issues {
		for _, dep := range issue.Dependencies {
			if dep == nil {
				continue
			}
			edges = append(edges, dep)
		}
	}
	return edges
}

// Resolve annotates issues in place with Parent/Children/BlockedBy/Blocks.
//
// One pass over the edges: a parent-child edge makes DependsOnID the parent
// of IssueID; a blocking edge makes DependsOnID a blocker of IssueID and
// records the reverse direction on the blocker's Blocks list. Edges naming
// an unknown id on either end are dropped without error, and duplicate
// edges contribute once. A post-pass removes closed blockers from BlockedBy,
// which is what lets a dependent issue flip back from blocked to open when
// its last blocker closes.
//
// Derived fields are reset up front, so resolving the same issues again
// yields identical results. Cyclic or self-referencing chains are allowed
// through untouched; the tree and level builders own cycle handling.
func Resolve(issues []*model.Issue, edges []*model.Dependency) {
	byID := make(map[string]*model.Issue, len(issues))
	for _, issue := range issues {
		issue.Parent = ""
		issue.Children = nil
		issue.BlockedBy = nil
		issue.Blocks = nil
		byID[issue.ID] = issue
	}

	seen := make(map[edgeKey]struct{}, len(edges))
	for _, edge := range edges {
		if edge == nil {
			continue
		}
		src, ok := byID[edge.IssueID]
		if !ok {
			continue
		}
		dst, ok := byID[edge.DependsOnID]
		if !ok {
			continue
		}

		switch {
		case edge.Type == model.DepParentChild:
			key := edgeKey{from: src.ID, to: dst.ID, kind: 'p'}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			// First parent edge wins; later ones still register the child.
			if src.Parent == "" {
				src.Parent = dst.ID
			}
			dst.Children = append(dst.Children, src.ID)
		case edge.Type.IsBlocking():
			key := edgeKey{from: src.ID, to: dst.ID, kind: 'b'}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			src.BlockedBy = append(src.BlockedBy, dst.ID)
			dst.Blocks = append(dst.Blocks, src.ID)
		default:
			// related and discovered-from edges carry no derivation.
		}
	}

	// Closed blockers no longer block. This must run after the edge pass
	// since a blocker's own record decides its closure state.
	for _, issue := range issues {
		if len(issue.BlockedBy) == 0 {
			continue
		}
		kept := issue.BlockedBy[:0]
		for _, id := range issue.BlockedBy {
			if blocker, ok := byID[id]; ok && !blocker.Status.IsClosed() {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			issue.BlockedBy = nil
		} else {
			issue.BlockedBy = kept
		}
	}
}
