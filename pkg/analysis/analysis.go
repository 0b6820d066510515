// Package analysis computes blocks-graph metrics for a dataset snapshot:
// a criticality score per issue, a suggested attack order, and the blocking
// cycles. Metrics are recomputed on demand after a reload; nothing here is
// cached across snapshots.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/model"
)

// PageRank parameters for the criticality score.
const (
	dampingFactor = 0.85
	rankTolerance = 1e-6
)

// Stats holds the metrics computed for one snapshot. All fields are
// populated by Analyze and read-only afterwards.
type Stats struct {
	NodeCount int
	EdgeCount int
	// Density is the fraction of possible directed edges that exist.
	Density float64

	// Criticality is the PageRank score of each issue in the blocks graph.
	// An issue that many others depend on, directly or transitively, scores
	// high: closing it unblocks the most downstream work.
	Criticality map[string]float64

	// Order lists every issue id in suggested attack order, dependencies
	// before their dependents. When the graph has cycles the order falls
	// back to dependency-level grouping with cycles broken at the point
	// of re-entry.
	Order []string

	// Cycles lists the blocking cycles as id groups, each group sorted,
	// groups ordered by their first member.
	Cycles [][]string

	rank map[string]int
}

// Analyzer builds the directed blocks graph for one snapshot. Only blocking
// dependency edges are modelled; related and discovered-from links do not
// gate execution order and must not influence the metrics.
type Analyzer struct {
	g        *simple.DirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
	deps     map[string][]string
	order    []string
}

// NewAnalyzer indexes the snapshot's issues and blocking edges. Edges
// naming an unknown issue on either end are ignored, as are
// self-dependencies and duplicates.
func NewAnalyzer(ds *dataset.Dataset) *Analyzer {
	var issues []*model.Issue
	if ds != nil {
		issues = ds.Issues
	}

	a := &Analyzer{
		g:        simple.NewDirectedGraph(),
		idToNode: make(map[string]int64, len(issues)),
		nodeToID: make(map[int64]string, len(issues)),
		deps:     make(map[string][]string),
		order:    make([]string, 0, len(issues)),
	}

	for _, issue := range issues {
		if _, dup := a.idToNode[issue.ID]; dup {
			continue
		}
		n := a.g.NewNode()
		a.g.AddNode(n)
		a.idToNode[issue.ID] = n.ID()
		a.nodeToID[n.ID()] = issue.ID
		a.order = append(a.order, issue.ID)
	}

	type edge struct{ from, to string }
	seen := make(map[edge]struct{})
	for _, issue := range issues {
		for _, dep := range issue.Dependencies {
			if dep == nil || !dep.Type.IsBlocking() {
				continue
			}
			from := dep.IssueID
			if from == "" {
				from = issue.ID
			}
			to := dep.DependsOnID
			if from == to {
				continue
			}
			u, ok := a.idToNode[from]
			if !ok {
				continue
			}
			v, ok := a.idToNode[to]
			if !ok {
				continue
			}
			key := edge{from, to}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			// from depends on to: edge points at the dependency.
			a.g.SetEdge(a.g.NewEdge(a.g.Node(u), a.g.Node(v)))
			a.deps[from] = append(a.deps[from], to)
		}
	}

	return a
}

// Analyze computes all metrics synchronously.
func (a *Analyzer) Analyze() *Stats {
	stats := &Stats{
		NodeCount:   len(a.order),
		EdgeCount:   a.g.Edges().Len(),
		Criticality: make(map[string]float64, len(a.order)),
	}
	if stats.NodeCount == 0 {
		return stats
	}

	if n := float64(stats.NodeCount); n > 1 {
		stats.Density = float64(stats.EdgeCount) / (n * (n - 1))
	}

	for id, score := range network.PageRank(a.g, dampingFactor, rankTolerance) {
		stats.Criticality[a.nodeToID[id]] = score
	}

	stats.Order = a.attackOrder()
	stats.rank = make(map[string]int, len(stats.Order))
	for i, id := range stats.Order {
		stats.rank[id] = i + 1
	}

	stats.Cycles = a.cycles()
	return stats
}

// Analyze is the usual entry point: build the graph and compute metrics in
// one call.
func Analyze(ds *dataset.Dataset) *Stats {
	return NewAnalyzer(ds).Analyze()
}

// attackOrder returns every issue id with dependencies listed before their
// dependents. The clean path is a topological sort; a cyclic graph falls
// back to level grouping, which tolerates cycles.
func (a *Analyzer) attackOrder() []string {
	sorted, err := topo.Sort(a.g)
	if err == nil {
		// topo.Sort puts dependents before their dependencies, so walk it
		// backwards.
		order := make([]string, 0, len(sorted))
		for i := len(sorted) - 1; i >= 0; i-- {
			order = append(order, a.nodeToID[sorted[i].ID()])
		}
		return order
	}
	return a.levelOrder()
}

// levelOrder groups issues by dependency depth and concatenates the groups
// shallowest first. Within a group, snapshot order is kept.
func (a *Analyzer) levelOrder() []string {
	memo := make(map[string]int, len(a.order))
	byDepth := make(map[int][]string)
	deepest := 0
	for _, id := range a.order {
		d := a.depth(id, memo, make(map[string]bool))
		byDepth[d] = append(byDepth[d], id)
		if d > deepest {
			deepest = d
		}
	}

	order := make([]string, 0, len(a.order))
	for d := 0; d <= deepest; d++ {
		order = append(order, byDepth[d]...)
	}
	return order
}

// depth is the longest blocking chain below an issue. The path set holds
// the ids on the current recursion path; meeting one again means a cycle,
// and that branch contributes depth 0 instead of recursing forever.
func (a *Analyzer) depth(id string, memo map[string]int, path map[string]bool) int {
	if d, ok := memo[id]; ok {
		return d
	}
	if path[id] {
		return 0
	}
	path[id] = true

	d := 0
	for _, dep := range a.deps[id] {
		if dd := a.depth(dep, memo, path) + 1; dd > d {
			d = dd
		}
	}

	delete(path, id)
	memo[id] = d
	return d
}

// cycles returns the strongly connected components with more than one
// member. Ids are sorted within each group and groups are ordered by first
// member, so repeated runs report identically.
func (a *Analyzer) cycles() [][]string {
	var out [][]string
	for _, scc := range topo.TarjanSCC(a.g) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, a.nodeToID[n.ID()])
		}
		sort.Strings(ids)
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Rank is the 1-based position of an issue in the attack order, 0 when the
// issue is unknown.
func (s *Stats) Rank(id string) int {
	return s.rank[id]
}

// CriticalityOf returns the criticality score for one issue, 0 when
// unknown.
func (s *Stats) CriticalityOf(id string) float64 {
	return s.Criticality[id]
}

// HasCycles reports whether any blocking cycle exists.
func (s *Stats) HasCycles() bool {
	return len(s.Cycles) > 0
}
