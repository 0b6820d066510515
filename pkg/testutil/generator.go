// Package testutil builds deterministic issue fixtures for tests. Every
// generator draws from a seeded source, so the same config yields the same
// issues across runs and packages.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/strandview/strand/pkg/model"
)

// Config controls fixture generation.
type Config struct {
	Seed        int64  // 0 falls back to the fixed default seed, never the clock
	IDPrefix    string // issue ids are "<prefix>-<node>"
	BaseTime    time.Time
	StatusMix   []model.Status    // drawn uniformly; nil means all open
	TypeMix     []model.IssueType // drawn uniformly; nil means all task
	WithLabels  bool
	WithMinutes bool
}

const defaultSeed = 42

// DefaultConfig is fully deterministic: seed 42, base time 2025-01-01
// 12:00 UTC, prefix "test".
func DefaultConfig() Config {
	return Config{
		Seed:      defaultSeed,
		IDPrefix:  "test",
		BaseTime:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		StatusMix: []model.Status{model.StatusOpen},
		TypeMix:   []model.IssueType{model.TypeTask},
	}
}

// Generator creates issue fixtures with various dependency topologies.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// New creates a Generator, filling zero config fields with the defaults.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = def.IDPrefix
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = def.BaseTime
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = def.StatusMix
	}
	if len(cfg.TypeMix) == 0 {
		cfg.TypeMix = def.TypeMix
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// edge wires node from to node to by index: from depends on to.
type edge struct{ from, to int }

// build materializes named nodes and blocking edges as issues. Timestamps
// step one hour per node so created/updated sorts are unambiguous.
func (g *Generator) build(names []string, edges []edge) []*model.Issue {
	issues := make([]*model.Issue, len(names))
	for i, name := range names {
		issue := &model.Issue{
			ID:        g.cfg.IDPrefix + "-" + name,
			Title:     "Issue " + name,
			Status:    g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))],
			Priority:  g.rng.Intn(5),
			IssueType: g.cfg.TypeMix[g.rng.Intn(len(g.cfg.TypeMix))],
			CreatedAt: g.cfg.BaseTime.Add(time.Duration(i) * time.Hour),
			UpdatedAt: g.cfg.BaseTime.Add(time.Duration(i) * time.Hour),
		}
		if g.cfg.WithLabels {
			issue.Labels = g.pickLabels()
		}
		if g.cfg.WithMinutes {
			mins := (g.rng.Intn(8) + 1) * 30
			issue.EstimatedMinutes = &mins
		}
		issues[i] = issue
	}
	for _, e := range edges {
		issues[e.from].Dependencies = append(issues[e.from].Dependencies, &model.Dependency{
			IssueID:     issues[e.from].ID,
			DependsOnID: issues[e.to].ID,
			Type:        model.DepBlocks,
			CreatedAt:   g.cfg.BaseTime,
		})
	}
	return issues
}

// Chain builds a linear chain where each issue depends on the previous
// one: n0 is the root dependency, n{size-1} waits on the whole chain.
func (g *Generator) Chain(size int) []*model.Issue {
	if size < 1 {
		size = 1
	}
	names := make([]string, size)
	edges := make([]edge, 0, size-1)
	for i := 0; i < size; i++ {
		names[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			edges = append(edges, edge{from: i, to: i - 1})
		}
	}
	return g.build(names, edges)
}

// Star builds a hub with the given number of spokes, every spoke
// depending on the hub.
func (g *Generator) Star(spokes int) []*model.Issue {
	names := make([]string, spokes+1)
	edges := make([]edge, spokes)
	names[0] = "hub"
	for i := 1; i <= spokes; i++ {
		names[i] = fmt.Sprintf("spoke%d", i)
		edges[i-1] = edge{from: i, to: 0}
	}
	return g.build(names, edges)
}

// Diamond builds top -> mid1..midN -> bottom, where "->" reads "depends
// on". Bottom is the only root dependency.
func (g *Generator) Diamond(width int) []*model.Issue {
	if width < 1 {
		width = 1
	}
	size := width + 2
	names := make([]string, size)
	names[0] = "top"
	names[size-1] = "bottom"
	edges := make([]edge, 0, width*2)
	for i := 1; i <= width; i++ {
		names[i] = fmt.Sprintf("mid%d", i)
		edges = append(edges, edge{from: 0, to: i})
		edges = append(edges, edge{from: i, to: size - 1})
	}
	return g.build(names, edges)
}

// Tree builds a uniform tree where every parent depends on its children
// (an epic waiting on its subtasks). breadth children per node, depth
// levels below the root.
func (g *Generator) Tree(depth, breadth int) []*model.Issue {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}
	names := []string{"n0"}
	var edges []edge
	level := []int{0}
	next := 1
	for d := 0; d < depth; d++ {
		var children []int
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				names = append(names, fmt.Sprintf("n%d", next))
				edges = append(edges, edge{from: parent, to: next})
				children = append(children, next)
				next++
			}
		}
		level = children
	}
	return g.build(names, edges)
}

// Cycle builds a dependency ring: n0 -> n1 -> ... -> n0.
func (g *Generator) Cycle(size int) []*model.Issue {
	names := make([]string, size)
	edges := make([]edge, size)
	for i := 0; i < size; i++ {
		names[i] = fmt.Sprintf("n%d", i)
		edges[i] = edge{from: i, to: (i + 1) % size}
	}
	return g.build(names, edges)
}

// SelfLoop builds one issue depending on itself.
func (g *Generator) SelfLoop() []*model.Issue {
	return g.build([]string{"n0"}, []edge{{from: 0, to: 0}})
}

// Disconnected builds several isolated chains. Issues never depend
// across components.
func (g *Generator) Disconnected(components, componentSize int) []*model.Issue {
	var names []string
	var edges []edge
	idx := 0
	for c := 0; c < components; c++ {
		for i := 0; i < componentSize; i++ {
			names = append(names, fmt.Sprintf("c%d-n%d", c, i))
			if i > 0 {
				edges = append(edges, edge{from: idx, to: idx - 1})
			}
			idx++
		}
	}
	return g.build(names, edges)
}

// RandomDAG builds a random graph where edges only point from higher to
// lower index, so the result is always acyclic. density is the chance of
// each possible edge.
func (g *Generator) RandomDAG(size int, density float64) []*model.Issue {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}
	names := make([]string, size)
	for i := range names {
		names[i] = fmt.Sprintf("n%d", i)
	}
	var edges []edge
	for i := 1; i < size; i++ {
		for j := 0; j < i; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, edge{from: i, to: j})
			}
		}
	}
	return g.build(names, edges)
}

var sampleLabels = []string{
	"backend", "frontend", "api", "database", "ui",
	"auth", "performance", "security", "docs", "testing",
}

func (g *Generator) pickLabels() []string {
	count := g.rng.Intn(3) + 1
	labels := make([]string, 0, count)
	used := make(map[int]bool)
	for len(labels) < count {
		idx := g.rng.Intn(len(sampleLabels))
		if !used[idx] {
			used[idx] = true
			labels = append(labels, sampleLabels[idx])
		}
	}
	return labels
}

// QuickChain builds a chain with default settings.
func QuickChain(size int) []*model.Issue {
	return NewDefault().Chain(size)
}

// QuickDiamond builds a diamond with default settings.
func QuickDiamond(width int) []*model.Issue {
	return NewDefault().Diamond(width)
}

// QuickCycle builds a ring with default settings.
func QuickCycle(size int) []*model.Issue {
	return NewDefault().Cycle(size)
}

// QuickTree builds a tree with default settings.
func QuickTree(depth, breadth int) []*model.Issue {
	return NewDefault().Tree(depth, breadth)
}
