package graph

import (
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/model"
)

// BuildLevels groups issues by dependency depth: level 0 for issues with no
// live blockers, otherwise 1 + the deepest blocker. Within a level, issues
// keep load order. Issues with no relationships at all are excluded; an
// isolated issue has no place in a dependency picture.
//
// Rows left empty by cycle breaking (a blocking cycle can start above 0)
// are dropped, so every returned row has at least one issue.
func BuildLevels(ds *dataset.Dataset) [][]*model.Issue {
	if ds == nil || ds.IsEmpty() {
		return nil
	}

	memo := make(map[string]int, ds.Len())
	byLevel := make(map[int][]*model.Issue)
	deepest := 0
	for _, issue := range ds.Issues {
		if !issue.HasRelations() {
			continue
		}
		lv := levelOf(ds, issue.ID, memo, make(map[string]bool))
		byLevel[lv] = append(byLevel[lv], issue)
		if lv > deepest {
			deepest = lv
		}
	}
	if len(byLevel) == 0 {
		return nil
	}

	levels := make([][]*model.Issue, 0, deepest+1)
	for lv := 0; lv <= deepest; lv++ {
		if row := byLevel[lv]; len(row) > 0 {
			levels = append(levels, row)
		}
	}
	return levels
}

// levelOf computes the dependency depth of one issue. The path set tracks
// the ids on the current recursion path; revisiting one means a blocking
// cycle, and that branch contributes level 0 rather than an error.
func levelOf(ds *dataset.Dataset, id string, memo map[string]int, path map[string]bool) int {
	if lv, ok := memo[id]; ok {
		return lv
	}
	if path[id] {
		return 0
	}
	issue, ok := ds.Get(id)
	if !ok {
		return 0
	}

	path[id] = true
	defer delete(path, id)

	lv := 0
	for _, blockerID := range issue.BlockedBy {
		if _, ok := ds.Get(blockerID); !ok {
			continue
		}
		if candidate := levelOf(ds, blockerID, memo, path) + 1; candidate > lv {
			lv = candidate
		}
	}
	memo[id] = lv
	return lv
}
