package board_test

import (
	"testing"
	"time"

	"github.com/strandview/strand/pkg/board"
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/model"
	"github.com/strandview/strand/pkg/query"
)

func makeIssue(id string, status model.Status, priority int) *model.Issue {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.Issue{
		ID: id, Title: "issue " + id, Status: status, Priority: priority,
		IssueType: model.TypeTask, CreatedAt: created, UpdatedAt: created,
	}
}

// openSet builds a dataset of n open issues. Priorities are uniform so the
// default sort keeps load order and index math stays readable.
func openSet(n int) *dataset.Dataset {
	issues := make([]*model.Issue, n)
	for i := 0; i < n; i++ {
		issues[i] = makeIssue(openID(i), model.StatusOpen, 2)
	}
	return dataset.New(issues, nil)
}

func openID(i int) string {
	return "o-" + string(rune('a'+i/10)) + string(rune('0'+i%10))
}

func newBoard(ds *dataset.Dataset, pageSize int) *board.Board {
	b := board.New(board.WithPageSize(pageSize))
	b.ApplyReload(ds)
	return b
}

func TestFirstReloadSelectsFirstElement(t *testing.T) {
	b := newBoard(openSet(3), 10)

	view := b.BucketView(model.StatusOpen)
	if view.SelectedID != openID(0) {
		t.Errorf("selected = %q, want first element %q", view.SelectedID, openID(0))
	}
	if view.ScrollOffset != 0 {
		t.Errorf("scrollOffset = %d, want 0", view.ScrollOffset)
	}
}

func TestEmptyBucketIsInert(t *testing.T) {
	b := newBoard(openSet(3), 10)
	b.FocusColumn(2) // blocked bucket, empty here

	view := b.BucketView(model.StatusBlocked)
	if view.SelectedID != "" || view.TotalPages != 1 {
		t.Fatalf("empty bucket view = %+v, want null selection and one page", view)
	}

	b.MoveDown()
	b.MoveUp()
	b.JumpToFirst()
	b.JumpToLast()
	b.JumpToPage(3)

	after := b.State(model.StatusBlocked)
	if after.SelectedID != "" || after.ScrollOffset != 0 {
		t.Errorf("navigation on empty bucket must be a no-op, got %+v", after)
	}
	if b.SelectedIssue() != nil {
		t.Errorf("SelectedIssue on empty bucket should be nil")
	}
}

func TestMoveDownAdjustsWindowAtEdge(t *testing.T) {
	b := newBoard(openSet(10), 3)

	// Walk to the bottom edge of the first page.
	b.MoveDown()
	b.MoveDown()
	if got := b.State(model.StatusOpen); got.ScrollOffset != 0 {
		t.Fatalf("offset = %d while inside window, want 0", got.ScrollOffset)
	}

	// Crossing the edge pulls the window down by exactly one.
	b.MoveDown()
	got := b.State(model.StatusOpen)
	if got.SelectedID != openID(3) || got.ScrollOffset != 1 {
		t.Fatalf("state = %+v, want selection o at index 3 with offset 1", got)
	}
}

func TestMoveUpAdjustsWindowAtEdge(t *testing.T) {
	b := newBoard(openSet(10), 3)
	b.JumpToLast()
	if got := b.State(model.StatusOpen); got.ScrollOffset != 7 {
		t.Fatalf("after JumpToLast offset = %d, want 7", got.ScrollOffset)
	}

	// Walk back above the window top: offset follows the selection exactly.
	for i := 0; i < 3; i++ {
		b.MoveUp()
	}
	got := b.State(model.StatusOpen)
	if got.SelectedID != openID(6) || got.ScrollOffset != 6 {
		t.Fatalf("state = %+v, want selection at index 6 with offset 6", got)
	}
}

func TestMoveSaturatesAtEnds(t *testing.T) {
	b := newBoard(openSet(2), 10)

	b.MoveUp()
	if got := b.State(model.StatusOpen); got.SelectedID != openID(0) {
		t.Errorf("MoveUp at top moved selection to %q", got.SelectedID)
	}
	b.MoveDown()
	b.MoveDown()
	b.MoveDown()
	if got := b.State(model.StatusOpen); got.SelectedID != openID(1) {
		t.Errorf("MoveDown at bottom moved selection to %q", got.SelectedID)
	}
}

func TestJumpToPageClamps(t *testing.T) {
	b := newBoard(openSet(25), 10) // 3 pages

	b.JumpToPage(99)
	got := b.State(model.StatusOpen)
	if got.ScrollOffset != 20 || got.SelectedID != openID(20) {
		t.Errorf("JumpToPage(99) = %+v, want clamp to page 3", got)
	}

	b.JumpToPage(-5)
	got = b.State(model.StatusOpen)
	if got.ScrollOffset != 0 || got.SelectedID != openID(0) {
		t.Errorf("JumpToPage(-5) = %+v, want clamp to page 1", got)
	}

	view := b.BucketView(model.StatusOpen)
	if view.TotalPages != 3 || view.Page != 1 {
		t.Errorf("view pages = %d/%d, want page 1 of 3", view.Page, view.TotalPages)
	}
}

func TestReloadPreservesSurvivingSelection(t *testing.T) {
	b := newBoard(openSet(6), 3)
	b.JumpToLast() // select o index 5, offset 3

	// Reload with the same membership in reversed order.
	issues := make([]*model.Issue, 6)
	for i := 0; i < 6; i++ {
		issues[i] = makeIssue(openID(5-i), model.StatusOpen, 2)
	}
	b.ApplyReload(dataset.New(issues, nil))

	got := b.State(model.StatusOpen)
	if got.SelectedID != openID(5) {
		t.Errorf("selection = %q, want %q preserved across reload", got.SelectedID, openID(5))
	}
	if got.ScrollOffset != 3 {
		t.Errorf("scrollOffset = %d, want 3 untouched for surviving selection", got.ScrollOffset)
	}
}

func TestReloadResetsLostSelection(t *testing.T) {
	b := newBoard(openSet(6), 3)
	b.JumpToLast()

	// Selected issue disappears from the bucket.
	b.ApplyReload(openSet(3))

	got := b.State(model.StatusOpen)
	if got.SelectedID != openID(0) || got.ScrollOffset != 0 {
		t.Errorf("state = %+v, want reset to first element", got)
	}
}

func TestReloadPriorityScenario(t *testing.T) {
	// Open bucket sorted by priority desc holds [B, A]; selecting B and
	// reloading without B falls back to A.
	a := makeIssue("A", model.StatusOpen, 2)
	bIssue := makeIssue("B", model.StatusOpen, 4)
	c := makeIssue("C", model.StatusClosed, 1)
	ds := dataset.New([]*model.Issue{a, bIssue, c}, nil)

	brd := board.New(board.WithPageSize(10), board.WithSortSpecs(board.SortSpecs{
		model.StatusOpen: {Field: query.FieldPriority, Order: query.OrderDesc},
	}))
	brd.ApplyReload(ds)

	view := brd.BucketView(model.StatusOpen)
	if len(view.Items) != 2 || view.Items[0].ID != "B" || view.Items[1].ID != "A" {
		t.Fatalf("open bucket order = %v, want [B A]", viewIDs(view))
	}
	if view.SelectedID != "B" {
		t.Fatalf("initial selection = %q, want first element B", view.SelectedID)
	}

	a2 := makeIssue("A", model.StatusOpen, 2)
	c2 := makeIssue("C", model.StatusClosed, 1)
	brd.ApplyReload(dataset.New([]*model.Issue{a2, c2}, nil))

	if got := brd.State(model.StatusOpen); got.SelectedID != "A" {
		t.Errorf("selection = %q, want fallback to A", got.SelectedID)
	}
}

func TestResortKeepsSelectionAndViewport(t *testing.T) {
	b := newBoard(openSet(9), 3)
	b.JumpToPage(2) // offset 3, selection index 3

	before := b.State(model.StatusOpen)
	b.Resort(model.StatusOpen, query.SortSpec{Field: query.FieldPriority, Order: query.OrderDesc})

	after := b.State(model.StatusOpen)
	if after.SelectedID != before.SelectedID {
		t.Errorf("selection = %q, want %q preserved across resort", after.SelectedID, before.SelectedID)
	}
	if after.ScrollOffset != before.ScrollOffset {
		t.Errorf("scrollOffset = %d, want %d: the viewport keeps its position on resort", after.ScrollOffset, before.ScrollOffset)
	}
}

func TestResortPersistCallback(t *testing.T) {
	var persisted []board.SortSpecs
	b := board.New(
		board.WithPageSize(5),
		board.WithSortPersist(func(s board.SortSpecs) { persisted = append(persisted, s) }),
	)
	b.ApplyReload(openSet(3))

	spec := query.SortSpec{Field: query.FieldTitle, Order: query.OrderAsc}
	b.Resort(model.StatusOpen, spec)

	if len(persisted) != 1 {
		t.Fatalf("persist fired %d times, want once per resort", len(persisted))
	}
	if got := persisted[0][model.StatusOpen]; got != spec {
		t.Errorf("persisted spec = %+v, want %+v", got, spec)
	}
	if got := persisted[0][model.StatusClosed]; got != query.DefaultSortSpec() {
		t.Errorf("untouched bucket spec = %+v, want default", got)
	}
}

func TestFocusSaturates(t *testing.T) {
	b := newBoard(openSet(1), 10)

	b.FocusLeft()
	if b.Focused() != 0 {
		t.Errorf("FocusLeft at column 0 moved to %d", b.Focused())
	}
	for i := 0; i < 6; i++ {
		b.FocusRight()
	}
	if b.Focused() != board.NumBuckets-1 {
		t.Errorf("FocusRight should saturate at %d, got %d", board.NumBuckets-1, b.Focused())
	}
	if b.FocusedBucket() != model.StatusClosed {
		t.Errorf("last column = %q, want closed", b.FocusedBucket())
	}
}

func TestSelectByIDSearchesBucketsInOrder(t *testing.T) {
	open := makeIssue("task-10", model.StatusOpen, 1)
	inProg := makeIssue("task-20", model.StatusInProgress, 1)
	closed := makeIssue("task-15", model.StatusClosed, 1)
	b := newBoard(dataset.New([]*model.Issue{open, inProg, closed}, nil), 10)

	// Substring hit: open bucket is searched first.
	if !b.SelectByID("task") {
		t.Fatal("SelectByID(task) found nothing")
	}
	if b.Focused() != 0 || b.State(model.StatusOpen).SelectedID != "task-10" {
		t.Errorf("first match should win in the open bucket")
	}

	// Exact id in a later bucket switches focus there.
	if !b.SelectByID("TASK-15") {
		t.Fatal("SelectByID(TASK-15) found nothing")
	}
	if b.FocusedBucket() != model.StatusClosed {
		t.Errorf("focus = %q, want closed bucket", b.FocusedBucket())
	}

	if b.SelectByID("nope-99") {
		t.Errorf("SelectByID(nope-99) reported a match")
	}
}

func TestSelectByIDLandsOnMatchPage(t *testing.T) {
	b := newBoard(openSet(25), 10)

	if !b.SelectByID(openID(17)) {
		t.Fatal("SelectByID missed an existing id")
	}
	got := b.State(model.StatusOpen)
	if got.ScrollOffset != 10 {
		t.Errorf("scrollOffset = %d, want page-aligned 10", got.ScrollOffset)
	}
	view := b.BucketView(model.StatusOpen)
	if view.Page != 2 {
		t.Errorf("page = %d, want 2", view.Page)
	}
}

func TestPageSizeChangeNotRevalidatedUntilNavigation(t *testing.T) {
	b := newBoard(openSet(30), 10)
	b.JumpToPage(3) // offset 20

	b.SetPageSize(5)
	if got := b.State(model.StatusOpen); got.ScrollOffset != 20 {
		t.Fatalf("offset = %d, want 20 untouched by the page size change", got.ScrollOffset)
	}

	// The next navigation applies the new geometry.
	b.MoveDown()
	got := b.State(model.StatusOpen)
	if got.ScrollOffset != 20 {
		t.Errorf("offset = %d after move inside window, want 20", got.ScrollOffset)
	}
	view := b.BucketView(model.StatusOpen)
	if view.TotalPages != 6 {
		t.Errorf("totalPages = %d under pageSize 5, want 6", view.TotalPages)
	}
}

func TestSetFilterNarrowsBucketAndReconciles(t *testing.T) {
	issues := []*model.Issue{
		makeIssue("o-a0", model.StatusOpen, 2),
		makeIssue("o-a1", model.StatusOpen, 2),
		makeIssue("o-a2", model.StatusOpen, 2),
	}
	issues[1].Assignee = "sam"
	b := newBoard(dataset.New(issues, nil), 10)

	// Select a row the filter will hide.
	b.MoveDown()
	b.MoveDown()
	if got := b.State(model.StatusOpen); got.SelectedID != "o-a2" {
		t.Fatalf("selected = %q before filter, want o-a2", got.SelectedID)
	}

	b.SetFilter(query.Filter{Assignee: "sam"})
	view := b.BucketView(model.StatusOpen)
	if len(view.Items) != 1 || view.Items[0].ID != "o-a1" {
		t.Fatalf("filtered items = %v, want [o-a1]", viewIDs(view))
	}
	if view.SelectedID != "o-a1" || view.ScrollOffset != 0 {
		t.Errorf("selection after filtering out o-a2 = %+v, want first visible row", view)
	}

	// Clearing the filter restores the full bucket; the selection, still
	// visible, stays put.
	b.SetFilter(query.Filter{})
	view = b.BucketView(model.StatusOpen)
	if len(view.Items) != 3 {
		t.Fatalf("items after clearing filter = %d, want 3", len(view.Items))
	}
	if view.SelectedID != "o-a1" {
		t.Errorf("selected = %q after clearing filter, want o-a1 preserved", view.SelectedID)
	}
}

func TestFilterSurvivesReload(t *testing.T) {
	issues := []*model.Issue{
		makeIssue("o-a0", model.StatusOpen, 2),
		makeIssue("o-a1", model.StatusOpen, 2),
	}
	issues[0].Labels = []string{"infra"}
	b := newBoard(dataset.New(issues, nil), 10)
	b.SetFilter(query.Filter{Labels: []string{"infra"}})

	// Reload with one more matching issue; the filter keeps applying.
	next := []*model.Issue{
		makeIssue("o-a0", model.StatusOpen, 2),
		makeIssue("o-a1", model.StatusOpen, 2),
		makeIssue("o-a2", model.StatusOpen, 2),
	}
	next[0].Labels = []string{"infra"}
	next[2].Labels = []string{"infra"}
	b.ApplyReload(dataset.New(next, nil))

	view := b.BucketView(model.StatusOpen)
	if len(view.Items) != 2 {
		t.Fatalf("items after reload = %v, want the 2 labelled ones", viewIDs(view))
	}
	if view.SelectedID != "o-a0" {
		t.Errorf("selected = %q, want o-a0 preserved across reload", view.SelectedID)
	}
}

func viewIDs(v board.View) []string {
	out := make([]string, len(v.Items))
	for i, issue := range v.Items {
		out[i] = issue.ID
	}
	return out
}
