// Package board implements the navigation state machine behind the column
// view: per-bucket selection anchored to stable issue ids, page-aligned
// scrolling, and a focused column. All mutation goes through the named
// transition methods; the render layer only ever reads views.
package board

import (
	"strings"

	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/model"
	"github.com/strandview/strand/pkg/query"
)

// NumBuckets is the number of board columns.
const NumBuckets = 4

// DefaultPageSize is used until the host reports a real terminal height.
const DefaultPageSize = 10

// Buckets returns the column statuses in display order.
func Buckets() [NumBuckets]model.Status {
	return [NumBuckets]model.Status{
		model.StatusOpen,
		model.StatusInProgress,
		model.StatusBlocked,
		model.StatusClosed,
	}
}

// BucketState is one column's navigation state. SelectedID survives reloads
// and resorts as long as the id remains in the bucket; ScrollOffset is only
// reset when the selection is lost.
type BucketState struct {
	SelectedID   string
	ScrollOffset int
}

// View is the render model for one column.
type View struct {
	Bucket       model.Status
	Items        []*model.Issue
	SelectedID   string
	ScrollOffset int
	Page         int
	TotalPages   int
}

// SortSpecs maps buckets to their active sort setting.
type SortSpecs map[model.Status]query.SortSpec

// Option configures a Board at construction.
type Option func(*Board)

// WithSortSpecs seeds the per-bucket sort settings, typically from the
// persisted sort state.
func WithSortSpecs(specs SortSpecs) Option {
	return func(b *Board) {
		for i, bucket := range Buckets() {
			if spec, ok := specs[bucket]; ok {
				b.specs[i] = spec.Normalize()
			}
		}
	}
}

// WithSortPersist installs the callback invoked after every Resort with the
// full current spec set.
func WithSortPersist(persist func(SortSpecs)) Option {
	return func(b *Board) {
		b.persist = persist
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(b *Board) {
		b.setPageSize(n)
	}
}

// Board holds the 4 bucket states, the focused column, and the filtered,
// sorted per-bucket lists for the current dataset.
type Board struct {
	ds       *dataset.Dataset
	ordered  [NumBuckets][]*model.Issue
	states   [NumBuckets]BucketState
	specs    [NumBuckets]query.SortSpec
	filter   query.Filter
	focused  int
	pageSize int
	persist  func(SortSpecs)
}

// New creates a board with empty selections. Call ApplyReload with the
// first dataset to populate it.
func New(opts ...Option) *Board {
	b := &Board{pageSize: DefaultPageSize}
	for i := range b.specs {
		b.specs[i] = query.DefaultSortSpec()
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetPageSize records the page size derived from the terminal height.
// Existing scroll offsets are not re-validated until the next navigation
// touches their bucket.
func (b *Board) SetPageSize(n int) {
	b.setPageSize(n)
}

func (b *Board) setPageSize(n int) {
	if n < 1 {
		n = 1
	}
	b.pageSize = n
}

// PageSize returns the current page size.
func (b *Board) PageSize() int {
	return b.pageSize
}

// ApplyReload swaps in a new dataset, re-sorts every bucket under its
// current spec, and reconciles selections: a bucket whose selected id
// survived keeps both its selection and its scroll offset, anything else
// falls back to the first element with the scroll reset.
func (b *Board) ApplyReload(ds *dataset.Dataset) {
	b.ds = ds
	for i, bucket := range Buckets() {
		b.ordered[i] = b.listFor(i, bucket)
		b.reconcile(i)
	}
}

// listFor computes one bucket's visible list: dataset contents narrowed by
// the active filter, then ordered by the bucket's spec.
func (b *Board) listFor(idx int, bucket model.Status) []*model.Issue {
	if b.ds == nil {
		return nil
	}
	items := b.ds.Bucket(bucket)
	if !b.filter.IsZero() {
		items = query.Apply(items, b.filter)
	}
	return query.Sorted(items, b.specs[idx])
}

// Resort changes one bucket's sort spec and reorders it. Membership is
// unchanged, so the selection necessarily survives; the scroll offset is
// deliberately left where it was (the viewport keeps its position, the
// highlight is the anchor). The persist callback fires after the change.
func (b *Board) Resort(bucket model.Status, spec query.SortSpec) {
	idx, ok := bucketIndex(bucket)
	if !ok {
		return
	}
	b.specs[idx] = spec.Normalize()
	b.ordered[idx] = b.listFor(idx, bucket)
	b.reconcileKeepScroll(idx)
	if b.persist != nil {
		b.persist(b.SortSpecs())
	}
}

// SetFilter narrows every bucket to issues matching f and reconciles the
// selections under the reload rule: a selected id still visible keeps its
// place, a filtered-out one falls back to the first visible row. A zero
// filter restores the full contents.
func (b *Board) SetFilter(f query.Filter) {
	b.filter = f
	if b.ds == nil {
		return
	}
	for i, bucket := range Buckets() {
		b.ordered[i] = b.listFor(i, bucket)
		b.reconcile(i)
	}
}

// Filter returns the active filter, zero when none is set.
func (b *Board) Filter() query.Filter {
	return b.filter
}

// SortSpec returns the active spec for a bucket.
func (b *Board) SortSpec(bucket model.Status) query.SortSpec {
	if idx, ok := bucketIndex(bucket); ok {
		return b.specs[idx]
	}
	return query.DefaultSortSpec()
}

// SortSpecs returns a copy of every bucket's active spec.
func (b *Board) SortSpecs() SortSpecs {
	out := make(SortSpecs, NumBuckets)
	for i, bucket := range Buckets() {
		out[bucket] = b.specs[i]
	}
	return out
}

// reconcile validates a bucket's selection against its current contents.
func (b *Board) reconcile(idx int) {
	state := &b.states[idx]
	if state.SelectedID != "" && b.indexOf(idx, state.SelectedID) >= 0 {
		return
	}
	if len(b.ordered[idx]) > 0 {
		state.SelectedID = b.ordered[idx][0].ID
	} else {
		state.SelectedID = ""
	}
	state.ScrollOffset = 0
}

// reconcileKeepScroll is reconcile for resorts: the selection fallback is
// the same, but a surviving selection keeps the viewport untouched even
// though the row under the offset has likely changed.
func (b *Board) reconcileKeepScroll(idx int) {
	state := &b.states[idx]
	if state.SelectedID != "" && b.indexOf(idx, state.SelectedID) >= 0 {
		return
	}
	b.reconcile(idx)
}

// FocusLeft moves the focused column left, saturating at the first column.
func (b *Board) FocusLeft() {
	if b.focused > 0 {
		b.focused--
	}
}

// FocusRight moves the focused column right, saturating at the last column.
func (b *Board) FocusRight() {
	if b.focused < NumBuckets-1 {
		b.focused++
	}
}

// FocusColumn jumps straight to a column by index, clamped to range.
func (b *Board) FocusColumn(i int) {
	if i < 0 {
		i = 0
	}
	if i > NumBuckets-1 {
		i = NumBuckets - 1
	}
	b.focused = i
}

// Focused returns the focused column index.
func (b *Board) Focused() int {
	return b.focused
}

// FocusedBucket returns the focused column's status.
func (b *Board) FocusedBucket() model.Status {
	return Buckets()[b.focused]
}

// MoveUp moves the focused bucket's selection up one row, pulling the
// window along when the selection crosses its top edge.
func (b *Board) MoveUp() {
	b.moveBy(-1)
}

// MoveDown moves the focused bucket's selection down one row, pulling the
// window along when the selection crosses its bottom edge.
func (b *Board) MoveDown() {
	b.moveBy(1)
}

func (b *Board) moveBy(delta int) {
	idx := b.focused
	list := b.ordered[idx]
	if len(list) == 0 {
		return
	}
	state := &b.states[idx]

	cur := b.indexOf(idx, state.SelectedID)
	if cur < 0 {
		// Selection lost between reconciliations; recover at the top.
		state.SelectedID = list[0].ID
		state.ScrollOffset = 0
		return
	}

	next := cur + delta
	if next < 0 {
		next = 0
	}
	if next > len(list)-1 {
		next = len(list) - 1
	}
	state.SelectedID = list[next].ID

	// Bring the selection exactly to the near edge of the window.
	if next < state.ScrollOffset {
		state.ScrollOffset = next
	} else if next >= state.ScrollOffset+b.pageSize {
		state.ScrollOffset = next - b.pageSize + 1
	}
}

// JumpToFirst selects the first row of the focused bucket.
func (b *Board) JumpToFirst() {
	idx := b.focused
	list := b.ordered[idx]
	if len(list) == 0 {
		return
	}
	b.states[idx].SelectedID = list[0].ID
	b.states[idx].ScrollOffset = 0
}

// JumpToLast selects the last row of the focused bucket with the window
// pushed to the bottom.
func (b *Board) JumpToLast() {
	idx := b.focused
	list := b.ordered[idx]
	if len(list) == 0 {
		return
	}
	last := len(list) - 1
	b.states[idx].SelectedID = list[last].ID
	offset := last - b.pageSize + 1
	if offset < 0 {
		offset = 0
	}
	b.states[idx].ScrollOffset = offset
}

// JumpToPage jumps the focused bucket to page n (1-based), clamped to the
// valid range. An empty bucket has one page and keeps its null selection.
func (b *Board) JumpToPage(n int) {
	idx := b.focused
	list := b.ordered[idx]
	total := totalPages(len(list), b.pageSize)
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	if len(list) == 0 {
		b.states[idx].SelectedID = ""
		b.states[idx].ScrollOffset = 0
		return
	}
	offset := (n - 1) * b.pageSize
	if offset > len(list)-1 {
		offset = len(list) - 1
	}
	b.states[idx].ScrollOffset = (n - 1) * b.pageSize
	b.states[idx].SelectedID = list[offset].ID
}

// SelectByID searches the buckets in display order for an id matching the
// query, exact or substring, case-insensitively. The first match wins:
// focus switches to its column, the selection moves to it, and the scroll
// lands on the page containing it.
func (b *Board) SelectByID(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return false
	}
	for idx := range Buckets() {
		for pos, issue := range b.ordered[idx] {
			id := strings.ToLower(issue.ID)
			if id == q || strings.Contains(id, q) {
				b.focused = idx
				b.states[idx].SelectedID = issue.ID
				b.states[idx].ScrollOffset = (pos / b.pageSize) * b.pageSize
				return true
			}
		}
	}
	return false
}

// BucketView returns the render model for one column. Items is shared with
// the board and must be treated as read-only.
func (b *Board) BucketView(bucket model.Status) View {
	idx, ok := bucketIndex(bucket)
	if !ok {
		return View{Bucket: bucket, TotalPages: 1, Page: 1}
	}
	list := b.ordered[idx]
	state := b.states[idx]
	return View{
		Bucket:       bucket,
		Items:        list,
		SelectedID:   state.SelectedID,
		ScrollOffset: state.ScrollOffset,
		Page:         state.ScrollOffset/b.pageSize + 1,
		TotalPages:   totalPages(len(list), b.pageSize),
	}
}

// FocusedView returns the render model for the focused column.
func (b *Board) FocusedView() View {
	return b.BucketView(b.FocusedBucket())
}

// SelectedIssue returns the focused bucket's selected issue, or nil when
// the bucket is empty.
func (b *Board) SelectedIssue() *model.Issue {
	id := b.states[b.focused].SelectedID
	if id == "" {
		return nil
	}
	issue, ok := b.ds.Get(id)
	if !ok {
		return nil
	}
	return issue
}

// State exposes one bucket's raw navigation state.
func (b *Board) State(bucket model.Status) BucketState {
	if idx, ok := bucketIndex(bucket); ok {
		return b.states[idx]
	}
	return BucketState{}
}

func (b *Board) indexOf(idx int, id string) int {
	if id == "" {
		return -1
	}
	for i, issue := range b.ordered[idx] {
		if issue.ID == id {
			return i
		}
	}
	return -1
}

func totalPages(count, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func bucketIndex(bucket model.Status) (int, bool) {
	for i, s := range Buckets() {
		if s == bucket {
			return i, true
		}
	}
	return 0, false
}
