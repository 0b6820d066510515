// Package query holds the pure sorting and filtering primitives the views
// apply to bucket contents. Nothing here touches view state or I/O.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/strandview/strand/pkg/model"
)

// Field names a sortable issue attribute. The string values are what the
// sort-state file persists.
type Field string

const (
	FieldPriority Field = "priority"
	FieldCreated  Field = "created"
	FieldUpdated  Field = "updated"
	FieldTitle    Field = "title"
)

// Fields lists the sortable attributes in menu order.
func Fields() []Field {
	return []Field{FieldPriority, FieldCreated, FieldUpdated, FieldTitle}
}

func (f Field) IsValid() bool {
	switch f {
	case FieldPriority, FieldCreated, FieldUpdated, FieldTitle:
		return true
	}
	return false
}

// Label returns the human-readable name for menus and the footer.
func (f Field) Label() string {
	switch f {
	case FieldPriority:
		return "Priority"
	case FieldCreated:
		return "Created"
	case FieldUpdated:
		return "Updated"
	case FieldTitle:
		return "Title"
	default:
		return "Unknown"
	}
}

// DefaultOrder is the natural direction for the field: P0 first for
// priority, newest first for dates, A-Z for titles.
func (f Field) DefaultOrder() Order {
	switch f {
	case FieldCreated, FieldUpdated:
		return OrderDesc
	default:
		return OrderAsc
	}
}

// Order is a sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

func (o Order) IsValid() bool {
	return o == OrderAsc || o == OrderDesc
}

// Toggle returns the opposite direction.
func (o Order) Toggle() Order {
	if o == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}

// Indicator returns the arrow shown next to the active sort field.
func (o Order) Indicator() string {
	if o == OrderAsc {
		return "▲"
	}
	return "▼"
}

// SortSpec is one bucket's sort setting: a single key and a direction.
type SortSpec struct {
	Field Field `yaml:"field"`
	Order Order `yaml:"order"`
}

// DefaultSortSpec is what a bucket uses before the user picks anything.
func DefaultSortSpec() SortSpec {
	return SortSpec{Field: FieldPriority, Order: OrderAsc}
}

// Normalize falls back to the default for unknown field or order values,
// which is how stale sort-state files degrade.
func (s SortSpec) Normalize() SortSpec {
	if !s.Field.IsValid() {
		return DefaultSortSpec()
	}
	if !s.Order.IsValid() {
		s.Order = s.Field.DefaultOrder()
	}
	return s
}

// Sorted returns a stably sorted copy of issues. The input slice is left
// untouched; bucket slices are shared with the Dataset and must never be
// reordered in place. Ties keep their prior relative order in both
// directions (descending negates the comparator rather than reversing the
// result), which makes re-sorting by the same spec a no-op.
func Sorted(issues []*model.Issue, spec SortSpec) []*model.Issue {
	out := make([]*model.Issue, len(issues))
	copy(out, issues)

	spec = spec.Normalize()
	sort.SliceStable(out, func(i, j int) bool {
		c := compareField(out[i], out[j], spec.Field)
		if spec.Order == OrderDesc {
			c = -c
		}
		return c < 0
	})
	return out
}

// compareField orders a before b when negative. Updated falls back to
// Created when an issue has never been touched since load.
func compareField(a, b *model.Issue, field Field) int {
	switch field {
	case FieldPriority:
		return a.Priority - b.Priority
	case FieldCreated:
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case FieldUpdated:
		at, bt := a.UpdatedAt, b.UpdatedAt
		if at.IsZero() {
			at = a.CreatedAt
		}
		if bt.IsZero() {
			bt = b.CreatedAt
		}
		return compareTimes(at, bt)
	case FieldTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}
