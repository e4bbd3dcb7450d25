// Package query holds the user-controlled view parameters: search text, sort
// field and order, inclusive numeric range filters and the high-performer
// toggle.  State is a plain value; Clone before sharing it across goroutines.
package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/pkg/errors"
)

// SortOrder is the direction of the sort stage.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder accepts asc/ascending and desc/descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", errors.InvalidParam("invalid sort order").WithDetail(s)
}

// Flip returns the opposite order.
func (o SortOrder) Flip() SortOrder {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// Range is an inclusive numeric bound.  Min > Max matches nothing.
type Range struct {
	Min float64
	Max float64
}

// Full is the unrestricted range.
var Full = Range{Min: math.Inf(-1), Max: math.Inf(1)}

// Contains reports whether v lies in [Min, Max].  NaN is never contained.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Empty reports whether no value can satisfy r.
func (r Range) Empty() bool {
	return r.Min > r.Max
}

// State is the complete query.  The zero value is not the default; use
// Default.
type State struct {
	SearchText         string
	SortField          company.Field
	SortOrder          SortOrder
	Ranges             map[company.Field]Range
	HighPerformersOnly bool
}

// Default returns empty search, sort by name ascending and no filters.
func Default() State {
	return State{
		SortField: company.FieldName,
		SortOrder: Ascending,
	}
}

// SetSearchText replaces the search text verbatim.
func (s *State) SetSearchText(text string) {
	s.SearchText = text
}

// SetSort sets field and order explicitly.  An unrecognised order is
// treated as ascending.
func (s *State) SetSort(field company.Field, order SortOrder) {
	if order != Descending {
		order = Ascending
	}
	s.SortField = field
	s.SortOrder = order
}

// ToggleSort applies the column-header rule: the active field flips its
// order, any other field becomes active in ascending order.
func (s *State) ToggleSort(field company.Field) {
	if s.SortField == field {
		s.SortOrder = s.SortOrder.Flip()
		return
	}
	s.SortField = field
	s.SortOrder = Ascending
}

// SetRangeFilter restricts field to [min, max].  Only numeric fields accept
// a range; min > max is stored and matches nothing.
func (s *State) SetRangeFilter(field company.Field, min, max float64) error {
	if !field.IsNumeric() {
		return errors.New(errors.ErrCodeUnknownFilter, "range filter requires a numeric field").WithDetail(field.String())
	}
	ranges := make(map[company.Field]Range, len(s.Ranges)+1)
	for k, v := range s.Ranges {
		ranges[k] = v
	}
	ranges[field] = Range{Min: min, Max: max}
	s.Ranges = ranges
	return nil
}

// ClearRangeFilter removes the range on field, if any.
func (s *State) ClearRangeFilter(field company.Field) {
	if _, ok := s.Ranges[field]; !ok {
		return
	}
	ranges := make(map[company.Field]Range, len(s.Ranges))
	for k, v := range s.Ranges {
		if k != field {
			ranges[k] = v
		}
	}
	if len(ranges) == 0 {
		ranges = nil
	}
	s.Ranges = ranges
}

// SetHighPerformersOnly toggles the allowance-rate > 0.8 filter.
func (s *State) SetHighPerformersOnly(on bool) {
	s.HighPerformersOnly = on
}

// ResetToDefaults restores Default.
func (s *State) ResetToDefaults() {
	*s = Default()
}

// Clone returns a deep copy.  Setters replace the Ranges map rather than
// writing into it, so a shallow copy is already safe; Clone is for callers
// that intend to mutate the map themselves.
func (s State) Clone() State {
	c := s
	if s.Ranges != nil {
		c.Ranges = make(map[company.Field]Range, len(s.Ranges))
		for k, v := range s.Ranges {
			c.Ranges[k] = v
		}
	}
	return c
}

// Equal reports whether two states select the same view.
func (s State) Equal(o State) bool {
	if s.SearchText != o.SearchText || s.SortField != o.SortField ||
		s.SortOrder != o.SortOrder || s.HighPerformersOnly != o.HighPerformersOnly {
		return false
	}
	if len(s.Ranges) != len(o.Ranges) {
		return false
	}
	for k, v := range s.Ranges {
		w, ok := o.Ranges[k]
		if !ok || !company.SameFloat(v.Min, w.Min) || !company.SameFloat(v.Max, w.Max) {
			return false
		}
	}
	return true
}

// String renders the state for logs and the interactive prompt.
func (s State) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "sort=%s:%s", s.SortField, s.SortOrder)
	if s.SearchText != "" {
		fmt.Fprintf(&sb, " search=%q", s.SearchText)
	}
	fields := make([]string, 0, len(s.Ranges))
	for f := range s.Ranges {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		r := s.Ranges[company.Field(f)]
		fmt.Fprintf(&sb, " %s=[%g,%g]", f, r.Min, r.Max)
	}
	if s.HighPerformersOnly {
		sb.WriteString(" high-performers")
	}
	return sb.String()
}

// ParseRangeName resolves a filter name to the numeric field it restricts.
func ParseRangeName(name string) (company.Field, error) {
	f, err := company.ParseField(name)
	if err != nil || !f.IsNumeric() {
		return "", errors.New(errors.ErrCodeUnknownFilter, "unknown range filter").WithDetail(name)
	}
	return f, nil
}
