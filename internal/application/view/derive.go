// Package view is the view-state derivation engine: a data store for the
// fetched companies and stats, the pure Derive function that turns the
// company list and a query into rows, and the Engine that recomputes rows
// whenever either side changes.
package view

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/domain/query"
)

// Derive filters entities by q and stable-sorts the survivors by
// q.SortField.  It never mutates entities and always returns a fresh,
// non-nil slice.
func Derive(entities []company.Company, q query.State) []company.Company {
	out := make([]company.Company, 0, len(entities))
	needle := strings.ToLower(q.SearchText)
	for _, c := range entities {
		if matches(c, q, needle) {
			out = append(out, c)
		}
	}

	slices.SortStableFunc(out, comparator(q.SortField, q.SortOrder))
	return out
}

func matches(c company.Company, q query.State, needle string) bool {
	if needle != "" && !strings.Contains(strings.ToLower(c.Name), needle) {
		return false
	}
	for f, r := range q.Ranges {
		v := f.Value(c)
		if v.Kind != company.KindNumber || !r.Contains(v.Number) {
			return false
		}
	}
	if q.HighPerformersOnly && !c.IsHighPerformer() {
		return false
	}
	return true
}

// comparator returns the order for field.  Text compares case-insensitively.
// NaN sorts after every number in both directions.
func comparator(field company.Field, order query.SortOrder) func(a, b company.Company) int {
	dir := 1
	if order == query.Descending {
		dir = -1
	}
	if !field.IsNumeric() {
		return func(a, b company.Company) int {
			return dir * strings.Compare(
				strings.ToLower(field.Value(a).Text),
				strings.ToLower(field.Value(b).Text),
			)
		}
	}
	return func(a, b company.Company) int {
		x, y := field.Value(a).Number, field.Value(b).Number
		switch xNaN, yNaN := math.IsNaN(x), math.IsNaN(y); {
		case xNaN && yNaN:
			return 0
		case xNaN:
			return 1
		case yNaN:
			return -1
		}
		return dir * cmp.Compare(x, y)
	}
}
