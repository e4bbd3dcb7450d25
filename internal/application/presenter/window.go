package presenter

import "math"

// WindowRange is the slice of rows a virtual-scroll viewport renders.
type WindowRange struct {
	// Start and End bound the visible rows, End exclusive.
	Start, End int
	// TotalHeight is the height of the full list.
	TotalHeight int
	// OffsetY is where the first visible row is drawn.
	OffsetY int
}

// Window computes the rows visible at scrollTop in a viewport of the given
// height, plus one row of overscan.  A non-positive rowHeight shows every
// row.
func Window(total, rowHeight, viewport int, scrollTop float64) WindowRange {
	if total < 0 {
		total = 0
	}
	if rowHeight <= 0 {
		return WindowRange{Start: 0, End: total}
	}
	if scrollTop < 0 || math.IsNaN(scrollTop) {
		scrollTop = 0
	}
	if bottom := float64(total * rowHeight); scrollTop > bottom {
		scrollTop = bottom
	}
	start := int(scrollTop) / rowHeight
	if start > total {
		start = total
	}
	visible := (viewport + rowHeight - 1) / rowHeight
	if visible < 0 {
		visible = 0
	}
	end := start + visible + 1
	if end > total {
		end = total
	}
	return WindowRange{
		Start:       start,
		End:         end,
		TotalHeight: total * rowHeight,
		OffsetY:     start * rowHeight,
	}
}

// Page returns rows[offset:offset+limit], clamped to the slice.  A
// non-positive limit means no limit.
func Page[T any](rows []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return rows[len(rows):]
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
