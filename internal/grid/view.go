package grid

// View is the result of one recomputation.
type View[Row any] struct {
	// Rows is the visible page.
	Rows []Row
	// Matched holds every row that passed the filters, sorted. In
	// server-side mode it equals Rows.
	Matched []Row
	// FilteredCount is the number of matching rows, or UnknownTotal.
	FilteredCount int
	PageCount     int
	Pagination    Pagination
	Sorting       Sorting
	Filters       FilterState
	// Footers maps column id to the footer label over the matching rows.
	Footers map[string]string
	Loading bool
}

// CanPrevious reports whether a previous page exists.
func (v View[Row]) CanPrevious() bool {
	return v.Pagination.PageIndex > 0
}

// CanNext reports whether a next page exists. With an unknown page count a
// full page suggests more rows.
func (v View[Row]) CanNext() bool {
	if v.PageCount == UnknownPageCount {
		return len(v.Rows) > 0 && len(v.Rows) >= v.Pagination.PageSize
	}
	return v.Pagination.PageIndex+1 < v.PageCount
}

// CanLast reports whether jumping to the last page is possible.
func (v View[Row]) CanLast() bool {
	return v.PageCount > 0 && v.Pagination.PageIndex < v.PageCount-1
}

// ComputeView filters, sorts and pages rows. The returned pagination has
// its index reset to 0 when it pointed past the last page.
func ComputeView[Row any](
	m *ColumnModel[Row], rows []Row, sorting Sorting, filters FilterState, p Pagination,
) View[Row] {
	matched := SortRows(m, FilterRows(m, rows, filters), sorting)

	count := len(matched)
	pages := PageCount(count, p.PageSize)
	p.PageIndex = ClampPageIndex(p.PageIndex, pages)

	return View[Row]{
		Rows:          PageWindow(matched, p),
		Matched:       matched,
		FilteredCount: count,
		PageCount:     pages,
		Pagination:    p,
		Sorting:       sorting,
		Filters:       filters,
		Footers:       computeFooters(m, matched),
	}
}

func computeFooters[Row any](m *ColumnModel[Row], rows []Row) map[string]string {
	var footers map[string]string
	for i := range m.columns {
		col := &m.columns[i]
		if col.Footer == nil {
			continue
		}
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = col.Value(r)
		}
		if footers == nil {
			footers = make(map[string]string)
		}
		footers[col.ID] = col.Footer(values)
	}
	return footers
}
