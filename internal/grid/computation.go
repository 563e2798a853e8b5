package grid

// ComputeInput is the state a ViewComputation works from.
type ComputeInput[Row any] struct {
	Model      *ColumnModel[Row]
	Rows       []Row
	TotalRows  int
	Sorting    Sorting
	Filters    FilterState
	Pagination Pagination
}

// ViewComputation turns engine state into a View. The engine holds exactly
// one for its lifetime.
type ViewComputation[Row any] interface {
	Compute(in ComputeInput[Row]) View[Row]
	// Delegated reports whether the host computes views (server-side mode).
	Delegated() bool
}

// LocalComputation filters, sorts and pages the full dataset in memory.
type LocalComputation[Row any] struct{}

func (LocalComputation[Row]) Compute(in ComputeInput[Row]) View[Row] {
	return ComputeView(in.Model, in.Rows, in.Sorting, in.Filters, in.Pagination)
}

func (LocalComputation[Row]) Delegated() bool { return false }

// DelegatedComputation shows the host-supplied page as-is and derives the
// page count from the host's total.
type DelegatedComputation[Row any] struct{}

func (DelegatedComputation[Row]) Compute(in ComputeInput[Row]) View[Row] {
	rows := make([]Row, len(in.Rows))
	copy(rows, in.Rows)

	total := in.TotalRows
	if total < 0 {
		total = UnknownTotal
	}
	pages := PageCount(total, in.Pagination.PageSize)
	p := in.Pagination
	p.PageIndex = ClampPageIndex(p.PageIndex, pages)

	return View[Row]{
		Rows:          rows,
		Matched:       rows,
		FilteredCount: total,
		PageCount:     pages,
		Pagination:    p,
		Sorting:       in.Sorting,
		Filters:       in.Filters,
		Footers:       computeFooters(in.Model, rows),
	}
}

func (DelegatedComputation[Row]) Delegated() bool { return true }
