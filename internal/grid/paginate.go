package grid

// PageCount returns ceil(total/size), 0 for an empty set and
// UnknownPageCount when total is negative.
func PageCount(total, size int) int {
	if total < 0 {
		return UnknownPageCount
	}
	if total == 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// NormalizePageSize returns size if it is one of options, otherwise the
// nearest option. Ties go to the smaller option. With no options any
// positive size is accepted.
func NormalizePageSize(size int, options []int) int {
	if len(options) == 0 {
		if size > 0 {
			return size
		}
		return DefaultPageSize
	}

	best := -1
	bestDist := 0
	for _, opt := range options {
		if opt <= 0 {
			continue
		}
		if opt == size {
			return size
		}
		dist := opt - size
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist || (dist == bestDist && opt < best) {
			best, bestDist = opt, dist
		}
	}
	if best < 0 {
		return DefaultPageSize
	}
	return best
}

// ClampPageIndex resets an index that points past the last page to 0.
// Negative indexes become 0. With an unknown page count the index is kept.
func ClampPageIndex(index, pageCount int) int {
	if index < 0 {
		return 0
	}
	if pageCount == UnknownPageCount {
		return index
	}
	if index >= pageCount {
		return 0
	}
	return index
}

// PageWindow returns the rows of one page.
func PageWindow[Row any](rows []Row, p Pagination) []Row {
	if p.PageSize <= 0 {
		return nil
	}
	start := p.PageIndex * p.PageSize
	if start >= len(rows) || start < 0 {
		return []Row{}
	}
	end := min(start+p.PageSize, len(rows))
	out := make([]Row, end-start)
	copy(out, rows[start:end])
	return out
}
