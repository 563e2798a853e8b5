package grid

import "slices"

// SortRows returns a sorted copy of rows. The sort is stable: rows equal on
// every key keep their input order. Missing values sort first in either
// direction. Unknown and unsortable columns are skipped.
func SortRows[Row any](m *ColumnModel[Row], rows []Row, sorting Sorting) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	type key struct {
		col  *Column[Row]
		desc bool
	}
	var keys []key
	for _, spec := range sorting.Normalize() {
		col, ok := m.Lookup(spec.ColumnID)
		if !ok || !col.Sortable {
			continue
		}
		keys = append(keys, key{col: col, desc: spec.Direction == SortDesc})
	}
	if len(keys) == 0 {
		return out
	}

	slices.SortStableFunc(out, func(a, b Row) int {
		for _, k := range keys {
			va, vb := k.col.Value(a), k.col.Value(b)
			ma, mb := IsMissing(va), IsMissing(vb)
			switch {
			case ma && mb:
				continue
			case ma:
				return -1
			case mb:
				return 1
			}

			c := CompareValues(va, vb, k.col.Type)
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

// ToggleSort advances a column through none -> asc -> desc -> none.
//
// Without multi the result holds only the toggled column, replacing any
// other keys (single-sort default). With multi the column is updated in
// place, appended as the lowest-priority key, or removed when its cycle
// returns to none.
func ToggleSort(sorting Sorting, columnID string, multi bool) Sorting {
	sorting = sorting.Normalize()
	next := sorting.Direction(columnID).next()

	if !multi {
		if next == SortNone {
			return Sorting{}
		}
		return Sorting{{ColumnID: columnID, Direction: next}}
	}

	i := sorting.Index(columnID)
	switch {
	case i < 0:
		return append(sorting, SortSpec{ColumnID: columnID, Direction: next})
	case next == SortNone:
		return slices.Delete(sorting, i, i+1)
	default:
		sorting[i].Direction = next
		return sorting
	}
}
