package grid

// AggregateState summarises the selection over the visible page.
type AggregateState struct {
	AllSelected  bool `json:"allSelected"`
	SomeSelected bool `json:"someSelected"`
}

// Selection is a set of row identities. Insertion order is kept so that
// batch handlers see rows in the order they were picked.
type Selection[Key comparable] struct {
	order []Key
	set   map[Key]struct{}
}

// NewSelection returns an empty selection.
func NewSelection[Key comparable]() *Selection[Key] {
	return &Selection[Key]{set: make(map[Key]struct{})}
}

// Has reports whether id is selected.
func (s *Selection[Key]) Has(id Key) bool {
	_, ok := s.set[id]
	return ok
}

// Len returns the number of selected identities.
func (s *Selection[Key]) Len() int {
	return len(s.set)
}

// Keys returns the selected identities in selection order.
func (s *Selection[Key]) Keys() []Key {
	out := make([]Key, len(s.order))
	copy(out, s.order)
	return out
}

// Toggle flips membership of id.
func (s *Selection[Key]) Toggle(id Key) {
	if s.Has(id) {
		s.remove(id)
		return
	}
	s.add(id)
}

// ToggleAllOnPage deselects every visible id when all of them are selected
// and selects all of them otherwise. Ids outside the page are untouched.
func (s *Selection[Key]) ToggleAllOnPage(visible []Key) {
	if s.Aggregate(visible).AllSelected {
		for _, id := range visible {
			s.remove(id)
		}
		return
	}
	for _, id := range visible {
		s.add(id)
	}
}

// Aggregate reports the all/some state over the visible ids.
func (s *Selection[Key]) Aggregate(visible []Key) AggregateState {
	if len(visible) == 0 {
		return AggregateState{}
	}
	selected := 0
	for _, id := range visible {
		if s.Has(id) {
			selected++
		}
	}
	all := selected == len(visible)
	return AggregateState{
		AllSelected:  all,
		SomeSelected: selected > 0 && !all,
	}
}

// Clear empties the selection.
func (s *Selection[Key]) Clear() {
	s.order = nil
	clear(s.set)
}

// Retain drops every identity for which keep returns false and reports
// whether anything was removed.
func (s *Selection[Key]) Retain(keep func(Key) bool) bool {
	kept := s.order[:0]
	removed := false
	for _, id := range s.order {
		if keep(id) {
			kept = append(kept, id)
			continue
		}
		delete(s.set, id)
		removed = true
	}
	s.order = kept
	return removed
}

func (s *Selection[Key]) add(id Key) {
	if s.Has(id) {
		return
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection[Key]) remove(id Key) {
	if !s.Has(id) {
		return
	}
	delete(s.set, id)
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
