package grid

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ChangeKind identifies which part of the state a transition touches.
type ChangeKind int

const (
	ChangeSorting ChangeKind = iota
	ChangeColumnFilters
	ChangeGlobalFilter
	ChangePagination
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSorting:
		return "sorting"
	case ChangeColumnFilters:
		return "columnFilters"
	case ChangeGlobalFilter:
		return "globalFilter"
	case ChangePagination:
		return "pagination"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// StateChange is a transition request for OnStateChange. Only the field
// matching Kind is read.
type StateChange struct {
	Kind          ChangeKind
	Sorting       Sorting
	ColumnFilters []ColumnFilter
	GlobalFilter  string
	Pagination    Pagination
}

// changed is a set of ChangeKind bits.
type changed uint8

func (c changed) has(k ChangeKind) bool { return c&(1<<k) != 0 }
func (c *changed) add(k ChangeKind)     { *c |= 1 << k }

const (
	debounceGlobal  = "global"
	debounceColumns = "columns"
)

// Engine holds grid state and produces views. It is safe for concurrent
// use; host callbacks run after the engine's lock is released, so they may
// call back into the engine.
type Engine[Row any, Key comparable] struct {
	model     *ColumnModel[Row]
	comp      ViewComputation[Row]
	rowKey    func(Row) Key
	pageSizes []int
	server    ServerSideConfig
	export    ExportConfig[Row]
	sel       SelectionConfig[Row, Key]
	onDebug   func(Snapshot)
	log       *slog.Logger
	debounce  *debouncer

	mu         sync.Mutex
	rows       []Row
	byKey      map[Key]Row
	total      int
	loading    bool
	sorting    Sorting
	filters    FilterState
	pagination Pagination
	selection  *Selection[Key]
	// selectedRows remembers the row behind each selected identity so a
	// retained selection can still be resolved after its page is gone.
	selectedRows     map[Key]Row
	view             View[Row]
	gen              uint64
	applied          uint64
	pendingPageReset bool
	closed           bool
}

// New validates cfg and builds an engine with its initial view computed.
func New[Row any, Key comparable](cfg Config[Row, Key]) (*Engine[Row, Key], error) {
	model, err := NewColumnModel(cfg.Columns)
	if err != nil {
		return nil, err
	}

	e := &Engine[Row, Key]{
		model:        model,
		rowKey:       cfg.RowKey,
		pageSizes:    append([]int(nil), cfg.PageSizeOptions...),
		onDebug:      cfg.OnDebugSnapshot,
		log:          cfg.Logger,
		loading:      cfg.Loading,
		selection:    NewSelection[Key](),
		selectedRows: make(map[Key]Row),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.log = e.log.With("component", "grid")

	if cfg.ServerSide != nil && cfg.ServerSide.Enabled {
		e.server = *cfg.ServerSide
		e.comp = DelegatedComputation[Row]{}
		e.total = cfg.ServerSide.TotalRows
		if d := e.server.debounce(); d > 0 {
			e.debounce = newDebouncer(d, cfg.TimerFunc)
		}
	} else {
		e.comp = LocalComputation[Row]{}
	}
	if cfg.Export != nil {
		e.export = *cfg.Export
	}
	if cfg.Selection != nil {
		e.sel = *cfg.Selection
		if e.sel.Enabled && e.rowKey == nil {
			return nil, ErrNoRowKey
		}
	}

	if e.sorting, err = e.validateSorting(cfg.InitialSorting); err != nil {
		return nil, err
	}
	filters := normalizeColumnFilters(cfg.InitialColumnFilters)
	for _, cf := range filters {
		if err := e.validateColumnFilter(cf); err != nil {
			return nil, err
		}
	}
	e.filters = FilterState{Global: cfg.InitialGlobalFilter, Columns: filters}
	e.pagination = Pagination{PageSize: NormalizePageSize(cfg.DefaultPageSize, e.pageSizes)}

	e.setRows(cfg.Data)
	e.recompute()
	return e, nil
}

// ServerSide reports whether the engine delegates computation to the host.
func (e *Engine[Row, Key]) ServerSide() bool {
	return e.comp.Delegated()
}

// Model returns the engine's column model.
func (e *Engine[Row, Key]) Model() *ColumnModel[Row] {
	return e.model
}

// PageSizeOptions returns the configured page size options.
func (e *Engine[Row, Key]) PageSizeOptions() []int {
	return append([]int(nil), e.pageSizes...)
}

// BatchActions returns the registered batch actions.
func (e *Engine[Row, Key]) BatchActions() []BatchAction {
	return append([]BatchAction(nil), e.sel.BatchActions...)
}

// SelectionEnabled reports whether row selection is enabled.
func (e *Engine[Row, Key]) SelectionEnabled() bool {
	return e.sel.Enabled
}

// ExportEnabled reports whether export is enabled.
func (e *Engine[Row, Key]) ExportEnabled() bool {
	return e.export.Enabled
}

// View returns the current view.
func (e *Engine[Row, Key]) View() View[Row] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// State returns the current sort, filter and page state.
func (e *Engine[Row, Key]) State() Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query()
}

// OnStateChange applies a transition of the given kind.
func (e *Engine[Row, Key]) OnStateChange(c StateChange) error {
	switch c.Kind {
	case ChangeSorting:
		return e.SetSorting(c.Sorting)
	case ChangeColumnFilters:
		return e.SetColumnFilters(c.ColumnFilters)
	case ChangeGlobalFilter:
		return e.SetGlobalFilter(c.GlobalFilter)
	case ChangePagination:
		return e.SetPagination(c.Pagination)
	default:
		return fmt.Errorf("grid: unknown change kind %v", c.Kind)
	}
}

// SetSorting replaces the sort list. Unsortable columns are dropped.
func (e *Engine[Row, Key]) SetSorting(s Sorting) error {
	return e.commit(func() (changed, error) {
		next, err := e.validateSorting(s)
		if err != nil {
			return 0, err
		}
		var c changed
		if !next.Equal(e.sorting) {
			e.sorting = next
			c.add(ChangeSorting)
		}
		return c, nil
	})
}

// ToggleSort cycles a column's sort direction; see ToggleSort.
func (e *Engine[Row, Key]) ToggleSort(columnID string, multi bool) error {
	return e.commit(func() (changed, error) {
		col, ok := e.model.Lookup(columnID)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
		}
		if !col.Sortable {
			return 0, nil
		}
		e.sorting = ToggleSort(e.sorting, columnID, multi)
		var c changed
		c.add(ChangeSorting)
		return c, nil
	})
}

// SetGlobalFilter replaces the global filter and returns to the first page.
func (e *Engine[Row, Key]) SetGlobalFilter(value string) error {
	return e.commit(func() (changed, error) {
		var c changed
		if value == e.filters.Global {
			return c, nil
		}
		e.filters.Global = value
		c.add(ChangeGlobalFilter)
		e.resetPage(&c)
		return c, nil
	})
}

// SetColumnFilter sets or replaces the filter for one column. An empty
// value removes it. Returns to the first page.
func (e *Engine[Row, Key]) SetColumnFilter(columnID string, op FilterOperator, value string) error {
	cf := ColumnFilter{ColumnID: columnID, Operator: op, Value: value}
	return e.commit(func() (changed, error) {
		if err := e.validateColumnFilter(cf); err != nil {
			return 0, err
		}
		return e.replaceColumnFilters(withColumnFilter(e.filters.Columns, cf)), nil
	})
}

// ClearColumnFilter removes the filter for one column.
func (e *Engine[Row, Key]) ClearColumnFilter(columnID string) error {
	return e.SetColumnFilter(columnID, "", "")
}

// SetColumnFilters replaces every column filter.
func (e *Engine[Row, Key]) SetColumnFilters(filters []ColumnFilter) error {
	return e.commit(func() (changed, error) {
		next := normalizeColumnFilters(filters)
		for _, cf := range next {
			if err := e.validateColumnFilter(cf); err != nil {
				return 0, err
			}
		}
		return e.replaceColumnFilters(next), nil
	})
}

// ClearFilters removes the global and every column filter.
func (e *Engine[Row, Key]) ClearFilters() error {
	return e.commit(func() (changed, error) {
		c := e.replaceColumnFilters(nil)
		if e.filters.Global != "" {
			e.filters.Global = ""
			c.add(ChangeGlobalFilter)
			e.resetPage(&c)
		}
		return c, nil
	})
}

// SetPagination applies a page size and index together. A changed size
// returns to the first page.
func (e *Engine[Row, Key]) SetPagination(p Pagination) error {
	return e.commit(func() (changed, error) {
		var c changed
		size := NormalizePageSize(p.PageSize, e.pageSizes)
		index := p.PageIndex
		if size != e.pagination.PageSize {
			index = 0
		} else {
			index = ClampPageIndex(index, e.view.PageCount)
		}
		next := Pagination{PageIndex: index, PageSize: size}
		if next != e.pagination {
			e.pagination = next
			c.add(ChangePagination)
		}
		return c, nil
	})
}

// SetPageIndex moves to a page. An index past the last page goes to the
// first page.
func (e *Engine[Row, Key]) SetPageIndex(index int) error {
	return e.commit(func() (changed, error) {
		var c changed
		index = ClampPageIndex(index, e.view.PageCount)
		if index != e.pagination.PageIndex {
			e.pagination.PageIndex = index
			c.add(ChangePagination)
		}
		return c, nil
	})
}

// SetPageSize changes the page size, snapping to the nearest option, and
// returns to the first page.
func (e *Engine[Row, Key]) SetPageSize(size int) error {
	return e.commit(func() (changed, error) {
		var c changed
		size = NormalizePageSize(size, e.pageSizes)
		if size == e.pagination.PageSize {
			return c, nil
		}
		e.pagination = Pagination{PageIndex: 0, PageSize: size}
		c.add(ChangePagination)
		return c, nil
	})
}

// NextPage advances one page when possible.
func (e *Engine[Row, Key]) NextPage() error {
	return e.step(func(v View[Row]) (int, bool) {
		return v.Pagination.PageIndex + 1, v.CanNext()
	})
}

// PreviousPage goes back one page when possible.
func (e *Engine[Row, Key]) PreviousPage() error {
	return e.step(func(v View[Row]) (int, bool) {
		return v.Pagination.PageIndex - 1, v.CanPrevious()
	})
}

// FirstPage goes to page 0.
func (e *Engine[Row, Key]) FirstPage() error {
	return e.step(func(v View[Row]) (int, bool) {
		return 0, v.Pagination.PageIndex != 0
	})
}

// LastPage goes to the last page. It does nothing when the page count is
// unknown.
func (e *Engine[Row, Key]) LastPage() error {
	return e.step(func(v View[Row]) (int, bool) {
		return v.PageCount - 1, v.CanLast()
	})
}

func (e *Engine[Row, Key]) step(target func(View[Row]) (int, bool)) error {
	return e.commit(func() (changed, error) {
		var c changed
		index, ok := target(e.view)
		if !ok || index == e.pagination.PageIndex {
			return c, nil
		}
		e.pagination.PageIndex = index
		c.add(ChangePagination)
		return c, nil
	})
}

// SetData replaces the dataset (client-side) or the current page
// (server-side). Deliveries from fetches begun earlier are discarded.
func (e *Engine[Row, Key]) SetData(rows []Row) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.applied = e.gen
	effects := e.applyRows(rows)
	e.mu.Unlock()
	run(effects)
	return nil
}

// SetTotalRows updates the server-side total. UnknownTotal disables last
// page navigation.
func (e *Engine[Row, Key]) SetTotalRows(total int) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.total = total
	effects := e.refresh()
	e.mu.Unlock()
	run(effects)
	return nil
}

// SetLoading toggles the no-interaction state.
func (e *Engine[Row, Key]) SetLoading(loading bool) {
	e.mu.Lock()
	if e.closed || e.loading == loading {
		e.mu.Unlock()
		return
	}
	e.loading = loading
	e.view.Loading = loading
	effects := e.snapshotEffect()
	e.mu.Unlock()
	run(effects)
}

// Close stops pending debounce timers and makes later deliveries no-ops.
func (e *Engine[Row, Key]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.debounce != nil {
		e.debounce.close()
	}
	e.log.Debug("grid closed", "generation", e.gen, "applied", e.applied)
}

// commit runs fn under the lock and then emits what it changed.
func (e *Engine[Row, Key]) commit(fn func() (changed, error)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	c, err := fn()
	if err != nil || c == 0 {
		e.mu.Unlock()
		return err
	}
	effects := e.afterChange(c)
	e.mu.Unlock()
	run(effects)
	return nil
}

// afterChange recomputes the view and collects the outward events for a
// committed transition. Must hold e.mu.
func (e *Engine[Row, Key]) afterChange(c changed) []func() {
	if e.recompute() {
		c.add(ChangePagination)
	}
	effects := e.snapshotEffect()
	if !e.comp.Delegated() {
		return effects
	}

	filterChange := c.has(ChangeGlobalFilter) || c.has(ChangeColumnFilters)
	if filterChange && e.debounce != nil {
		if c.has(ChangePagination) {
			e.pendingPageReset = true
		}
		if c.has(ChangeGlobalFilter) {
			e.schedule(debounceGlobal)
		}
		if c.has(ChangeColumnFilters) {
			e.schedule(debounceColumns)
		}
		if !c.has(ChangeSorting) {
			return effects
		}
		c = 0
		c.add(ChangeSorting)
	}
	return append(effects, e.emissions(c)...)
}

// emissions builds the per-kind events followed by one query event.
// Must hold e.mu.
func (e *Engine[Row, Key]) emissions(c changed) []func() {
	var out []func()
	s := e.server
	if c.has(ChangeSorting) && s.OnSortingChange != nil {
		sorting := append(Sorting(nil), e.sorting...)
		out = append(out, func() { s.OnSortingChange(sorting) })
	}
	if c.has(ChangeColumnFilters) && s.OnColumnFiltersChange != nil {
		filters := append([]ColumnFilter(nil), e.filters.Columns...)
		out = append(out, func() { s.OnColumnFiltersChange(filters) })
	}
	if c.has(ChangeGlobalFilter) && s.OnGlobalFilterChange != nil {
		global := e.filters.Global
		out = append(out, func() { s.OnGlobalFilterChange(global) })
	}
	if c.has(ChangePagination) && s.OnPaginationChange != nil {
		p := e.pagination
		out = append(out, func() { s.OnPaginationChange(p) })
	}
	if c != 0 && s.OnQueryChange != nil {
		q := e.query()
		out = append(out, func() { s.OnQueryChange(q) })
	}
	for _, k := range []ChangeKind{ChangeSorting, ChangeColumnFilters, ChangeGlobalFilter, ChangePagination} {
		if c.has(k) {
			e.log.Debug("grid state emitted", "kind", k.String())
		}
	}
	return out
}

// schedule debounces emission for a filter field. Must hold e.mu.
func (e *Engine[Row, Key]) schedule(field string) {
	kind := ChangeGlobalFilter
	if field == debounceColumns {
		kind = ChangeColumnFilters
	}
	if e.debounce.trigger(field, func() { e.flush(kind) }) {
		e.log.Debug("grid filter emission rescheduled", "field", field)
	}
}

// flush emits a debounced filter change with the state current at the time
// the quiet period ends.
func (e *Engine[Row, Key]) flush(kind ChangeKind) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	var c changed
	c.add(kind)
	if e.pendingPageReset {
		e.pendingPageReset = false
		c.add(ChangePagination)
	}
	effects := e.emissions(c)
	e.mu.Unlock()
	run(effects)
}

// resetPage returns to the first page after a filter change. Must hold e.mu.
func (e *Engine[Row, Key]) resetPage(c *changed) {
	if e.pagination.PageIndex != 0 {
		e.pagination.PageIndex = 0
		c.add(ChangePagination)
	}
}

func (e *Engine[Row, Key]) replaceColumnFilters(next []ColumnFilter) changed {
	var c changed
	if equalColumnFilters(next, e.filters.Columns) {
		return c
	}
	e.filters.Columns = next
	c.add(ChangeColumnFilters)
	e.resetPage(&c)
	return c
}

// recompute rebuilds the view and reports whether the page index had to
// be reset. Must hold e.mu.
func (e *Engine[Row, Key]) recompute() bool {
	v := e.comp.Compute(ComputeInput[Row]{
		Model:      e.model,
		Rows:       e.rows,
		TotalRows:  e.total,
		Sorting:    e.sorting,
		Filters:    e.filters,
		Pagination: e.pagination,
	})
	v.Loading = e.loading
	reset := v.Pagination.PageIndex != e.pagination.PageIndex
	e.pagination = v.Pagination
	e.view = v
	return reset
}

// refresh recomputes after a data change. In server-side mode a page
// index pushed out of range is reported to the host. Must hold e.mu.
func (e *Engine[Row, Key]) refresh() []func() {
	reset := e.recompute()
	effects := e.snapshotEffect()
	if reset && e.comp.Delegated() {
		var c changed
		c.add(ChangePagination)
		effects = append(effects, e.emissions(c)...)
	}
	return effects
}

// applyRows swaps in new rows, prunes the selection and recomputes.
// Must hold e.mu.
func (e *Engine[Row, Key]) applyRows(rows []Row) []func() {
	e.setRows(rows)
	var effects []func()
	if e.pruneSelection() {
		effects = append(effects, e.selectionEffect()...)
	}
	return append(effects, e.refresh()...)
}

func (e *Engine[Row, Key]) setRows(rows []Row) {
	e.rows = append([]Row(nil), rows...)
	if e.rowKey == nil {
		return
	}
	e.byKey = make(map[Key]Row, len(e.rows))
	for _, r := range e.rows {
		e.byKey[e.rowKey(r)] = r
	}
}

func (e *Engine[Row, Key]) snapshotEffect() []func() {
	if e.onDebug == nil {
		return nil
	}
	pending := 0
	if e.debounce != nil {
		pending = e.debounce.pendingCount()
	}
	snap := Snapshot{
		ServerSide:        e.comp.Delegated(),
		Sorting:           append(Sorting(nil), e.sorting...),
		Filters:           FilterState{Global: e.filters.Global, Columns: append([]ColumnFilter(nil), e.filters.Columns...)},
		Pagination:        e.pagination,
		DatasetRows:       len(e.rows),
		FilteredCount:     e.view.FilteredCount,
		PageCount:         e.view.PageCount,
		VisibleRows:       len(e.view.Rows),
		Selected:          e.selection.Len(),
		Loading:           e.loading,
		Generation:        e.gen,
		AppliedGeneration: e.applied,
		PendingEmissions:  pending,
	}
	hook := e.onDebug
	return []func(){func() { hook(snap) }}
}

func (e *Engine[Row, Key]) query() Query {
	return Query{
		Sorting: append(Sorting(nil), e.sorting...),
		Filters: FilterState{
			Global:  e.filters.Global,
			Columns: append([]ColumnFilter(nil), e.filters.Columns...),
		},
		Pagination: e.pagination,
	}
}

func (e *Engine[Row, Key]) validateSorting(s Sorting) (Sorting, error) {
	out := make(Sorting, 0, len(s))
	for _, spec := range s.Normalize() {
		col, ok := e.model.Lookup(spec.ColumnID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, spec.ColumnID)
		}
		if col.Sortable {
			out = append(out, spec)
		}
	}
	return out, nil
}

func (e *Engine[Row, Key]) validateColumnFilter(cf ColumnFilter) error {
	col, ok := e.model.Lookup(cf.ColumnID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, cf.ColumnID)
	}
	if !col.Filterable && strings.TrimSpace(cf.Value) != "" {
		return fmt.Errorf("%w: %s is not filterable", ErrInvalidColumn, cf.ColumnID)
	}
	if !ValidOperator(cf.Operator) {
		return fmt.Errorf("%w: %s", ErrInvalidOperator, cf.Operator)
	}
	return nil
}

func run(effects []func()) {
	for _, fn := range effects {
		fn()
	}
}
