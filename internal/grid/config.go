package grid

import (
	"context"
	"log/slog"
	"time"
)

// NoDebounce disables server-side filter debouncing.
const NoDebounce time.Duration = -1

type (
	// Config configures an Engine. Only Columns is required.
	Config[Row any, Key comparable] struct {
		Columns []Column[Row]
		// Data is the full dataset in client-side mode and the current
		// page in server-side mode.
		Data []Row
		// RowKey derives a row's identity. Required for selection.
		RowKey func(Row) Key
		// Loading starts the engine in the no-interaction state.
		Loading bool

		InitialSorting       Sorting
		InitialColumnFilters []ColumnFilter
		InitialGlobalFilter  string
		DefaultPageSize      int
		PageSizeOptions      []int

		ServerSide *ServerSideConfig
		Export     *ExportConfig[Row]
		Selection  *SelectionConfig[Row, Key]

		// OnDebugSnapshot receives a Snapshot after every recomputation.
		OnDebugSnapshot func(Snapshot)
		Logger          *slog.Logger
		// TimerFunc replaces time.AfterFunc for debounce timers.
		TimerFunc TimerFunc
	}

	// ServerSideConfig switches the engine to delegated computation.
	ServerSideConfig struct {
		Enabled bool
		// TotalRows is the size of the full result set, or UnknownTotal.
		TotalRows int

		OnPaginationChange    func(Pagination)
		OnSortingChange       func(Sorting)
		OnGlobalFilterChange  func(string)
		OnColumnFiltersChange func([]ColumnFilter)
		// OnQueryChange fires once per committed transition with the
		// complete state, after the per-kind events.
		OnQueryChange func(Query)

		// FilterDebounce is the quiet period for filter emission. Zero
		// selects DefaultFilterDebounce; NoDebounce emits immediately.
		FilterDebounce time.Duration
		// RetainSelectionAcrossFetch keeps selected identities that are not
		// on a newly delivered page.
		RetainSelectionAcrossFetch bool
	}

	// ExportConfig enables CSV export.
	ExportConfig[Row any] struct {
		Enabled   bool
		Filename  string
		Formatter func([]Row) []Row
		OnExport  func(ctx context.Context, rows []Row) error
		Sink      FileSink
	}

	// SelectionConfig enables row selection and batch actions.
	SelectionConfig[Row any, Key comparable] struct {
		Enabled           bool
		OnSelectionChange func(keys []Key)
		OnBatchAction     func(ctx context.Context, action string, rows []Row) error
		// BatchActions lists the accepted action values. When empty any
		// action is passed to OnBatchAction.
		BatchActions []BatchAction
	}

	// Query is the complete sort, filter and page state.
	Query struct {
		Sorting    Sorting     `json:"sorting"`
		Filters    FilterState `json:"filters"`
		Pagination Pagination  `json:"pagination"`
	}
)

func (c *ServerSideConfig) debounce() time.Duration {
	switch {
	case c.FilterDebounce < 0:
		return 0
	case c.FilterDebounce == 0:
		return DefaultFilterDebounce
	default:
		return c.FilterDebounce
	}
}
