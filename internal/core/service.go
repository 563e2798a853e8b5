package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/preset"
)

// DefaultFetchTimeout bounds one page query.
const DefaultFetchTimeout = 15 * time.Second

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	DefaultPageSize int
	PageSizeOptions []int
	// FilterDebounce is passed to server-side grids; see
	// grid.ServerSideConfig.FilterDebounce.
	FilterDebounce time.Duration
	FetchTimeout   time.Duration
	// MaxSessions caps open grid sessions; 0 means unlimited.
	MaxSessions int
	// ExportSink receives files from the "export" batch action.
	ExportSink grid.FileSink
	Presets    *preset.Set
	Limiter    *FetchLimiter
	Logger     *slog.Logger
	// TimerFunc replaces time.AfterFunc for filter debounce timers.
	TimerFunc grid.TimerFunc
}

// Service provides the business logic behind the dashboard grids: table
// listing, stateful grid sessions and stateless snapshots.
type Service struct {
	store   Store
	limiter *FetchLimiter
	opts    ServiceOptions
	log     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service over store.
func NewService(store Store, opts ServiceOptions) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Limiter == nil {
		opts.Limiter = NewFetchLimiter(0, 0)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		limiter:  opts.Limiter,
		opts:     opts,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Limiter returns the fetch limiter shared by all sessions.
func (s *Service) Limiter() *FetchLimiter {
	return s.limiter
}

// ListTables returns information about all registered tables.
func (s *Service) ListTables() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListTablesByGroup returns tables organized by group.
func (s *Service) ListTablesByGroup() map[string][]TableInfo {
	result := make(map[string][]TableInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// TableStats returns row counts for every registered table. A table whose
// count fails is reported with a zero count and logged.
func (s *Service) TableStats(ctx context.Context) []TableStats {
	defs := All()
	stats := make([]TableStats, 0, len(defs))
	for _, def := range defs {
		n, err := s.store.Count(ctx, def)
		if err != nil {
			s.log.Warn("table count failed", "table", def.Info.Key, "error", err)
		}
		stats = append(stats, TableStats{
			Info:       def.Info,
			RowCount:   n,
			ServerSide: def.ServerSide,
			CheckedAt:  time.Now(),
		})
	}
	return stats
}

// SnapshotResult is a one-shot grid view.
type SnapshotResult struct {
	Definition   GridDefinition
	Model        *grid.ColumnModel[TableRow]
	View         grid.View[TableRow]
	PageSizes    []int
	Aggregations Aggregations
}

// Snapshot computes a view of tableKey for q without keeping a session.
// Server-side tables are paged by the store; client-side tables are loaded
// and computed in memory.
func (s *Service) Snapshot(ctx context.Context, tableKey string, q grid.Query) (*SnapshotResult, error) {
	def, err := Lookup(tableKey)
	if err != nil {
		return nil, err
	}

	cfg, err := s.snapshotConfig(def, q)
	if err != nil {
		return nil, err
	}

	var aggs Aggregations
	if def.ServerSide {
		q.Pagination.PageSize = grid.NormalizePageSize(q.Pagination.PageSize, cfg.PageSizeOptions)
		page, err := s.fetchPage(ctx, def, q)
		if err != nil {
			return nil, err
		}
		// A page beyond the end resets to the first page.
		if pc := grid.PageCount(page.Total, q.Pagination.PageSize); pc > 0 && q.Pagination.PageIndex >= pc {
			q.Pagination.PageIndex = 0
			if page, err = s.fetchPage(ctx, def, q); err != nil {
				return nil, err
			}
		}
		cfg.Data = page.Rows
		cfg.ServerSide = &grid.ServerSideConfig{
			Enabled:        true,
			TotalRows:      page.Total,
			FilterDebounce: grid.NoDebounce,
		}
		if aggs, err = s.store.Aggregate(ctx, def, q.Filters); err != nil {
			s.log.Warn("aggregation failed", "table", def.Info.Key, "error", err)
		}
	} else {
		if cfg.Data, err = s.store.FetchAll(ctx, def); err != nil {
			return nil, fmt.Errorf("load %s: %w", def.Info.Key, err)
		}
	}

	engine, err := grid.New(cfg)
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	if err := engine.SetPageIndex(q.Pagination.PageIndex); err != nil {
		return nil, err
	}

	return &SnapshotResult{
		Definition:   def,
		Model:        engine.Model(),
		View:         engine.View(),
		PageSizes:    engine.PageSizeOptions(),
		Aggregations: aggs,
	}, nil
}

// ExportSnapshot writes the rows of tableKey that pass q's filters, in q's
// sort order, as CSV to sink. Pagination is ignored.
func (s *Service) ExportSnapshot(ctx context.Context, tableKey string, q grid.Query, sink grid.FileSink) error {
	def, err := Lookup(tableKey)
	if err != nil {
		return err
	}

	cfg, err := s.snapshotConfig(def, q)
	if err != nil {
		return err
	}
	if cfg.Data, err = s.store.FetchAll(ctx, def); err != nil {
		return fmt.Errorf("load %s: %w", def.Info.Key, err)
	}
	cfg.Export = &grid.ExportConfig[TableRow]{
		Enabled:  true,
		Filename: s.exportFilename(def),
		Sink:     sink,
	}

	engine, err := grid.New(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	return engine.Export(ctx, grid.ExportFiltered)
}

func (s *Service) snapshotConfig(def GridDefinition, q grid.Query) (grid.Config[TableRow, string], error) {
	p, _ := s.opts.Presets.Get(def.Info.Key)
	cfg := grid.Config[TableRow, string]{
		Columns:              GridColumns(def, p.Hidden...),
		InitialSorting:       q.Sorting,
		InitialColumnFilters: q.Filters.Columns,
		InitialGlobalFilter:  q.Filters.Global,
		DefaultPageSize:      q.Pagination.PageSize,
		PageSizeOptions:      s.pageSizeOptions(def, p),
		Logger:               s.log,
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = s.defaultPageSize(def, p)
	}
	if len(def.Info.UniqueKey) > 0 {
		uniqueKey := def.Info.UniqueKey
		cfg.RowKey = func(r TableRow) string { return RowKey(r, uniqueKey) }
	}
	return cfg, nil
}

func (s *Service) fetchPage(ctx context.Context, def GridDefinition, q grid.Query) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	var page Page
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = s.store.FetchPage(ctx, def, q)
		return err
	})
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", def.Info.Key, err)
	}
	return page, nil
}

func (s *Service) defaultPageSize(def GridDefinition, p preset.Preset) int {
	switch {
	case p.PageSize > 0:
		return p.PageSize
	case def.DefaultPageSize > 0:
		return def.DefaultPageSize
	}
	return s.opts.DefaultPageSize
}

func (s *Service) pageSizeOptions(def GridDefinition, p preset.Preset) []int {
	switch {
	case len(p.PageSizeOptions) > 0:
		return p.PageSizeOptions
	case len(def.PageSizeOptions) > 0:
		return def.PageSizeOptions
	}
	return s.opts.PageSizeOptions
}

func (s *Service) exportFilename(def GridDefinition) string {
	if p, ok := s.opts.Presets.Get(def.Info.Key); ok && p.Export.Filename != "" {
		return p.Export.Filename
	}
	return def.Info.Key
}
