package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// Session is one open grid: a table bound to a grid engine that remembers
// its sort, filter, page and selection state between requests.
//
// Server-side sessions refetch from the store whenever the engine reports a
// new query. Fetches run in the background through the service's fetch
// limiter; the engine discards results that arrive after a newer fetch was
// applied.
type Session struct {
	ID      string
	Table   string
	Created time.Time

	def    GridDefinition
	svc    *Service
	engine *grid.Engine[TableRow, string]
	log    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	lastUsed atomic.Int64

	aggMu  sync.RWMutex
	aggs   Aggregations
	aggGen uint64
}

// OpenSession creates a grid session for tableKey. Client-side tables are
// loaded completely before the session is returned; server-side sessions
// start loading their first page in the background.
func (s *Service) OpenSession(ctx context.Context, tableKey string) (*Session, error) {
	def, err := Lookup(tableKey)
	if err != nil {
		return nil, err
	}
	if limit := s.opts.MaxSessions; limit > 0 && s.SessionCount() >= limit {
		return nil, ErrTooManySessions
	}

	id := uuid.NewString()
	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:      id,
		Table:   def.Info.Key,
		Created: time.Now(),
		def:     def,
		svc:     s,
		log:     s.log.With("session", id, "table", def.Info.Key),
		ctx:     sessCtx,
		cancel:  cancel,
	}
	sess.Touch()

	cfg := s.sessionConfig(sess)
	if !def.ServerSide {
		rows, err := s.store.FetchAll(ctx, def)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("load %s: %w", def.Info.Key, err)
		}
		cfg.Data = rows
	}

	engine, err := grid.New(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	sess.engine = engine

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	if def.ServerSide {
		sess.refetch()
	}
	sess.log.Info("grid session opened", "server_side", def.ServerSide)
	return sess, nil
}

func (s *Service) sessionConfig(sess *Session) grid.Config[TableRow, string] {
	def := sess.def
	p, _ := s.opts.Presets.Get(def.Info.Key)

	cfg := grid.Config[TableRow, string]{
		Columns:              GridColumns(def, p.Hidden...),
		InitialSorting:       def.DefaultSorting,
		InitialColumnFilters: p.ColumnFilters(),
		InitialGlobalFilter:  p.Search,
		DefaultPageSize:      s.defaultPageSize(def, p),
		PageSizeOptions:      s.pageSizeOptions(def, p),
		Logger:               sess.log,
		TimerFunc:            s.opts.TimerFunc,
		Export: &grid.ExportConfig[TableRow]{
			Enabled:  true,
			Filename: s.exportFilename(def),
			Sink:     s.opts.ExportSink,
		},
	}
	if sorting := p.GridSorting(); len(sorting) > 0 {
		cfg.InitialSorting = sorting
	}

	if len(def.Info.UniqueKey) > 0 {
		uniqueKey := def.Info.UniqueKey
		cfg.RowKey = func(r TableRow) string { return RowKey(r, uniqueKey) }
		cfg.Selection = &grid.SelectionConfig[TableRow, string]{
			Enabled:      true,
			BatchActions: def.BatchActions,
			OnBatchAction: func(ctx context.Context, action string, rows []TableRow) error {
				return sess.runBatchAction(ctx, action, rows)
			},
			OnSelectionChange: func(keys []string) {
				sess.log.Debug("selection changed", "selected", len(keys))
			},
		}
	}

	if def.ServerSide {
		cfg.Loading = true
		cfg.ServerSide = &grid.ServerSideConfig{
			Enabled:                    true,
			TotalRows:                  0,
			FilterDebounce:             s.opts.FilterDebounce,
			RetainSelectionAcrossFetch: def.RetainSelection,
			OnQueryChange: func(grid.Query) {
				sess.refetch()
			},
		}
	}
	return cfg
}

// Session returns an open session and marks it used.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.Touch()
	return sess, nil
}

// CloseSession unmounts a session: pending debounce timers stop and
// in-flight fetches are cancelled and ignored.
func (s *Service) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.close()
	return nil
}

// CloseAll closes every open session. Used during shutdown.
func (s *Service) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SessionInfo describes an open session for listings.
type SessionInfo struct {
	ID       string    `json:"id"`
	Table    string    `json:"table"`
	Created  time.Time `json:"created"`
	LastUsed time.Time `json:"lastUsed"`
}

// Sessions lists open sessions, oldest first.
func (s *Service) Sessions() []SessionInfo {
	s.mu.RLock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, SessionInfo{
			ID:       sess.ID,
			Table:    sess.Table,
			Created:  sess.Created,
			LastUsed: sess.LastUsed(),
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// closeIdle closes sessions unused since before cutoff and returns how many
// were closed.
func (s *Service) closeIdle(cutoff time.Time) int {
	s.mu.Lock()
	var idle []*Session
	for id, sess := range s.sessions {
		if sess.LastUsed().Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.close()
	}
	return len(idle)
}

// Engine returns the session's grid engine.
func (sess *Session) Engine() *grid.Engine[TableRow, string] {
	return sess.engine
}

// Definition returns the grid definition the session was opened for.
func (sess *Session) Definition() GridDefinition {
	return sess.def
}

// Touch marks the session used now.
func (sess *Session) Touch() {
	sess.lastUsed.Store(time.Now().UnixNano())
}

// LastUsed returns when the session was last used.
func (sess *Session) LastUsed() time.Time {
	return time.Unix(0, sess.lastUsed.Load())
}

// Aggregations returns the store-side aggregations over the full filtered
// result of a server-side session. Client-side sessions compute footers in
// the view and return nil.
func (sess *Session) Aggregations() Aggregations {
	sess.aggMu.RLock()
	defer sess.aggMu.RUnlock()
	return sess.aggs
}

// Wait blocks until the session has no fetch outstanding or ctx ends.
func (sess *Session) Wait(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for sess.engine.View().Loading {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sess.ctx.Done():
			return grid.ErrClosed
		case <-ticker.C:
		}
	}
	return nil
}

// Reload reads the table again: the whole table for client-side sessions,
// the current page for server-side ones.
func (sess *Session) Reload(ctx context.Context) error {
	if sess.def.ServerSide {
		sess.refetch()
		return nil
	}
	rows, err := sess.svc.store.FetchAll(ctx, sess.def)
	if err != nil {
		return fmt.Errorf("reload %s: %w", sess.def.Info.Key, err)
	}
	return sess.engine.SetData(rows)
}

// refetch starts a background fetch of the engine's current query.
func (sess *Session) refetch() {
	if sess.ctx.Err() != nil {
		return
	}
	ticket := sess.engine.BeginFetch()
	go sess.fetch(ticket)
}

func (sess *Session) fetch(ticket grid.FetchTicket) {
	start := time.Now()
	page, err := sess.svc.fetchPage(sess.ctx, sess.def, ticket.Query)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			sess.log.Warn("page fetch failed", "generation", ticket.Generation, "error", err)
		}
		sess.engine.FailFetch(ticket, err)
		return
	}

	if !sess.engine.Deliver(ticket, page.Rows, page.Total) {
		return
	}
	sess.log.Debug("page delivered",
		"generation", ticket.Generation,
		"rows", len(page.Rows),
		"total", page.Total,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	aggs, err := sess.svc.store.Aggregate(sess.ctx, sess.def, ticket.Query.Filters)
	if err != nil {
		sess.log.Warn("aggregation failed", "error", err)
		return
	}
	if !sess.storeAggregations(ticket.Generation, aggs) {
		sess.log.Debug("stale aggregation discarded", "generation", ticket.Generation)
	}
}

// storeAggregations keeps aggs only when they belong to the rows on
// screen: generation must be the engine's newest delivery and not older
// than the aggregations already stored.
func (sess *Session) storeAggregations(generation uint64, aggs Aggregations) bool {
	sess.aggMu.Lock()
	defer sess.aggMu.Unlock()
	if generation < sess.aggGen || generation != sess.engine.AppliedGeneration() {
		return false
	}
	sess.aggGen = generation
	sess.aggs = aggs
	return true
}

// runBatchAction handles the registered batch actions for selected rows.
func (sess *Session) runBatchAction(ctx context.Context, action string, rows []TableRow) error {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = RowKey(r, sess.def.Info.UniqueKey)
	}

	switch action {
	case BatchDelete:
		n, err := sess.svc.store.DeleteRows(ctx, sess.def, keys)
		if err != nil {
			return err
		}
		sess.log.Info("rows deleted",
			"requested", len(keys),
			"deleted", n,
			"ip", GetIPAddressFromContext(ctx),
			"user_agent", GetUserAgentFromContext(ctx),
		)
		return sess.Reload(ctx)

	case BatchExport:
		sink := sess.svc.opts.ExportSink
		if sink == nil {
			return grid.ErrNoSink
		}
		return grid.ExportRows(ctx, sess.engine.Model(), rows, grid.ExportOptions[TableRow]{
			Filename: sess.svc.exportFilename(sess.def) + "_selected",
		}, sink)
	}
	return fmt.Errorf("%w: %s", grid.ErrUnknownBatchAction, action)
}

func (sess *Session) close() {
	sess.cancel()
	sess.engine.Close()
	sess.log.Info("grid session closed", "idle", time.Since(sess.LastUsed()).Round(time.Second))
}
