package grid

// FetchTicket identifies one host fetch. Tickets are ordered by Generation.
type FetchTicket struct {
	Generation uint64
	Query      Query
}

// BeginFetch records that the host is fetching rows for the current state
// and enters the loading state. The ticket must accompany the result.
func (e *Engine[Row, Key]) BeginFetch() FetchTicket {
	e.mu.Lock()
	e.gen++
	t := FetchTicket{Generation: e.gen, Query: e.query()}
	var effects []func()
	if !e.closed && !e.loading {
		e.loading = true
		e.view.Loading = true
		effects = e.snapshotEffect()
	}
	e.mu.Unlock()
	run(effects)
	return t
}

// Deliver applies the rows fetched for t. total is the server-side row
// count (ignored in client-side mode). It reports false, leaving the view
// untouched, when the engine is closed or a newer fetch has already been
// applied.
func (e *Engine[Row, Key]) Deliver(t FetchTicket, rows []Row, total int) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.log.Debug("grid delivery after close ignored", "generation", t.Generation)
		return false
	}
	if t.Generation <= e.applied {
		applied := e.applied
		e.mu.Unlock()
		e.log.Debug("grid stale delivery discarded",
			"generation", t.Generation,
			"applied", applied,
		)
		return false
	}

	e.applied = t.Generation
	if t.Generation >= e.gen {
		e.loading = false
	}
	if e.comp.Delegated() {
		e.total = total
	}
	effects := e.applyRows(rows)
	e.mu.Unlock()
	run(effects)
	return true
}

// FailFetch ends the loading state when t is the newest fetch. The view
// keeps its previous rows.
func (e *Engine[Row, Key]) FailFetch(t FetchTicket, err error) {
	e.mu.Lock()
	if e.closed || t.Generation != e.gen {
		e.mu.Unlock()
		return
	}
	e.loading = false
	e.view.Loading = false
	effects := e.snapshotEffect()
	e.mu.Unlock()

	e.log.Warn("grid fetch failed", "generation", t.Generation, "error", err)
	run(effects)
}

// AppliedGeneration returns the generation of the newest delivered fetch,
// or 0 before any delivery.
func (e *Engine[Row, Key]) AppliedGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applied
}
