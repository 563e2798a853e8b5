package grid

import (
	"context"
	"fmt"
)

// ToggleRow flips the selection of one row identity.
func (e *Engine[Row, Key]) ToggleRow(id Key) error {
	return e.mutateSelection(func() error {
		if !e.selection.Has(id) {
			r, ok := e.byKey[id]
			if !ok {
				return fmt.Errorf("%w: %v", ErrUnknownRow, id)
			}
			e.selectedRows[id] = r
		}
		e.selection.Toggle(id)
		if !e.selection.Has(id) {
			delete(e.selectedRows, id)
		}
		return nil
	})
}

// TogglePage selects every row on the visible page, or deselects them all
// when they were already all selected.
func (e *Engine[Row, Key]) TogglePage() error {
	return e.mutateSelection(func() error {
		ids := e.visibleKeys()
		e.selection.ToggleAllOnPage(ids)
		for i, id := range ids {
			if e.selection.Has(id) {
				e.selectedRows[id] = e.view.Rows[i]
			} else {
				delete(e.selectedRows, id)
			}
		}
		return nil
	})
}

// ClearSelection deselects everything.
func (e *Engine[Row, Key]) ClearSelection() error {
	return e.mutateSelection(func() error {
		e.clearSelection()
		return nil
	})
}

// SelectionState reports the all/some state over the visible page.
func (e *Engine[Row, Key]) SelectionState() AggregateState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sel.Enabled {
		return AggregateState{}
	}
	return e.selection.Aggregate(e.visibleKeys())
}

// IsSelected reports whether a row identity is selected.
func (e *Engine[Row, Key]) IsSelected(id Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Has(id)
}

// SelectedKeys returns the selected identities in selection order.
func (e *Engine[Row, Key]) SelectedKeys() []Key {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Keys()
}

// SelectedRows resolves the selection to rows.
func (e *Engine[Row, Key]) SelectedRows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveSelection()
}

// RowKey returns the identity of a row. It panics if no RowKey was
// configured.
func (e *Engine[Row, Key]) RowKey(r Row) Key {
	return e.rowKey(r)
}

// RunBatchAction passes the selected rows to the host's batch handler and
// then clears the selection, whether or not the handler succeeds.
func (e *Engine[Row, Key]) RunBatchAction(ctx context.Context, action string) error {
	e.mu.Lock()
	if err := e.selectionAllowed(); err != nil {
		e.mu.Unlock()
		return err
	}
	if !e.batchActionKnown(action) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownBatchAction, action)
	}
	rows := e.resolveSelection()
	handler := e.sel.OnBatchAction
	e.clearSelection()
	effects := append(e.selectionEffect(), e.snapshotEffect()...)
	e.mu.Unlock()

	var err error
	if handler != nil {
		err = handler(ctx, action, rows)
	}
	run(effects)
	if err != nil {
		e.log.Warn("grid batch action failed", "action", action, "rows", len(rows), "error", err)
		return fmt.Errorf("batch action %s: %w", action, err)
	}
	e.log.Debug("grid batch action completed", "action", action, "rows", len(rows))
	return nil
}

func (e *Engine[Row, Key]) mutateSelection(fn func() error) error {
	e.mu.Lock()
	if err := e.selectionAllowed(); err != nil {
		e.mu.Unlock()
		return err
	}
	before := e.selection.Len()
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	var effects []func()
	if before != 0 || e.selection.Len() != 0 {
		effects = append(e.selectionEffect(), e.snapshotEffect()...)
	}
	e.mu.Unlock()
	run(effects)
	return nil
}

// selectionAllowed must hold e.mu.
func (e *Engine[Row, Key]) selectionAllowed() error {
	switch {
	case e.closed:
		return ErrClosed
	case !e.sel.Enabled:
		return ErrSelectionDisabled
	case e.loading:
		return ErrLoading
	}
	return nil
}

func (e *Engine[Row, Key]) batchActionKnown(action string) bool {
	if len(e.sel.BatchActions) == 0 {
		return action != ""
	}
	for _, a := range e.sel.BatchActions {
		if a.Value == action {
			return true
		}
	}
	return false
}

func (e *Engine[Row, Key]) clearSelection() {
	e.selection.Clear()
	clear(e.selectedRows)
}

// resolveSelection maps selected identities to rows from the current
// dataset, falling back to remembered rows for a retained selection.
// Must hold e.mu.
func (e *Engine[Row, Key]) resolveSelection() []Row {
	keys := e.selection.Keys()
	rows := make([]Row, 0, len(keys))
	for _, id := range keys {
		if r, ok := e.byKey[id]; ok {
			rows = append(rows, r)
			continue
		}
		if r, ok := e.selectedRows[id]; ok && e.server.RetainSelectionAcrossFetch {
			rows = append(rows, r)
		}
	}
	return rows
}

// pruneSelection drops identities missing from the current rows unless
// the server-side config retains them. Must hold e.mu.
func (e *Engine[Row, Key]) pruneSelection() bool {
	if e.selection.Len() == 0 {
		return false
	}
	if e.comp.Delegated() && e.server.RetainSelectionAcrossFetch {
		for id := range e.selectedRows {
			if r, ok := e.byKey[id]; ok {
				e.selectedRows[id] = r
			}
		}
		return false
	}
	return e.selection.Retain(func(id Key) bool {
		r, ok := e.byKey[id]
		if ok {
			e.selectedRows[id] = r
		} else {
			delete(e.selectedRows, id)
		}
		return ok
	})
}

// visibleKeys must hold e.mu.
func (e *Engine[Row, Key]) visibleKeys() []Key {
	if e.rowKey == nil {
		return nil
	}
	ids := make([]Key, len(e.view.Rows))
	for i, r := range e.view.Rows {
		ids[i] = e.rowKey(r)
	}
	return ids
}

func (e *Engine[Row, Key]) selectionEffect() []func() {
	hook := e.sel.OnSelectionChange
	if hook == nil {
		return nil
	}
	keys := e.selection.Keys()
	return []func(){func() { hook(keys) }}
}
