package grid

import (
	"context"
	"fmt"
)

// ExportScope selects which rows an export covers.
type ExportScope int

const (
	// ExportFiltered covers every row matching the filters, in view order.
	// In server-side mode only the delivered page is known.
	ExportFiltered ExportScope = iota
	// ExportPage covers the visible page.
	ExportPage
	// ExportSelected covers the selected rows.
	ExportSelected
)

func (s ExportScope) String() string {
	switch s {
	case ExportPage:
		return "page"
	case ExportSelected:
		return "selected"
	default:
		return "filtered"
	}
}

// ParseExportScope maps "page" and "selected" to their scopes and
// everything else to ExportFiltered.
func ParseExportScope(s string) ExportScope {
	switch s {
	case "page":
		return ExportPage
	case "selected":
		return ExportSelected
	default:
		return ExportFiltered
	}
}

// Export exports rows in scope through the configured sink.
func (e *Engine[Row, Key]) Export(ctx context.Context, scope ExportScope) error {
	return e.ExportTo(ctx, scope, nil)
}

// ExportTo exports rows in scope through sink, or the configured sink when
// sink is nil.
func (e *Engine[Row, Key]) ExportTo(ctx context.Context, scope ExportScope, sink FileSink) error {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrClosed
	case !e.export.Enabled:
		e.mu.Unlock()
		return ErrExportDisabled
	case e.loading:
		e.mu.Unlock()
		return ErrLoading
	}

	var rows []Row
	switch scope {
	case ExportPage:
		rows = e.view.Rows
	case ExportSelected:
		rows = e.resolveSelection()
	default:
		rows = e.view.Matched
	}
	if sink == nil {
		sink = e.export.Sink
	}
	opts := ExportOptions[Row]{
		Filename:  e.export.Filename,
		Formatter: e.export.Formatter,
		OnExport:  e.export.OnExport,
	}
	e.mu.Unlock()

	if err := ExportRows(ctx, e.model, rows, opts, sink); err != nil {
		return fmt.Errorf("export %s: %w", scope, err)
	}
	e.log.Debug("grid export emitted", "scope", scope.String(), "rows", len(rows))
	return nil
}
