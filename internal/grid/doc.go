// Package grid implements a generic data-grid engine: sorting, filtering,
// pagination, row selection and CSV export over a typed row slice.
//
// An Engine runs in one of two modes fixed at construction. In client-side
// mode the engine owns the full dataset and computes every view locally. In
// server-side mode the host owns the data; the engine records state, emits
// change events (debounced for filters) and shows whatever page the host
// delivers, discarding deliveries that arrive out of order.
//
// Rows are never mutated. Selection is keyed by a host-supplied identity
// function rather than by position, so it survives re-sorting and paging.
package grid
