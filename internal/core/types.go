// Package core provides the fuel-station back-office business logic.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Errors returned by the service layer.
var (
	ErrUnknownTable    = errors.New("unknown table")
	ErrSessionNotFound = errors.New("grid session not found")
	ErrNoUniqueKey     = errors.New("table has no unique key defined")
	ErrTooManySessions = errors.New("too many open grid sessions")
)

// FieldSpec describes one column of a registered table.
type FieldSpec struct {
	Name       string         // Display header: "Volume (L)"
	DBColumn   string         // Database column name (derived from Name when empty)
	Type       grid.FieldType // Drives filtering, sorting and SQL argument typing
	EnumValues []string       // Valid values for FieldEnum columns
	Hidden     bool           // Not shown by default
	NoExport   bool           // Left out of CSV exports
	NoSort     bool
	NoFilter   bool
	Footer     string // Footer aggregation: sum, avg, min, max or count
	Decimals   int    // Fixed decimals for numeric display; 0 keeps the value as-is
}

// Column returns the column id used by grid rows, which is the database
// column name.
func (f FieldSpec) Column() string {
	if f.DBColumn != "" {
		return f.DBColumn
	}
	return toDBColumnName(f.Name)
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key       string   `json:"key"`       // Unique identifier: "fuel_sales"
	Group     string   `json:"group"`     // Dashboard section: "Forecourt", "Wetstock"
	Label     string   `json:"label"`     // Display name: "Sales"
	Columns   []string `json:"columns"`   // Column ids in display order
	UniqueKey []string `json:"uniqueKey"` // Column id(s) that identify a row
}

// GridDefinition contains everything needed to present one table as a grid.
type GridDefinition struct {
	Info       TableInfo
	FieldSpecs []FieldSpec

	// ServerSide delegates sorting, filtering and paging to the database.
	// Client-side grids load the whole table into the session.
	ServerSide bool
	// RetainSelection keeps selected rows across server-side page fetches.
	RetainSelection bool

	DefaultPageSize int
	PageSizeOptions []int
	DefaultSorting  grid.Sorting
	BatchActions    []grid.BatchAction
}

// Spec returns the field spec for a column id.
func (d GridDefinition) Spec(column string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if spec.Column() == column {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// TableRow is one database row keyed by column id.
type TableRow map[string]any

// Page is one fetched slice of a table. Total is grid.UnknownTotal when the
// store did not count the full result set.
type Page struct {
	Rows  []TableRow
	Total int
}

// ColumnAggregation holds the aggregate values for one numeric column.
type ColumnAggregation struct {
	Sum   *float64 `json:"sum,omitempty"`
	Avg   *float64 `json:"avg,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Count int64    `json:"count"`
}

// Aggregations maps column id to its aggregation.
type Aggregations map[string]ColumnAggregation

// TableStats summarises one registered table for the dashboard.
type TableStats struct {
	Info       TableInfo `json:"info"`
	RowCount   int64     `json:"rowCount"`
	ServerSide bool      `json:"serverSide"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Standard batch actions offered by registered grids.
const (
	BatchDelete = "delete"
	BatchExport = "export"
)
