package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// Store reads and mutates the rows behind registered grids.
type Store interface {
	// FetchPage returns the page of def selected by q, sorted and filtered
	// by the database.
	FetchPage(ctx context.Context, def GridDefinition, q grid.Query) (Page, error)
	// FetchAll returns every row of def in its default order.
	FetchAll(ctx context.Context, def GridDefinition) ([]TableRow, error)
	// Aggregate computes sum, avg, min, max and count for the numeric
	// columns of def over the rows passing filters.
	Aggregate(ctx context.Context, def GridDefinition, filters grid.FilterState) (Aggregations, error)
	// DeleteRows removes rows by their RowKey and returns the count deleted.
	DeleteRows(ctx context.Context, def GridDefinition, keys []string) (int, error)
	// Count returns the number of rows in def.
	Count(ctx context.Context, def GridDefinition) (int64, error)
}

// PgStore is the PostgreSQL Store. Each grid reads the table named by its
// key.
type PgStore struct {
	db         DBTX
	skipCounts bool
}

// PgStoreOption configures a PgStore.
type PgStoreOption func(*PgStore)

// WithoutCounts skips the COUNT(*) behind each page. Pages then report
// grid.UnknownTotal and the grid pages forward until a short page.
func WithoutCounts() PgStoreOption {
	return func(s *PgStore) { s.skipCounts = true }
}

// NewPgStore creates a store over a pool or transaction.
func NewPgStore(db DBTX, opts ...PgStoreOption) *PgStore {
	s := &PgStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPage implements Store.
func (s *PgStore) FetchPage(ctx context.Context, def GridDefinition, q grid.Query) (Page, error) {
	wb := NewWhereBuilder()
	wb.AddSearch(q.Filters.Global, def.FieldSpecs)
	wb.AddFilters(q.Filters.Columns, def.FieldSpecs)
	whereClause, args := wb.Build()

	total := grid.UnknownTotal
	if !s.skipCounts {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdentifier(def.Info.Key), whereClause)
		var n int64
		if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&n); err != nil {
			return Page{}, fmt.Errorf("count rows: %w", err)
		}
		total = int(n)
	}

	size := q.Pagination.PageSize
	if size <= 0 {
		size = grid.DefaultPageSize
	}
	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		strings.Join(quoteColumns(def.Info.Columns), ", "),
		quoteIdentifier(def.Info.Key),
		whereClause,
		orderByClause(def, q.Sorting),
		argIndex,
		argIndex+1,
	)
	args = append(args, size, q.Pagination.PageIndex*size)

	rows, err := s.queryRows(ctx, def, query, args...)
	if err != nil {
		return Page{}, err
	}
	return Page{Rows: rows, Total: total}, nil
}

// FetchAll implements Store.
func (s *PgStore) FetchAll(ctx context.Context, def GridDefinition) ([]TableRow, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s",
		strings.Join(quoteColumns(def.Info.Columns), ", "),
		quoteIdentifier(def.Info.Key),
		orderByClause(def, def.DefaultSorting),
	)
	return s.queryRows(ctx, def, query)
}

// Aggregate implements Store.
func (s *PgStore) Aggregate(ctx context.Context, def GridDefinition, filters grid.FilterState) (Aggregations, error) {
	var numeric []string
	for _, spec := range def.FieldSpecs {
		if spec.Type == grid.FieldNumeric {
			numeric = append(numeric, spec.Column())
		}
	}
	if len(numeric) == 0 {
		return Aggregations{}, nil
	}

	wb := NewWhereBuilder()
	wb.AddSearch(filters.Global, def.FieldSpecs)
	wb.AddFilters(filters.Columns, def.FieldSpecs)
	whereClause, args := wb.Build()

	// SUM, AVG, MIN, MAX, COUNT per column
	exprs := make([]string, 0, len(numeric)*5)
	for _, col := range numeric {
		q := quoteIdentifier(col)
		exprs = append(exprs,
			fmt.Sprintf("SUM(%s)::float8", q),
			fmt.Sprintf("AVG(%s)::float8", q),
			fmt.Sprintf("MIN(%s)::float8", q),
			fmt.Sprintf("MAX(%s)::float8", q),
			fmt.Sprintf("COUNT(%s)", q),
		)
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s",
		strings.Join(exprs, ", "),
		quoteIdentifier(def.Info.Key),
		whereClause,
	)

	aggs := make([]ColumnAggregation, len(numeric))
	dest := make([]interface{}, 0, len(numeric)*5)
	for i := range aggs {
		dest = append(dest, &aggs[i].Sum, &aggs[i].Avg, &aggs[i].Min, &aggs[i].Max, &aggs[i].Count)
	}
	if err := s.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan aggregations: %w", err)
	}

	result := make(Aggregations, len(numeric))
	for i, col := range numeric {
		result[col] = aggs[i]
	}
	return result, nil
}

// DeleteRows implements Store. Keys whose width does not match the unique
// key are skipped.
func (s *PgStore) DeleteRows(ctx context.Context, def GridDefinition, keys []string) (int, error) {
	uniqueKey := def.Info.UniqueKey
	if len(uniqueKey) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoUniqueKey, def.Info.Key)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var (
		query string
		args  []interface{}
	)
	if len(uniqueKey) == 1 {
		// Single column key - use ANY for batch efficiency
		query = fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)",
			quoteIdentifier(def.Info.Key), quoteIdentifier(uniqueKey[0]))
		args = []interface{}{keys}
	} else {
		// Composite key - one row-value tuple per key
		var tuples []string
		for _, key := range keys {
			parts, ok := splitRowKey(key, len(uniqueKey))
			if !ok {
				continue
			}
			placeholders := make([]string, len(parts))
			for i, part := range parts {
				args = append(args, part)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
		}
		if len(tuples) == 0 {
			return 0, nil
		}
		query = fmt.Sprintf("DELETE FROM %s WHERE (%s) IN (%s)",
			quoteIdentifier(def.Info.Key),
			strings.Join(quoteColumns(uniqueKey), ", "),
			strings.Join(tuples, ", "),
		)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Count implements Store.
func (s *PgStore) Count(ctx context.Context, def GridDefinition) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(def.Info.Key))
	if err := s.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

func (s *PgStore) queryRows(ctx context.Context, def GridDefinition, query string, args ...interface{}) ([]TableRow, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}

	columns := def.Info.Columns
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TableRow, error) {
		values, err := row.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		out := make(TableRow, len(columns))
		for i, col := range columns {
			out[col] = normalizeValue(values[i])
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}
	return result, nil
}

// orderByClause renders the grid sorting as ORDER BY. Missing values sort
// first in either direction and text sorts case-insensitively with a
// case-sensitive tiebreak, matching the in-memory sort. The unique key is
// appended so paging is deterministic.
func orderByClause(def GridDefinition, sorting grid.Sorting) string {
	var parts []string
	seen := make(map[string]bool)
	for _, s := range sorting.Normalize() {
		spec, ok := def.Spec(s.ColumnID)
		if !ok || spec.NoSort || s.Direction == grid.SortNone {
			continue
		}
		dir := "ASC"
		if s.Direction == grid.SortDesc {
			dir = "DESC"
		}
		col := quoteIdentifier(spec.Column())
		if spec.Type == grid.FieldText || spec.Type == grid.FieldEnum {
			parts = append(parts, fmt.Sprintf("LOWER(%s) %s NULLS FIRST", col, dir))
		}
		parts = append(parts, fmt.Sprintf("%s %s NULLS FIRST", col, dir))
		seen[spec.Column()] = true
	}
	for _, col := range def.Info.UniqueKey {
		if !seen[col] {
			parts = append(parts, quoteIdentifier(col)+" ASC")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// normalizeValue converts driver values into the plain Go types the grid
// formats and compares.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Text:
		if !val.Valid {
			return nil
		}
		return val.String
	case [16]byte:
		return uuid.UUID(val).String()
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	}
	return v
}
