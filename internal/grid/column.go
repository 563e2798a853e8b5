package grid

import "fmt"

type (
	// Accessor extracts a cell value from a row. A nil result is a missing
	// value.
	Accessor[Row any] func(Row) any

	// CellFormatter renders a cell value for display, filtering and export.
	CellFormatter func(any) string

	// FooterAggregator reduces the values of a column (over the filtered
	// rows) to a footer label.
	FooterAggregator func([]any) string

	// Column describes one column of the grid.
	Column[Row any] struct {
		ID         string
		Header     string
		Accessor   Accessor[Row]
		Type       FieldType
		Sortable   bool
		Filterable bool
		Visible    bool
		Exportable bool
		Formatter  CellFormatter
		Footer     FooterAggregator
	}

	// ColumnOption adjusts a column built by NewColumn.
	ColumnOption[Row any] func(*Column[Row])
)

// NewColumn builds a sortable, filterable, visible and exportable text
// column. Options override the defaults.
func NewColumn[Row any](
	id, header string, accessor Accessor[Row], opts ...ColumnOption[Row],
) Column[Row] {
	c := Column[Row]{
		ID:         id,
		Header:     header,
		Accessor:   accessor,
		Type:       FieldText,
		Sortable:   true,
		Filterable: true,
		Visible:    true,
		Exportable: true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithType sets the column's field type.
func WithType[Row any](t FieldType) ColumnOption[Row] {
	return func(c *Column[Row]) { c.Type = t }
}

// WithFormatter sets the cell formatter.
func WithFormatter[Row any](f CellFormatter) ColumnOption[Row] {
	return func(c *Column[Row]) { c.Formatter = f }
}

// WithFooter sets the footer aggregator.
func WithFooter[Row any](f FooterAggregator) ColumnOption[Row] {
	return func(c *Column[Row]) { c.Footer = f }
}

// Unsortable excludes the column from sorting.
func Unsortable[Row any]() ColumnOption[Row] {
	return func(c *Column[Row]) { c.Sortable = false }
}

// Unfilterable excludes the column from column filters. The global filter
// still searches it.
func Unfilterable[Row any]() ColumnOption[Row] {
	return func(c *Column[Row]) { c.Filterable = false }
}

// Hidden hides the column from the rendered view.
func Hidden[Row any]() ColumnOption[Row] {
	return func(c *Column[Row]) { c.Visible = false }
}

// NoExport leaves the column out of CSV exports.
func NoExport[Row any]() ColumnOption[Row] {
	return func(c *Column[Row]) { c.Exportable = false }
}

// Value returns the raw cell value for a row.
func (c *Column[Row]) Value(r Row) any {
	if c.Accessor == nil {
		return nil
	}
	return c.Accessor(r)
}

// Format renders the cell value for a row.
func (c *Column[Row]) Format(r Row) string {
	v := c.Value(r)
	if c.Formatter != nil {
		return c.Formatter(v)
	}
	return FormatValue(v)
}

// ColumnModel is the immutable, validated column list of an engine.
type ColumnModel[Row any] struct {
	columns []Column[Row]
	index   map[string]int
}

// NewColumnModel validates the columns and indexes them by id.
func NewColumnModel[Row any](cols []Column[Row]) (*ColumnModel[Row], error) {
	m := &ColumnModel[Row]{
		columns: make([]Column[Row], len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	copy(m.columns, cols)

	for i, c := range m.columns {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: column %d has no id", ErrInvalidColumn, i)
		}
		if c.Accessor == nil {
			return nil, fmt.Errorf("%w: column %q has no accessor", ErrInvalidColumn, c.ID)
		}
		if _, dup := m.index[c.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.ID)
		}
		m.index[c.ID] = i
	}
	return m, nil
}

// Columns returns every column in declaration order.
func (m *ColumnModel[Row]) Columns() []Column[Row] {
	out := make([]Column[Row], len(m.columns))
	copy(out, m.columns)
	return out
}

// Lookup returns the column with the given id.
func (m *ColumnModel[Row]) Lookup(id string) (*Column[Row], bool) {
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return &m.columns[i], true
}

// Visible returns the visible columns in declaration order.
func (m *ColumnModel[Row]) Visible() []Column[Row] {
	return m.filter(func(c *Column[Row]) bool { return c.Visible })
}

// Exportable returns the exportable columns in declaration order.
func (m *ColumnModel[Row]) Exportable() []Column[Row] {
	return m.filter(func(c *Column[Row]) bool { return c.Exportable })
}

// Len returns the number of columns.
func (m *ColumnModel[Row]) Len() int {
	return len(m.columns)
}

func (m *ColumnModel[Row]) filter(keep func(*Column[Row]) bool) []Column[Row] {
	var out []Column[Row]
	for i := range m.columns {
		if keep(&m.columns[i]) {
			out = append(out, m.columns[i])
		}
	}
	return out
}
