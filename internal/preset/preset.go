// Package preset loads per-table grid presets from YAML.
//
// A preset overrides the initial state a grid opens with: sort order,
// column filters, global search, page sizes and hidden columns. The same
// file format also carries column declarations so gridctl can render CSV
// files that have no registered table.
//
//	presets:
//	  - table: fuel_sales
//	    sort:
//	      - column: sold_at
//	        dir: desc
//	    filters:
//	      - column: fuel_grade
//	        op: in
//	        value: diesel,e10
//	    page_size: 50
//	    hidden: [terminal_id]
//	    export:
//	      filename: daily_sales
package preset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// ErrNoTable is returned for a preset without a table name.
var ErrNoTable = errors.New("preset: table is required")

// File is the top-level YAML document.
type File struct {
	Presets []Preset `yaml:"presets"`
}

// Preset is the initial grid state for one table.
type Preset struct {
	Table           string      `yaml:"table"`
	Sort            []SortDef   `yaml:"sort,omitempty"`
	Filters         []FilterDef `yaml:"filters,omitempty"`
	Search          string      `yaml:"search,omitempty"`
	PageSize        int         `yaml:"page_size,omitempty"`
	PageSizeOptions []int       `yaml:"page_size_options,omitempty"`
	Hidden          []string    `yaml:"hidden,omitempty"`
	Export          ExportDef   `yaml:"export,omitempty"`

	// Columns and RowKey describe ad-hoc tables (gridctl). Registered
	// tables take their columns from the registry.
	Columns []ColumnDef `yaml:"columns,omitempty"`
	RowKey  []string    `yaml:"row_key,omitempty"`
}

// SortDef is one sort key.
type SortDef struct {
	Column string `yaml:"column"`
	Dir    string `yaml:"dir"`
}

// FilterDef is one column filter. An empty Op picks the operator from the
// column type.
type FilterDef struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op,omitempty"`
	Value  string `yaml:"value"`
}

// ExportDef overrides export defaults.
type ExportDef struct {
	Filename string `yaml:"filename,omitempty"`
	Scope    string `yaml:"scope,omitempty"`
}

// ColumnDef declares a column of an ad-hoc table.
type ColumnDef struct {
	ID       string `yaml:"id"`
	Header   string `yaml:"header,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Footer   string `yaml:"footer,omitempty"`
	Decimals int    `yaml:"decimals,omitempty"`
	Hidden   bool   `yaml:"hidden,omitempty"`
	NoExport bool   `yaml:"no_export,omitempty"`
}

// FieldType returns the grid type named by Type.
func (c ColumnDef) FieldType() grid.FieldType {
	return grid.ParseFieldType(c.Type)
}

// Label returns Header, or ID when no header is set.
func (c ColumnDef) Label() string {
	if c.Header != "" {
		return c.Header
	}
	return c.ID
}

// GridSorting converts the sort keys. Entries with an unknown direction are
// dropped.
func (p Preset) GridSorting() grid.Sorting {
	var out grid.Sorting
	for _, s := range p.Sort {
		dir := grid.ParseSortDirection(s.Dir)
		if s.Column == "" || dir == grid.SortNone {
			continue
		}
		out = append(out, grid.SortSpec{ColumnID: s.Column, Direction: dir})
	}
	return out
}

// ColumnFilters converts the filters.
func (p Preset) ColumnFilters() []grid.ColumnFilter {
	if len(p.Filters) == 0 {
		return nil
	}
	out := make([]grid.ColumnFilter, 0, len(p.Filters))
	for _, f := range p.Filters {
		out = append(out, grid.ColumnFilter{
			ColumnID: f.Column,
			Operator: grid.FilterOperator(strings.ToLower(f.Op)),
			Value:    f.Value,
		})
	}
	return out
}

// ExportScope returns the export scope, filtered rows by default.
func (p Preset) ExportScope() grid.ExportScope {
	return grid.ParseExportScope(p.Export.Scope)
}

// Validate checks the preset for mistakes that would otherwise surface as
// silently ignored state.
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Table) == "" {
		return ErrNoTable
	}
	for _, f := range p.Filters {
		if f.Column == "" {
			return fmt.Errorf("preset %s: filter without column", p.Table)
		}
		if !grid.ValidOperator(grid.FilterOperator(strings.ToLower(f.Op))) {
			return fmt.Errorf("preset %s: %w %q", p.Table, grid.ErrInvalidOperator, f.Op)
		}
	}
	for _, s := range p.Sort {
		if grid.ParseSortDirection(s.Dir) == grid.SortNone {
			return fmt.Errorf("preset %s: invalid sort direction %q for %s", p.Table, s.Dir, s.Column)
		}
	}
	if p.PageSize < 0 {
		return fmt.Errorf("preset %s: negative page size", p.Table)
	}
	for _, n := range p.PageSizeOptions {
		if n <= 0 {
			return fmt.Errorf("preset %s: page size options must be positive", p.Table)
		}
	}
	seen := make(map[string]bool, len(p.Columns))
	for _, c := range p.Columns {
		if c.ID == "" {
			return fmt.Errorf("preset %s: column without id", p.Table)
		}
		if seen[c.ID] {
			return fmt.Errorf("preset %s: %w %q", p.Table, grid.ErrDuplicateColumn, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// Set holds presets by table. A nil Set has no presets.
type Set struct {
	byTable map[string]Preset
	order   []string
}

// Parse decodes and validates a preset document. Unknown fields are
// rejected. A later preset for the same table replaces an earlier one.
func Parse(data []byte) (*Set, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	set := &Set{byTable: make(map[string]Preset, len(f.Presets))}
	for _, p := range f.Presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := set.byTable[p.Table]; !ok {
			set.order = append(set.order, p.Table)
		}
		set.byTable[p.Table] = p
	}
	return set, nil
}

// Load reads a preset file. A missing file yields an empty set.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Set{}, nil
		}
		return nil, fmt.Errorf("read presets %s: %w", path, err)
	}
	return Parse(data)
}

// Get returns the preset for table.
func (s *Set) Get(table string) (Preset, bool) {
	if s == nil {
		return Preset{}, false
	}
	p, ok := s.byTable[table]
	return p, ok
}

// Tables lists the tables with presets in file order.
func (s *Set) Tables() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Len returns the number of presets.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byTable)
}
