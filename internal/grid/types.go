package grid

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the engine.
var (
	ErrInvalidColumn      = errors.New("grid: invalid column")
	ErrDuplicateColumn    = errors.New("grid: duplicate column id")
	ErrUnknownColumn      = errors.New("grid: unknown column")
	ErrSelectionDisabled  = errors.New("grid: selection is not enabled")
	ErrExportDisabled     = errors.New("grid: export is not enabled")
	ErrUnknownBatchAction = errors.New("grid: unknown batch action")
	ErrNoRowKey           = errors.New("grid: RowKey is required when selection is enabled")
	ErrClosed             = errors.New("grid: engine is closed")
	ErrLoading            = errors.New("grid: rows are loading")
	ErrInvalidOperator    = errors.New("grid: invalid filter operator")
	ErrUnknownRow         = errors.New("grid: unknown row")
	ErrNoSink             = errors.New("grid: no file sink configured")
)

const (
	// UnknownTotal is passed as the server-side row total when the host
	// cannot count the full result set.
	UnknownTotal = -1

	// UnknownPageCount is reported when the total row count is unknown.
	UnknownPageCount = -1

	// DefaultPageSize is used when the configuration supplies none.
	DefaultPageSize = 25
)

// DefaultPageSizeOptions are offered when the configuration supplies none.
var DefaultPageSizeOptions = []int{10, 25, 50, 100}

// FieldType classifies a column for filtering and comparison.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
	FieldDate
	FieldBool
	FieldEnum
)

func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "numeric"
	case FieldDate:
		return "date"
	case FieldBool:
		return "bool"
	case FieldEnum:
		return "enum"
	default:
		return "text"
	}
}

// ParseFieldType maps a type name to a FieldType, defaulting to text.
func ParseFieldType(s string) FieldType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number":
		return FieldNumeric
	case "date", "time", "timestamp":
		return FieldDate
	case "bool", "boolean":
		return FieldBool
	case "enum":
		return FieldEnum
	default:
		return FieldText
	}
}

// SortDirection is the direction of a single sort key.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return "none"
	}
}

// MarshalText encodes the direction as "asc", "desc" or "none".
func (d SortDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts "asc" and "desc" (case-insensitive); anything else
// decodes to SortNone.
func (d *SortDirection) UnmarshalText(b []byte) error {
	*d = ParseSortDirection(string(b))
	return nil
}

// ParseSortDirection parses a direction name.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAsc
	case "desc", "descending":
		return SortDesc
	default:
		return SortNone
	}
}

// next returns the following direction in the none -> asc -> desc cycle.
func (d SortDirection) next() SortDirection {
	switch d {
	case SortNone:
		return SortAsc
	case SortAsc:
		return SortDesc
	default:
		return SortNone
	}
}

// SortSpec is one entry of the sort list.
type SortSpec struct {
	ColumnID  string        `json:"column"`
	Direction SortDirection `json:"dir"`
}

// Sorting is an ordered sort list; index 0 has the highest priority.
type Sorting []SortSpec

// Normalize returns a copy with SortNone entries and repeated column ids
// removed. The first occurrence of a column wins.
func (s Sorting) Normalize() Sorting {
	out := make(Sorting, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, spec := range s {
		if spec.ColumnID == "" || spec.Direction == SortNone || seen[spec.ColumnID] {
			continue
		}
		seen[spec.ColumnID] = true
		out = append(out, spec)
	}
	return out
}

// Direction reports the direction for a column, SortNone when absent.
func (s Sorting) Direction(columnID string) SortDirection {
	if i := s.Index(columnID); i >= 0 {
		return s[i].Direction
	}
	return SortNone
}

// Index returns the priority of a column in the list, or -1.
func (s Sorting) Index(columnID string) int {
	for i, spec := range s {
		if spec.ColumnID == columnID {
			return i
		}
	}
	return -1
}

// Equal reports whether two sort lists are identical.
func (s Sorting) Equal(o Sorting) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// FilterOperator names a column filter comparison.
type FilterOperator string

const (
	OpContains   FilterOperator = "contains"
	OpEquals     FilterOperator = "eq"
	OpStartsWith FilterOperator = "starts"
	OpEndsWith   FilterOperator = "ends"
	OpGreaterEq  FilterOperator = "gte"
	OpLessEq     FilterOperator = "lte"
	OpGreater    FilterOperator = "gt"
	OpLess       FilterOperator = "lt"
	OpIn         FilterOperator = "in"
	OpBetween    FilterOperator = "between"
)

// ValidOperator reports whether op is a known operator. The empty operator
// is valid and means "pick by column type".
func ValidOperator(op FilterOperator) bool {
	switch op {
	case "", OpContains, OpEquals, OpStartsWith, OpEndsWith,
		OpGreaterEq, OpLessEq, OpGreater, OpLess, OpIn, OpBetween:
		return true
	}
	return false
}

// ColumnFilter restricts one column.
type ColumnFilter struct {
	ColumnID string         `json:"column"`
	Operator FilterOperator `json:"op,omitempty"`
	Value    string         `json:"value"`
}

// FilterState is the combined global and per-column filter state.
type FilterState struct {
	Global  string         `json:"global"`
	Columns []ColumnFilter `json:"columns"`
}

// Column returns the filter for a column, if any.
func (f FilterState) Column(columnID string) (ColumnFilter, bool) {
	for _, cf := range f.Columns {
		if cf.ColumnID == columnID {
			return cf, true
		}
	}
	return ColumnFilter{}, false
}

// Active reports whether any filter would reject rows.
func (f FilterState) Active() bool {
	return strings.TrimSpace(f.Global) != "" || len(f.Columns) > 0
}

// normalizeColumnFilters keeps one entry per column (the last one given)
// and drops entries with an empty value, preserving first-seen order.
func normalizeColumnFilters(in []ColumnFilter) []ColumnFilter {
	last := make(map[string]ColumnFilter, len(in))
	order := make([]string, 0, len(in))
	for _, cf := range in {
		if cf.ColumnID == "" {
			continue
		}
		if _, ok := last[cf.ColumnID]; !ok {
			order = append(order, cf.ColumnID)
		}
		last[cf.ColumnID] = cf
	}

	out := make([]ColumnFilter, 0, len(order))
	for _, id := range order {
		cf := last[id]
		if strings.TrimSpace(cf.Value) == "" {
			continue
		}
		out = append(out, cf)
	}
	return out
}

// withColumnFilter returns filters with cf replacing any entry for the same
// column. An empty value removes the entry.
func withColumnFilter(filters []ColumnFilter, cf ColumnFilter) []ColumnFilter {
	out := make([]ColumnFilter, 0, len(filters)+1)
	replaced := false
	for _, existing := range filters {
		if existing.ColumnID != cf.ColumnID {
			out = append(out, existing)
			continue
		}
		replaced = true
		if strings.TrimSpace(cf.Value) != "" {
			out = append(out, cf)
		}
	}
	if !replaced && strings.TrimSpace(cf.Value) != "" {
		out = append(out, cf)
	}
	return out
}

func equalColumnFilters(a, b []ColumnFilter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Pagination is the current page window.
type Pagination struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// BatchAction is an action offered for the selected rows.
type BatchAction struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
