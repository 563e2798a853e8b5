package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// WhereBuilder accumulates SQL conditions with positional arguments.
// Conditions are joined with AND.
type WhereBuilder struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

// NewWhereBuilder returns an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "col = $n". Nil values and empty strings are skipped.
func (wb *WhereBuilder) Add(col string, value interface{}) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", col, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddTimestampRange restricts col to [from, to]. A zero bound is open.
func (wb *WhereBuilder) AddTimestampRange(col string, from, to time.Time) {
	if !from.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s >= $%d", col, wb.argIndex))
		wb.args = append(wb.args, from)
		wb.argIndex++
	}
	if !to.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s <= $%d", col, wb.argIndex))
		wb.args = append(wb.args, to)
		wb.argIndex++
	}
}

// AddSearch matches query as a case-insensitive substring of any column.
// Non-text columns are searched through their text cast.
func (wb *WhereBuilder) AddSearch(query string, specs []FieldSpec) {
	query = strings.TrimSpace(query)
	if query == "" || len(specs) == 0 {
		return
	}

	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", textExpr(spec.Column(), spec.Type), wb.argIndex))
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+escapeLike(query)+"%")
	wb.argIndex++
}

// AddFilters adds one condition per column filter. Filters naming columns
// without a field spec are ignored.
func (wb *WhereBuilder) AddFilters(filters []grid.ColumnFilter, specs []FieldSpec) {
	for _, cf := range filters {
		spec, ok := findSpec(specs, cf.ColumnID)
		if !ok {
			continue
		}
		cond, args, next := buildSingleFilter(sqlFilter{
			DBColumn: spec.Column(),
			Type:     spec.Type,
			Operator: cf.Operator,
			Value:    cf.Value,
		}, wb.argIndex)
		if cond == "" {
			continue
		}
		wb.conditions = append(wb.conditions, cond)
		wb.args = append(wb.args, args...)
		wb.argIndex = next
	}
}

// NextArgIndex returns the placeholder number the next argument will use.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns " WHERE a AND b" and its arguments, or "" and nil when no
// condition was added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// sqlFilter is a column filter resolved against its field spec.
type sqlFilter struct {
	DBColumn string
	Type     grid.FieldType
	Operator grid.FilterOperator
	Value    string
}

// buildSingleFilter renders one filter starting at placeholder argIdx and
// returns the next free index. Values that cannot be read as the column's
// type render FALSE, matching the in-memory filter which never matches
// them. Unknown operators render nothing.
func buildSingleFilter(f sqlFilter, argIdx int) (string, []interface{}, int) {
	value := strings.TrimSpace(f.Value)
	if value == "" {
		return "", nil, argIdx
	}
	op := f.Operator
	if op == "" {
		op = grid.AutoOperator(f.Type, value)
	}
	col := quoteIdentifier(f.DBColumn)

	switch op {
	case grid.OpContains:
		return likeCondition(col, f.Type, "%"+escapeLike(value)+"%", argIdx)
	case grid.OpStartsWith:
		return likeCondition(col, f.Type, escapeLike(value)+"%", argIdx)
	case grid.OpEndsWith:
		return likeCondition(col, f.Type, "%"+escapeLike(value), argIdx)
	case grid.OpEquals:
		return compareCondition(col, f.Type, "=", value, argIdx)
	case grid.OpGreaterEq:
		return compareCondition(col, f.Type, ">=", value, argIdx)
	case grid.OpGreater:
		return compareCondition(col, f.Type, ">", value, argIdx)
	case grid.OpLessEq:
		return compareCondition(col, f.Type, "<=", value, argIdx)
	case grid.OpLess:
		return compareCondition(col, f.Type, "<", value, argIdx)
	case grid.OpIn:
		return inCondition(col, f.Type, value, argIdx)
	case grid.OpBetween:
		lo, hi, _ := strings.Cut(value, ",")
		var conds []string
		var args []interface{}
		if lo = strings.TrimSpace(lo); lo != "" {
			c, a, next := compareCondition(col, f.Type, ">=", lo, argIdx)
			conds, args, argIdx = append(conds, c), append(args, a...), next
		}
		if hi = strings.TrimSpace(hi); hi != "" {
			c, a, next := compareCondition(col, f.Type, "<=", hi, argIdx)
			conds, args, argIdx = append(conds, c), append(args, a...), next
		}
		switch len(conds) {
		case 0:
			return "", nil, argIdx
		case 1:
			return conds[0], args, argIdx
		}
		return "(" + strings.Join(conds, " AND ") + ")", args, argIdx
	}
	return "", nil, argIdx
}

func likeCondition(col string, t grid.FieldType, pattern string, argIdx int) (string, []interface{}, int) {
	return fmt.Sprintf("%s ILIKE $%d", textExpr(col, t), argIdx), []interface{}{pattern}, argIdx + 1
}

// compareCondition renders col <op> value with the argument typed for the
// column. Date-only values compare by calendar day; text compares
// case-insensitively.
func compareCondition(col string, t grid.FieldType, op, value string, argIdx int) (string, []interface{}, int) {
	switch t {
	case grid.FieldNumeric:
		n, ok := grid.ParseNumber(value)
		if !ok {
			return "FALSE", nil, argIdx
		}
		return fmt.Sprintf("%s %s $%d", col, op, argIdx), []interface{}{n}, argIdx + 1
	case grid.FieldDate:
		d, dateOnly, ok := grid.ParseDate(value)
		if !ok {
			return "FALSE", nil, argIdx
		}
		if dateOnly {
			col += "::date"
		}
		return fmt.Sprintf("%s %s $%d", col, op, argIdx), []interface{}{d}, argIdx + 1
	case grid.FieldBool:
		b, ok := grid.ParseBool(value)
		if !ok || op != "=" {
			return "FALSE", nil, argIdx
		}
		return fmt.Sprintf("%s = $%d", col, argIdx), []interface{}{b}, argIdx + 1
	}
	return fmt.Sprintf("LOWER(%s) %s $%d", col, op, argIdx), []interface{}{strings.ToLower(value)}, argIdx + 1
}

func inCondition(col string, t grid.FieldType, value string, argIdx int) (string, []interface{}, int) {
	var args []interface{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch t {
		case grid.FieldNumeric:
			if n, ok := grid.ParseNumber(part); ok {
				args = append(args, n)
			}
		case grid.FieldDate:
			if d, _, ok := grid.ParseDate(part); ok {
				args = append(args, d)
			}
		case grid.FieldBool:
			if b, ok := grid.ParseBool(part); ok {
				args = append(args, b)
			}
		default:
			args = append(args, strings.ToLower(part))
		}
	}
	if len(args) == 0 {
		return "FALSE", nil, argIdx
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", argIdx+i)
	}
	expr := col
	switch t {
	case grid.FieldDate:
		expr = col + "::date"
	case grid.FieldNumeric, grid.FieldBool:
	default:
		expr = "LOWER(" + col + ")"
	}
	return fmt.Sprintf("%s IN (%s)", expr, strings.Join(placeholders, ", ")), args, argIdx + len(args)
}

// textExpr is the expression substring matching runs against.
func textExpr(col string, t grid.FieldType) string {
	if !strings.HasPrefix(col, `"`) {
		col = quoteIdentifier(col)
	}
	if t == grid.FieldText || t == grid.FieldEnum {
		return col
	}
	return col + "::text"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input literal inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func findSpec(specs []FieldSpec, column string) (FieldSpec, bool) {
	for _, spec := range specs {
		if spec.Column() == column {
			return spec, true
		}
	}
	return FieldSpec{}, false
}
