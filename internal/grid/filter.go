package grid

import (
	"strings"
	"time"
)

// AutoOperator picks the operator used when a column filter names none:
// substring for text, inclusive range for a "lo,hi" numeric or date value,
// equality otherwise.
func AutoOperator(t FieldType, value string) FilterOperator {
	switch t {
	case FieldNumeric, FieldDate:
		if strings.Contains(value, ",") {
			return OpBetween
		}
		return OpEquals
	case FieldBool:
		return OpEquals
	default:
		return OpContains
	}
}

// FilterRows returns the rows that pass the global and column filters, in
// input order. Column filters naming unknown columns are ignored.
func FilterRows[Row any](m *ColumnModel[Row], rows []Row, f FilterState) []Row {
	global := strings.ToLower(strings.TrimSpace(f.Global))

	type boundFilter struct {
		col *Column[Row]
		cf  ColumnFilter
	}
	var bound []boundFilter
	for _, cf := range f.Columns {
		col, ok := m.Lookup(cf.ColumnID)
		if !ok || strings.TrimSpace(cf.Value) == "" {
			continue
		}
		bound = append(bound, boundFilter{col: col, cf: cf})
	}

	if global == "" && len(bound) == 0 {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if global != "" && !matchesGlobal(m, r, global) {
			continue
		}
		pass := true
		for _, b := range bound {
			if !MatchColumnFilter(b.col, r, b.cf) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, r)
		}
	}
	return out
}

// matchesGlobal scans every column's formatted value, visible or not.
func matchesGlobal[Row any](m *ColumnModel[Row], r Row, needle string) bool {
	for i := range m.columns {
		if strings.Contains(strings.ToLower(m.columns[i].Format(r)), needle) {
			return true
		}
	}
	return false
}

// MatchColumnFilter reports whether a row's value in col satisfies cf.
func MatchColumnFilter[Row any](col *Column[Row], r Row, cf ColumnFilter) bool {
	value := strings.TrimSpace(cf.Value)
	if value == "" {
		return true
	}
	op := cf.Operator
	if op == "" {
		op = AutoOperator(col.Type, value)
	}

	raw := col.Value(r)
	text := strings.ToLower(col.Format(r))
	needle := strings.ToLower(value)

	switch op {
	case OpContains:
		return strings.Contains(text, needle)
	case OpStartsWith:
		return strings.HasPrefix(text, needle)
	case OpEndsWith:
		return strings.HasSuffix(text, needle)
	case OpEquals:
		return equalsValue(col.Type, raw, text, value, false)
	case OpIn:
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" && equalsValue(col.Type, raw, text, part, true) {
				return true
			}
		}
		return false
	case OpGreaterEq:
		c, ok := compareToFilter(col.Type, raw, text, value)
		return ok && c >= 0
	case OpGreater:
		c, ok := compareToFilter(col.Type, raw, text, value)
		return ok && c > 0
	case OpLessEq:
		c, ok := compareToFilter(col.Type, raw, text, value)
		return ok && c <= 0
	case OpLess:
		c, ok := compareToFilter(col.Type, raw, text, value)
		return ok && c < 0
	case OpBetween:
		lo, hi, _ := strings.Cut(value, ",")
		lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
		if lo != "" {
			c, ok := compareToFilter(col.Type, raw, text, lo)
			if !ok || c < 0 {
				return false
			}
		}
		if hi != "" {
			c, ok := compareToFilter(col.Type, raw, text, hi)
			if !ok || c > 0 {
				return false
			}
		}
		return true
	}
	return false
}

// equalsValue tests a cell against one filter value. A typed column
// never matches a value that does not parse as its type.
func equalsValue(t FieldType, raw any, text, value string, byDay bool) bool {
	switch t {
	case FieldNumeric:
		b, ok := ParseNumber(value)
		if !ok {
			return false
		}
		if a, ok := numericValue(raw); ok {
			return a == b
		}
	case FieldDate:
		b, dateOnly, ok := ParseDate(value)
		if !ok {
			return false
		}
		if a, ok := timeValue(raw); ok {
			if dateOnly || byDay {
				return sameDay(a, b)
			}
			return a.Equal(b)
		}
	case FieldBool:
		b, ok := ParseBool(value)
		if !ok {
			return false
		}
		if a, ok := boolValue(raw); ok {
			return a == b
		}
	}
	return text == strings.ToLower(value)
}

// compareToFilter compares a cell against a filter bound. Missing cells
// never satisfy a bound. Date-only bounds compare by calendar day and
// bool columns have no order.
func compareToFilter(t FieldType, raw any, text, value string) (int, bool) {
	if IsMissing(raw) {
		return 0, false
	}
	switch t {
	case FieldNumeric:
		a, okA := numericValue(raw)
		b, okB := ParseNumber(value)
		if !okA || !okB {
			return 0, false
		}
		return CompareValues(a, b, FieldNumeric), true
	case FieldDate:
		a, okA := timeValue(raw)
		b, dateOnly, okB := ParseDate(value)
		if !okA || !okB {
			return 0, false
		}
		if dateOnly {
			a = truncateDay(a)
		}
		return a.Compare(b), true
	case FieldBool:
		return 0, false
	}
	return CompareValues(text, strings.ToLower(value), FieldText), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}
