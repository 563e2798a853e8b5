package grid

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// FormatValue renders a raw cell value as text. Missing values render as
// the empty string.
func FormatValue(v any) string {
	v = deref(v)
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case time.Time:
		if val.IsZero() {
			return ""
		}
		if isMidnight(val) {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case float32:
		return formatFloat(float64(val))
	case float64:
		return formatFloat(val)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// IsMissing reports whether v is nil or a nil pointer.
func IsMissing(v any) bool {
	return deref(v) == nil
}

// deref follows pointers, returning nil for a nil pointer.
func deref(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return nil
}

// toFloat converts numeric kinds to float64. Strings are not parsed.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// numericValue reads v as a number, parsing strings when needed.
func numericValue(v any) (float64, bool) {
	v = deref(v)
	if v == nil {
		return 0, false
	}
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return ParseNumber(s)
	}
	return 0, false
}

// timeValue reads v as a time, parsing strings when needed.
func timeValue(v any) (time.Time, bool) {
	v = deref(v)
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case string:
		t, _, ok := ParseDate(val)
		return t, ok
	}
	return time.Time{}, false
}

func boolValue(v any) (bool, bool) {
	v = deref(v)
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		return ParseBool(val)
	}
	return false, false
}

// CompareValues orders two defined cell values as a total order for the
// column type. Numeric, date and bool columns compare parsed values, with
// values that do not parse after all that do, ordered by text among
// themselves. Text and enum columns always compare formatted text,
// case-insensitively first.
func CompareValues(a, b any, t FieldType) int {
	a, b = deref(a), deref(b)

	switch t {
	case FieldNumeric:
		fa, okA := numericValue(a)
		fb, okB := numericValue(b)
		if c, done := compareParsed(okA, okB); done {
			return c
		}
		if okA {
			return cmp.Compare(fa, fb)
		}
	case FieldDate:
		ta, okA := timeValue(a)
		tb, okB := timeValue(b)
		if c, done := compareParsed(okA, okB); done {
			return c
		}
		if okA {
			return ta.Compare(tb)
		}
	case FieldBool:
		ba, okA := boolValue(a)
		bb, okB := boolValue(b)
		if c, done := compareParsed(okA, okB); done {
			return c
		}
		if okA {
			return compareBool(ba, bb)
		}
	}
	return compareText(FormatValue(a), FormatValue(b))
}

// compareParsed orders a parsed value before an unparsed one. done is false
// when both or neither parsed.
func compareParsed(okA, okB bool) (int, bool) {
	switch {
	case okA && !okB:
		return -1, true
	case !okA && okB:
		return 1, true
	}
	return 0, false
}

func compareText(sa, sb string) int {
	if c := strings.Compare(strings.ToLower(sa), strings.ToLower(sb)); c != 0 {
		return c
	}
	return strings.Compare(sa, sb)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
