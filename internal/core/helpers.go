package core

import (
	"strings"
	"unicode"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// KeySeparator joins the values of a composite unique key.
const KeySeparator = "|"

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteColumns quotes each column name in the slice.
func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}

// toDBColumnName converts a display header to a database column name.
// "Volume (L)" -> "volume_l"
// "station_id" -> "station_id"
func toDBColumnName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		case r == '_' || unicode.IsSpace(r):
			pendingSep = true
		}
	}
	return b.String()
}

// RowKey builds the identity of a row from its unique key columns. Values
// are rendered with grid.FormatValue and joined with KeySeparator.
func RowKey(row TableRow, uniqueKey []string) string {
	parts := make([]string, len(uniqueKey))
	for i, col := range uniqueKey {
		parts[i] = grid.FormatValue(row[col])
	}
	return strings.Join(parts, KeySeparator)
}

// splitRowKey splits a composite key. It reports false when the number of
// parts does not match the key width.
func splitRowKey(key string, width int) ([]string, bool) {
	parts := strings.Split(key, KeySeparator)
	if len(parts) != width {
		return nil, false
	}
	return parts, true
}
