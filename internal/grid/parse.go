package grid

// parse.go reads loosely formatted text (CSV cells, filter inputs) as typed
// values. The in-memory filters and the SQL filter builder both use these,
// so a filter value means the same thing on either path.
//
// Pump controllers and tank gauges export dates, volumes and prices in many
// shapes:
//   - Multiple date formats (US, EU, ISO, with or without time of day)
//   - Currency symbols and thousand separators in amounts
//   - Accounting negatives "(12.50)"
//   - Excel formula prefixes (="value")

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted. Years more
// than this many years in the future are moved back a century.
var TwoDigitYearPivot = 20

var (
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"01/02/2006 15:04",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "02.01.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "02.01.06",
	}
)

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// CleanValue removes common CSV artifacts: surrounding whitespace, an Excel
// formula prefix and surrounding quotes.
func CleanValue(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.Trim(s, `"'`)
}

// ParseNumber parses an amount, volume or price.
func ParseNumber(s string) (float64, bool) {
	s = CleanValue(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = currencyStripper.Replace(s)
	if negative {
		s = "-" + s
	}
	if !numericPattern.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseDate parses a date or timestamp. dateOnly reports whether the input
// carried no time of day; such values compare by calendar day.
func ParseDate(s string) (t time.Time, dateOnly bool, ok bool) {
	s = CleanValue(s)
	if s == "" {
		return time.Time{}, false, false
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, false, true
		}
	}
	for _, layout := range fourDigitYearLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			if parsed.Year() > pivotYear {
				parsed = parsed.AddDate(-100, 0, 0)
			}
			return parsed, true, true
		}
	}
	return time.Time{}, false, false
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(CleanValue(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}
