package core

// values.go converts raw CSV cells into the typed values rows carry. The
// parsing rules live in the grid package so that cells, in-memory filters
// and SQL filters all read text the same way.

import (
	"time"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// CleanCell removes common CSV artifacts from a cell value.
func CleanCell(s string) string { return grid.CleanValue(s) }

// ParseNumeric parses an amount, volume or price.
func ParseNumeric(s string) (float64, bool) { return grid.ParseNumber(s) }

// ParseDate parses a date or timestamp; see grid.ParseDate.
func ParseDate(s string) (time.Time, bool, bool) { return grid.ParseDate(s) }

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0.
func ParseBool(s string) (bool, bool) { return grid.ParseBool(s) }

// ParseCell converts a raw cell to the Go value used for a column type.
// Empty cells become nil. Cells that do not parse as their type are kept
// as cleaned text so they still display and filter.
func ParseCell(t grid.FieldType, s string) any {
	s = grid.CleanValue(s)
	if s == "" {
		return nil
	}
	switch t {
	case grid.FieldNumeric:
		if f, ok := grid.ParseNumber(s); ok {
			return f
		}
	case grid.FieldDate:
		if d, _, ok := grid.ParseDate(s); ok {
			return d
		}
	case grid.FieldBool:
		if b, ok := grid.ParseBool(s); ok {
			return b
		}
	}
	return s
}
