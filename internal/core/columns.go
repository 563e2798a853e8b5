package core

import (
	"slices"
	"strconv"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// GridColumns builds the grid columns of def. Column ids listed in hidden
// are hidden in addition to the specs marked Hidden.
func GridColumns(def GridDefinition, hidden ...string) []grid.Column[TableRow] {
	cols := make([]grid.Column[TableRow], 0, len(def.FieldSpecs))
	for _, spec := range def.FieldSpecs {
		id := spec.Column()
		opts := []grid.ColumnOption[TableRow]{grid.WithType[TableRow](spec.Type)}
		if spec.Hidden || slices.Contains(hidden, id) {
			opts = append(opts, grid.Hidden[TableRow]())
		}
		if spec.NoExport {
			opts = append(opts, grid.NoExport[TableRow]())
		}
		if spec.NoSort {
			opts = append(opts, grid.Unsortable[TableRow]())
		}
		if spec.NoFilter {
			opts = append(opts, grid.Unfilterable[TableRow]())
		}
		if spec.Type == grid.FieldNumeric && spec.Decimals > 0 {
			opts = append(opts, grid.WithFormatter[TableRow](fixedDecimals(spec.Decimals)))
		}
		if f := grid.FooterByName(spec.Footer, spec.Decimals); f != nil {
			opts = append(opts, grid.WithFooter[TableRow](f))
		}
		cols = append(cols, grid.NewColumn(id, spec.Name, rowAccessor(id), opts...))
	}
	return cols
}

func rowAccessor(id string) grid.Accessor[TableRow] {
	return func(r TableRow) any { return r[id] }
}

// fixedDecimals renders numbers with a fixed number of decimals, the way
// prices and volumes are printed on receipts.
func fixedDecimals(decimals int) grid.CellFormatter {
	return func(v any) string {
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', decimals, 64)
		case int64:
			return strconv.FormatFloat(float64(n), 'f', decimals, 64)
		case int:
			return strconv.FormatFloat(float64(n), 'f', decimals, 64)
		}
		return grid.FormatValue(v)
	}
}
