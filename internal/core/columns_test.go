package core

import (
	"testing"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

func TestGridColumns(t *testing.T) {
	def := GridDefinition{
		Info: testInfo("fuel_sales", "Forecourt", "Sales", "transaction_id"),
		FieldSpecs: []FieldSpec{
			{Name: "Transaction", DBColumn: "transaction_id", Type: grid.FieldText},
			{Name: "Price / L", Type: grid.FieldNumeric, Decimals: 3, Footer: "avg"},
			{Name: "Terminal", DBColumn: "terminal_id", Hidden: true, NoExport: true},
			{Name: "Notes", NoSort: true, NoFilter: true},
			{Name: "Station", DBColumn: "station_id"},
		},
	}

	cols := GridColumns(def, "station_id")
	if len(cols) != 5 {
		t.Fatalf("GridColumns() returned %d columns, want 5", len(cols))
	}

	price := cols[1]
	if price.ID != "price_l" || price.Header != "Price / L" || price.Type != grid.FieldNumeric {
		t.Errorf("price column = %s %q %v", price.ID, price.Header, price.Type)
	}
	row := TableRow{"price_l": 1.5}
	if got := price.Format(row); got != "1.500" {
		t.Errorf("price Format() = %q, want %q", got, "1.500")
	}
	if price.Footer == nil {
		t.Error("price footer not set")
	}

	if cols[2].Visible || cols[2].Exportable {
		t.Errorf("terminal column visible=%v exportable=%v, want both false", cols[2].Visible, cols[2].Exportable)
	}
	if cols[3].Sortable || cols[3].Filterable {
		t.Errorf("notes column sortable=%v filterable=%v, want both false", cols[3].Sortable, cols[3].Filterable)
	}
	if cols[4].Visible {
		t.Error("station column visible, want hidden by argument")
	}
	if cols[0].Footer != nil {
		t.Error("transaction column has a footer")
	}
}

func TestFixedDecimals(t *testing.T) {
	format := fixedDecimals(2)
	tests := []struct {
		in   any
		want string
	}{
		{12.0, "12.00"},
		{int64(3), "3.00"},
		{7, "7.00"},
		{"n/a", "n/a"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := format(tt.in); got != tt.want {
			t.Errorf("fixedDecimals(2)(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
