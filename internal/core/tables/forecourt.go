package tables

import (
	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// fuel_sales is the only table too large to load whole, so the database
// sorts, filters and pages it.
func registerFuelSales() {
	core.Register(core.GridDefinition{
		Info: core.TableInfo{
			Key:       "fuel_sales",
			Group:     GroupForecourt,
			Label:     "Sales",
			UniqueKey: []string{"transaction_id"},
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Transaction", DBColumn: "transaction_id", Type: grid.FieldText},
			{Name: "Sold At", Type: grid.FieldDate},
			{Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
			{Name: "Pump", Type: grid.FieldNumeric},
			{Name: "Grade", DBColumn: "fuel_grade", Type: grid.FieldEnum, EnumValues: fuelGrades},
			{Name: "Volume (L)", Type: grid.FieldNumeric, Footer: "sum", Decimals: 2},
			{Name: "Price / L", Type: grid.FieldNumeric, Footer: "avg", Decimals: 3},
			{Name: "Amount", Type: grid.FieldNumeric, Footer: "sum", Decimals: 2},
			{Name: "Payment", DBColumn: "payment_method", Type: grid.FieldEnum, EnumValues: []string{"cash", "card", "fleet"}},
			{Name: "Loyalty", Type: grid.FieldBool},
			{Name: "Terminal", DBColumn: "terminal_id", Type: grid.FieldText, Hidden: true, NoExport: true},
		},
		ServerSide:      true,
		RetainSelection: true,
		DefaultPageSize: 50,
		PageSizeOptions: []int{25, 50, 100, 250},
		DefaultSorting:  grid.Sorting{{ColumnID: "sold_at", Direction: grid.SortDesc}},
		BatchActions:    deleteAndExport,
	})
}
