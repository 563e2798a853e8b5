package tables

import (
	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

func registerTankReadings() {
	core.Register(core.GridDefinition{
		Info: core.TableInfo{
			Key:       "tank_readings",
			Group:     GroupWetstock,
			Label:     "Tank Readings",
			UniqueKey: []string{"reading_id"},
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Reading", DBColumn: "reading_id", Type: grid.FieldText, Hidden: true},
			{Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
			{Name: "Tank", DBColumn: "tank_no", Type: grid.FieldNumeric},
			{Name: "Grade", DBColumn: "fuel_grade", Type: grid.FieldEnum, EnumValues: fuelGrades},
			{Name: "Read At", Type: grid.FieldDate},
			{Name: "Volume (L)", Type: grid.FieldNumeric, Footer: "sum", Decimals: 1},
			{Name: "Water (mm)", Type: grid.FieldNumeric, Footer: "max"},
			{Name: "Temp (C)", DBColumn: "temperature_c", Type: grid.FieldNumeric, Footer: "avg", Decimals: 1},
		},
		DefaultPageSize: 25,
		DefaultSorting: grid.Sorting{
			{ColumnID: "station_id", Direction: grid.SortAsc},
			{ColumnID: "tank_no", Direction: grid.SortAsc},
			{ColumnID: "read_at", Direction: grid.SortDesc},
		},
		BatchActions: exportOnly,
	})
}

// Deliveries are identified by station and the supplier's delivery note.
func registerFuelDeliveries() {
	core.Register(core.GridDefinition{
		Info: core.TableInfo{
			Key:       "fuel_deliveries",
			Group:     GroupWetstock,
			Label:     "Deliveries",
			UniqueKey: []string{"station_id", "delivery_ref"},
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
			{Name: "Delivery Ref", Type: grid.FieldText},
			{Name: "Delivered At", Type: grid.FieldDate},
			{Name: "Supplier", Type: grid.FieldText},
			{Name: "Grade", DBColumn: "fuel_grade", Type: grid.FieldEnum, EnumValues: fuelGrades},
			{Name: "Ordered (L)", Type: grid.FieldNumeric, Footer: "sum", Decimals: 1},
			{Name: "Received (L)", Type: grid.FieldNumeric, Footer: "sum", Decimals: 1},
			{Name: "Variance (L)", Type: grid.FieldNumeric, Footer: "sum", Decimals: 1},
			{Name: "Invoice", DBColumn: "invoice_amount", Type: grid.FieldNumeric, Footer: "sum", Decimals: 2},
			{Name: "Reconciled", Type: grid.FieldBool},
		},
		RetainSelection: true,
		DefaultPageSize: 25,
		DefaultSorting:  grid.Sorting{{ColumnID: "delivered_at", Direction: grid.SortDesc}},
		BatchActions:    deleteAndExport,
	})
}
