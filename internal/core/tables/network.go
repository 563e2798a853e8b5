package tables

import (
	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

func registerStations() {
	core.Register(core.GridDefinition{
		Info: core.TableInfo{
			Key:       "stations",
			Group:     GroupNetwork,
			Label:     "Stations",
			UniqueKey: []string{"station_id"},
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
			{Name: "Name", Type: grid.FieldText},
			{Name: "City", Type: grid.FieldText},
			{Name: "Region", Type: grid.FieldEnum, EnumValues: []string{"north", "south", "east", "west"}},
			{Name: "Opened", DBColumn: "opened_on", Type: grid.FieldDate},
			{Name: "Pumps", DBColumn: "pump_count", Type: grid.FieldNumeric, Footer: "sum"},
			{Name: "Active", Type: grid.FieldBool},
		},
		DefaultPageSize: 10,
		PageSizeOptions: []int{10, 25, 50},
		DefaultSorting:  grid.Sorting{{ColumnID: "station_id", Direction: grid.SortAsc}},
		BatchActions:    exportOnly,
	})
}
