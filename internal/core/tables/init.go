// Package tables registers the fuel-station grids with the core registry.
// Import this package for its side effects to make the tables available.
package tables

import (
	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// Dashboard groups.
const (
	GroupNetwork   = "Network"
	GroupForecourt = "Forecourt"
	GroupWetstock  = "Wetstock"
)

var fuelGrades = []string{"unleaded", "premium", "diesel", "e10", "lpg"}

// Tables whose rows can be removed from the dashboard offer both actions;
// read-only tables only export.
var (
	deleteAndExport = []grid.BatchAction{
		{Label: "Delete", Value: core.BatchDelete},
		{Label: "Export selected", Value: core.BatchExport},
	}
	exportOnly = []grid.BatchAction{
		{Label: "Export selected", Value: core.BatchExport},
	}
)

func init() {
	registerStations()
	registerFuelSales()
	registerTankReadings()
	registerFuelDeliveries()
}
