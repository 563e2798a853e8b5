// Package core provides the business logic behind the dashboard grids.
//
// It binds registered tables to grid engines from package grid and to a
// [Store] that reads them. Nothing here depends on HTTP; web handlers,
// gridctl and tests all drive the same [Service].
//
// # Architecture
//
//   - Table Definitions: Registered via the registry. Each table has field
//     specs, a unique key, a paging mode and its batch actions.
//   - Service: The entry point for listing tables, opening sessions and
//     computing one-shot snapshots and exports.
//   - Sessions: One grid engine per open dashboard grid, remembered between
//     requests and closed by the idle sweeper.
//   - Store: [PgStore] renders grid queries as SQL through [WhereBuilder].
//
// # Table Registry
//
// Tables are registered at init time using [Register]:
//
//	core.Register(core.GridDefinition{
//	    Info: core.TableInfo{Key: "stations", Group: "Network", Label: "Stations",
//	        UniqueKey: []string{"station_id"}},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
//	        {Name: "Pumps", DBColumn: "pump_count", Type: grid.FieldNumeric, Footer: "sum"},
//	    },
//	})
//
// # Paging Modes
//
// Client-side tables are loaded whole when a session opens and the engine
// sorts, filters and pages in memory. Server-side tables are paged by the
// database: every sort, filter or page change makes the engine report a new
// query, the session fetches it in the background through the
// [FetchLimiter], and results of superseded fetches are discarded.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB005: Database errors (references, connections, timeouts)
//   - GRD001-GRD009: Grid and session errors
//   - EXP001-EXP003: Export errors
//   - TBL001-TBL002: Table registry errors
//   - RATE001, REQ001: Throttled and cancelled requests
package core
