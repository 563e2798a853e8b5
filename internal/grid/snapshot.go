package grid

// Snapshot is a diagnostic view of engine state, passed to the
// OnDebugSnapshot hook after every recomputation.
type Snapshot struct {
	ServerSide        bool        `json:"serverSide"`
	Sorting           Sorting     `json:"sorting"`
	Filters           FilterState `json:"filters"`
	Pagination        Pagination  `json:"pagination"`
	DatasetRows       int         `json:"datasetRows"`
	FilteredCount     int         `json:"filteredCount"`
	PageCount         int         `json:"pageCount"`
	VisibleRows       int         `json:"visibleRows"`
	Selected          int         `json:"selected"`
	Loading           bool        `json:"loading"`
	Generation        uint64      `json:"generation"`
	AppliedGeneration uint64      `json:"appliedGeneration"`
	PendingEmissions  int         `json:"pendingEmissions"`
}
