package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// memStore is an in-memory Store. FetchPage pages rows in stored order;
// sorting and filtering belong to the database and are not simulated.
type memStore struct {
	mu       sync.Mutex
	rows     map[string][]TableRow
	aggs     Aggregations
	fetchErr error
	gate     chan struct{} // when set, FetchPage waits for a value
	// aggregate replaces the fixed aggs when set.
	aggregate func(ctx context.Context, filters grid.FilterState) (Aggregations, error)
	queries  []grid.Query
	deleted  []string
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string][]TableRow)}
}

func (m *memStore) set(table string, rows []TableRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[table] = rows
}

func (m *memStore) FetchPage(ctx context.Context, def GridDefinition, q grid.Query) (Page, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	gate, fetchErr := m.gate, m.fetchErr
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}
	if fetchErr != nil {
		return Page{}, fetchErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.rows[def.Info.Key]
	size := q.Pagination.PageSize
	if size <= 0 {
		size = grid.DefaultPageSize
	}
	start := min(q.Pagination.PageIndex*size, len(all))
	end := min(start+size, len(all))
	return Page{Rows: slices.Clone(all[start:end]), Total: len(all)}, nil
}

func (m *memStore) FetchAll(_ context.Context, def GridDefinition) ([]TableRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return slices.Clone(m.rows[def.Info.Key]), nil
}

func (m *memStore) Aggregate(ctx context.Context, _ GridDefinition, filters grid.FilterState) (Aggregations, error) {
	m.mu.Lock()
	aggregate, aggs := m.aggregate, m.aggs
	m.mu.Unlock()
	if aggregate != nil {
		return aggregate(ctx, filters)
	}
	return aggs, nil
}

func (m *memStore) DeleteRows(_ context.Context, def GridDefinition, keys []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, keys...)
	kept := m.rows[def.Info.Key][:0:0]
	n := 0
	for _, r := range m.rows[def.Info.Key] {
		if slices.Contains(keys, RowKey(r, def.Info.UniqueKey)) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows[def.Info.Key] = kept
	return n, nil
}

func (m *memStore) Count(_ context.Context, def GridDefinition) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return 0, m.fetchErr
	}
	return int64(len(m.rows[def.Info.Key])), nil
}

func (m *memStore) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

func (m *memStore) lastQuery() grid.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[len(m.queries)-1]
}

var (
	testSalesDef = GridDefinition{
		Info: testInfo("sales", "Forecourt", "Sales", "transaction_id"),
		FieldSpecs: []FieldSpec{
			{Name: "Transaction", DBColumn: "transaction_id", Type: grid.FieldText},
			{Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
			{Name: "Volume (L)", Type: grid.FieldNumeric, Footer: "sum", Decimals: 2},
		},
		ServerSide:      true,
		DefaultPageSize: 2,
		PageSizeOptions: []int{2, 5},
		BatchActions: []grid.BatchAction{
			{Label: "Delete", Value: BatchDelete},
			{Label: "Export selected", Value: BatchExport},
		},
	}
	testStationsDef = GridDefinition{
		Info: testInfo("stations", "Network", "Stations", "station_id"),
		FieldSpecs: []FieldSpec{
			{Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
			{Name: "City", Type: grid.FieldText},
			{Name: "Pumps", DBColumn: "pump_count", Type: grid.FieldNumeric, Footer: "sum"},
			{Name: "Active", Type: grid.FieldBool},
		},
		DefaultPageSize: 2,
		PageSizeOptions: []int{2, 10},
		DefaultSorting:  grid.Sorting{{ColumnID: "station_id", Direction: grid.SortAsc}},
		BatchActions: []grid.BatchAction{
			{Label: "Delete", Value: BatchDelete},
			{Label: "Export selected", Value: BatchExport},
		},
	}
	testLogsDef = GridDefinition{
		Info: testInfo("pump_logs", "Forecourt", "Pump Logs"),
		FieldSpecs: []FieldSpec{
			{Name: "Pump", Type: grid.FieldNumeric},
			{Name: "Message", Type: grid.FieldText},
		},
	}
)

func testInfo(key, group, label string, uniqueKey ...string) TableInfo {
	return TableInfo{Key: key, Group: group, Label: label, UniqueKey: uniqueKey}
}

func salesRows(n int) []TableRow {
	rows := make([]TableRow, n)
	for i := range rows {
		rows[i] = TableRow{
			"transaction_id": fmt.Sprintf("tx-%02d", i+1),
			"station_id":     "ST-001",
			"volume_l":       float64(10 * (i + 1)),
		}
	}
	return rows
}

func stationRows() []TableRow {
	return []TableRow{
		{"station_id": "ST-003", "city": "Bergen", "pump_count": int64(4), "active": true},
		{"station_id": "ST-001", "city": "Oslo", "pump_count": int64(8), "active": true},
		{"station_id": "ST-002", "city": "Trondheim", "pump_count": int64(6), "active": false},
	}
}

// registerTestTables replaces the registry with the test tables for the
// duration of the test.
func registerTestTables(t *testing.T) {
	t.Helper()
	Clear()
	Register(testSalesDef)
	Register(testStationsDef)
	Register(testLogsDef)
	t.Cleanup(Clear)
}

func newTestService(t *testing.T, store Store, opts ServiceOptions) *Service {
	t.Helper()
	registerTestTables(t)
	if opts.FilterDebounce == 0 {
		opts.FilterDebounce = grid.NoDebounce
	}
	svc := NewService(store, opts)
	t.Cleanup(svc.CloseAll)
	return svc
}

func waitSession(t *testing.T, sess *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sess.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}
