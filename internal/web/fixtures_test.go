package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/fuelgrid/internal/config"
	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/grid/sink"
)

// fakeStore serves fixed rows. Pages come in stored order.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string][]core.TableRow
	fetches int
}

func (f *fakeStore) FetchPage(_ context.Context, def core.GridDefinition, q grid.Query) (core.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	all := f.rows[def.Info.Key]
	size := q.Pagination.PageSize
	if size <= 0 {
		size = grid.DefaultPageSize
	}
	start := min(q.Pagination.PageIndex*size, len(all))
	end := min(start+size, len(all))
	return core.Page{Rows: slices.Clone(all[start:end]), Total: len(all)}, nil
}

func (f *fakeStore) FetchAll(_ context.Context, def core.GridDefinition) ([]core.TableRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.rows[def.Info.Key]), nil
}

func (f *fakeStore) Aggregate(context.Context, core.GridDefinition, grid.FilterState) (core.Aggregations, error) {
	return nil, nil
}

func (f *fakeStore) DeleteRows(_ context.Context, def core.GridDefinition, keys []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []core.TableRow
	for _, r := range f.rows[def.Info.Key] {
		if !slices.Contains(keys, core.RowKey(r, def.Info.UniqueKey)) {
			kept = append(kept, r)
		}
	}
	n := len(f.rows[def.Info.Key]) - len(kept)
	f.rows[def.Info.Key] = kept
	return n, nil
}

func (f *fakeStore) Count(_ context.Context, def core.GridDefinition) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows[def.Info.Key])), nil
}

func (f *fakeStore) pageFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeStore) count(table string) int {
	n, _ := f.Count(context.Background(), core.GridDefinition{Info: core.TableInfo{Key: table}})
	return int(n)
}

var (
	stationsDef = core.GridDefinition{
		Info: core.TableInfo{Key: "stations", Group: "Network", Label: "Stations", UniqueKey: []string{"station_id"}},
		FieldSpecs: []core.FieldSpec{
			{Name: "Station", DBColumn: "station_id", Type: grid.FieldText},
			{Name: "City", DBColumn: "city", Type: grid.FieldText},
			{Name: "Pumps", DBColumn: "pump_count", Type: grid.FieldNumeric, Footer: "sum"},
			{Name: "Active", DBColumn: "active", Type: grid.FieldBool},
		},
		DefaultPageSize: 2,
		PageSizeOptions: []int{2, 10},
		BatchActions: []grid.BatchAction{
			{Label: "Delete", Value: core.BatchDelete},
			{Label: "Export selected", Value: core.BatchExport},
		},
	}
	salesDef = core.GridDefinition{
		Info: core.TableInfo{Key: "sales", Group: "Forecourt", Label: "Sales", UniqueKey: []string{"transaction_id"}},
		FieldSpecs: []core.FieldSpec{
			{Name: "Transaction", DBColumn: "transaction_id", Type: grid.FieldText},
			{Name: "Volume (L)", DBColumn: "volume_l", Type: grid.FieldNumeric},
		},
		ServerSide:      true,
		DefaultPageSize: 2,
		PageSizeOptions: []int{2, 5},
	}
)

func testRows() map[string][]core.TableRow {
	return map[string][]core.TableRow{
		"stations": {
			{"station_id": "ST-003", "city": "Bergen", "pump_count": int64(4), "active": true},
			{"station_id": "ST-001", "city": "Oslo", "pump_count": int64(8), "active": true},
			{"station_id": "ST-002", "city": "Trondheim", "pump_count": int64(6), "active": false},
		},
		"sales": {
			{"transaction_id": "tx-1", "volume_l": 10.0},
			{"transaction_id": "tx-2", "volume_l": 20.0},
			{"transaction_id": "tx-3", "volume_l": 30.0},
			{"transaction_id": "tx-4", "volume_l": 40.0},
			{"transaction_id": "tx-5", "volume_l": 50.0},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Fetch:  config.FetchConfig{Timeout: 2 * time.Second},
		Rate:   config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, ExportLimit: 10},
	}
}

type testEnv struct {
	server *Server
	store  *fakeStore
	sink   *sink.MemorySink
}

// newTestEnv registers the test tables and builds a server over a fake
// store. mutate adjusts the configuration before the server is built.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	core.Clear()
	core.Register(stationsDef)
	core.Register(salesDef)
	t.Cleanup(core.Clear)

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{store: &fakeStore{rows: testRows()}, sink: &sink.MemorySink{}}
	svc := core.NewService(env.store, core.ServiceOptions{
		FilterDebounce: grid.NoDebounce,
		ExportSink:     env.sink,
	})
	t.Cleanup(svc.CloseAll)
	env.server = NewServer(svc, cfg)
	return env
}

// do sends a request through the router. A non-nil body is encoded as JSON.
func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, target, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) ViewResponse {
	t.Helper()
	var v ViewResponse
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func rowKeys(v ViewResponse) []string {
	keys := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		keys[i] = r.Key
	}
	return keys
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}
