package web

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"testing"
)

// openSession opens a grid session for table and returns its first view.
func openSession(t *testing.T, env *testEnv, table string) ViewResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/tables/"+table+"/sessions", nil)
	expectStatus(t, rec, http.StatusCreated)
	v := decodeView(t, rec)
	if v.SessionID == "" {
		t.Fatal("session id is empty")
	}
	return v
}

func sessionPath(v ViewResponse, suffix string) string {
	return "/api/sessions/" + v.SessionID + suffix
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	if got := rowKeys(v); !slices.Equal(got, []string{"ST-003", "ST-001"}) {
		t.Fatalf("initial rows = %v", got)
	}
	if v.Total != 3 || v.PageCount != 2 {
		t.Errorf("Total, PageCount = %d, %d, want 3, 2", v.Total, v.PageCount)
	}

	steps := []struct {
		name   string
		method string
		path   string
		body   any
		want   []string
	}{
		{"sort asc", http.MethodPost, "/sort", SortRequest{Column: "city"}, []string{"ST-003", "ST-001"}},
		{"sort desc", http.MethodPost, "/sort", SortRequest{Column: "city"}, []string{"ST-002", "ST-001"}},
		{"search", http.MethodPut, "/filter/global", GlobalFilterRequest{Value: "berg"}, []string{"ST-003"}},
		{"clear filters", http.MethodDelete, "/filter", nil, []string{"ST-002", "ST-001"}},
	}
	for _, step := range steps {
		rec := env.do(t, step.method, sessionPath(v, step.path), step.body)
		expectStatus(t, rec, http.StatusOK)
		if got := rowKeys(decodeView(t, rec)); !slices.Equal(got, step.want) {
			t.Errorf("%s: rows = %v, want %v", step.name, got, step.want)
		}
	}

	expectStatus(t, env.do(t, http.MethodDelete, sessionPath(v, ""), nil), http.StatusNoContent)

	rec := env.do(t, http.MethodGet, sessionPath(v, "/view"), nil)
	expectStatus(t, rec, http.StatusNotFound)
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != "GRD007" {
		t.Errorf("code = %q, want GRD007", resp.Code)
	}
}

func TestSessionPagination(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	size := func(n int) PaginationRequest { return PaginationRequest{PageSize: &n} }

	rec := env.do(t, http.MethodPut, sessionPath(v, "/pagination"), size(10))
	expectStatus(t, rec, http.StatusOK)
	if got := decodeView(t, rec); got.Pagination.PageSize != 10 || len(got.Rows) != 3 {
		t.Errorf("page size 10: size %d, rows %d", got.Pagination.PageSize, len(got.Rows))
	}

	rec = env.do(t, http.MethodPut, sessionPath(v, "/pagination"), size(3))
	expectStatus(t, rec, http.StatusOK)
	if got := decodeView(t, rec).Pagination.PageSize; got != 2 {
		t.Errorf("page size 3 should snap to 2, got %d", got)
	}

	moves := []struct {
		move      string
		wantIndex int
	}{
		{"next", 1},
		{"next", 1},
		{"first", 0},
		{"last", 1},
		{"previous", 0},
	}
	for _, m := range moves {
		rec := env.do(t, http.MethodPost, sessionPath(v, "/page/"+m.move), nil)
		expectStatus(t, rec, http.StatusOK)
		if got := decodeView(t, rec).Pagination.PageIndex; got != m.wantIndex {
			t.Errorf("after %s: page index = %d, want %d", m.move, got, m.wantIndex)
		}
	}

	expectStatus(t, env.do(t, http.MethodPost, sessionPath(v, "/page/sideways"), nil), http.StatusBadRequest)
}

func TestServerSidePaginationFetchesOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "sales")
	view := func() ViewResponse {
		t.Helper()
		rec := env.do(t, http.MethodGet, sessionPath(v, "/view?wait=1"), nil)
		expectStatus(t, rec, http.StatusOK)
		return decodeView(t, rec)
	}

	five := 5
	expectStatus(t, env.do(t, http.MethodPut, sessionPath(v, "/pagination"), PaginationRequest{PageSize: &five}), http.StatusOK)
	if got := view(); got.Pagination.PageSize != 5 || len(got.Rows) != 5 {
		t.Fatalf("page size 5: size %d, rows %d", got.Pagination.PageSize, len(got.Rows))
	}

	before := env.store.pageFetches()
	two, one := 2, 1
	rec := env.do(t, http.MethodPut, sessionPath(v, "/pagination"), PaginationRequest{PageSize: &two, PageIndex: &one})
	expectStatus(t, rec, http.StatusOK)

	got := view()
	if fetched := env.store.pageFetches() - before; fetched != 1 {
		t.Errorf("page fetches = %d, want 1 for one pagination request", fetched)
	}
	if got.Pagination.PageSize != 2 || got.Pagination.PageIndex != 0 {
		t.Errorf("pagination = %+v, want size 2 on the first page", got.Pagination)
	}
	if keys := rowKeys(got); !slices.Equal(keys, []string{"tx-1", "tx-2"}) {
		t.Errorf("rows = %v, want [tx-1 tx-2]", keys)
	}
}

func TestSessionSortingAndColumnFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	rec := env.do(t, http.MethodPut, sessionPath(v, "/sorting"), []map[string]string{
		{"column": "pump_count", "dir": "desc"},
	})
	expectStatus(t, rec, http.StatusOK)
	if got := rowKeys(decodeView(t, rec)); !slices.Equal(got, []string{"ST-001", "ST-002"}) {
		t.Errorf("sorted by pumps desc = %v", got)
	}

	rec = env.do(t, http.MethodPut, sessionPath(v, "/filter/columns"), []map[string]string{
		{"column": "pump_count", "op": "gte", "value": "6"},
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeView(t, rec); got.Total != 2 {
		t.Errorf("filtered total = %d, want 2", got.Total)
	}

	rec = env.do(t, http.MethodPut, sessionPath(v, "/filter/columns"), []map[string]string{
		{"column": "price", "value": "1"},
	})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestSessionSelectionAndBatchDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	rec := env.do(t, http.MethodPost, sessionPath(v, "/selection/toggle"), ToggleRowRequest{Key: "ST-001"})
	expectStatus(t, rec, http.StatusOK)
	got := decodeView(t, rec)
	if got.Selection == nil || got.Selection.Count != 1 || !got.Selection.SomeSelected {
		t.Fatalf("selection = %+v, want one row", got.Selection)
	}

	rec = env.do(t, http.MethodPost, sessionPath(v, "/batch/delete"), nil)
	expectStatus(t, rec, http.StatusOK)
	got = decodeView(t, rec)

	if n := env.store.count("stations"); n != 2 {
		t.Errorf("stored rows = %d, want 2", n)
	}
	if got.Selection.Count != 0 {
		t.Errorf("selection after batch = %d, want 0", got.Selection.Count)
	}
	if keys := rowKeys(got); slices.Contains(keys, "ST-001") {
		t.Errorf("deleted row still shown: %v", keys)
	}
}

func TestSessionSelectionErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown row", http.MethodPost, sessionPath(v, "/selection/toggle"), ToggleRowRequest{Key: "ST-999"}, http.StatusBadRequest},
		{"unknown action", http.MethodPost, sessionPath(v, "/batch/refuel"), nil, http.StatusBadRequest},
		{"empty body", http.MethodPost, sessionPath(v, "/selection/toggle"), nil, http.StatusBadRequest},
		{"unknown field", http.MethodPost, sessionPath(v, "/sort"), map[string]string{"col": "city"}, http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/api/sessions/nope/sort", SortRequest{Column: "city"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, env.do(t, tt.method, tt.path, tt.body), tt.want)
		})
	}
}

func TestSessionTogglePageAndClear(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	rec := env.do(t, http.MethodPost, sessionPath(v, "/selection/page"), nil)
	expectStatus(t, rec, http.StatusOK)
	if sel := decodeView(t, rec).Selection; sel.Count != 2 || !sel.AllSelected {
		t.Errorf("after toggle page: %+v", sel)
	}

	rec = env.do(t, http.MethodDelete, sessionPath(v, "/selection"), nil)
	expectStatus(t, rec, http.StatusOK)
	if sel := decodeView(t, rec).Selection; sel.Count != 0 || sel.SomeSelected {
		t.Errorf("after clear: %+v", sel)
	}
}

func TestSessionBatchExport(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	env.do(t, http.MethodPost, sessionPath(v, "/selection/toggle"), ToggleRowRequest{Key: "ST-003"})
	expectStatus(t, env.do(t, http.MethodPost, sessionPath(v, "/batch/export"), nil), http.StatusOK)

	f, ok := env.sink.Last()
	if !ok {
		t.Fatal("no file exported")
	}
	if f.Name != "stations_selected.csv" {
		t.Errorf("filename = %q", f.Name)
	}
	if want := "station_id,city,pump_count,active\nST-003,Bergen,4,Yes"; string(f.Data) != want {
		t.Errorf("data = %q, want %q", f.Data, want)
	}
}

func TestSessionExportDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	env.do(t, http.MethodPost, sessionPath(v, "/selection/toggle"), ToggleRowRequest{Key: "ST-001"})

	rec := env.do(t, http.MethodGet, sessionPath(v, "/export?scope=selected"), nil)
	expectStatus(t, rec, http.StatusOK)
	if want := "station_id,city,pump_count,active\nST-001,Oslo,8,Yes"; rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}

	rec = env.do(t, http.MethodGet, sessionPath(v, "/export?scope=page"), nil)
	expectStatus(t, rec, http.StatusOK)
	if lines := strings.Split(rec.Body.String(), "\n"); len(lines) != 3 {
		t.Errorf("page export has %d lines, want 3", len(lines))
	}
}

func TestServerSideSession(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "sales")

	rec := env.do(t, http.MethodGet, sessionPath(v, "/view?wait=1"), nil)
	expectStatus(t, rec, http.StatusOK)
	got := decodeView(t, rec)
	if !got.ServerSide || got.Loading {
		t.Fatalf("serverSide=%v loading=%v", got.ServerSide, got.Loading)
	}
	if got.Total != 5 || !slices.Equal(rowKeys(got), []string{"tx-1", "tx-2"}) {
		t.Errorf("first page = %v of %d", rowKeys(got), got.Total)
	}

	expectStatus(t, env.do(t, http.MethodPost, sessionPath(v, "/page/next"), nil), http.StatusOK)

	rec = env.do(t, http.MethodGet, sessionPath(v, "/view?wait=1"), nil)
	expectStatus(t, rec, http.StatusOK)
	if keys := rowKeys(decodeView(t, rec)); !slices.Equal(keys, []string{"tx-3", "tx-4"}) {
		t.Errorf("second page = %v", keys)
	}
}

func TestSessionHTML(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	rec := env.do(t, http.MethodGet, "/session/"+v.SessionID, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `data-session="`+v.SessionID+`"`) {
		t.Error("session page should carry the session id")
	}

	rec = env.do(t, http.MethodPost, sessionPath(v, "/sort"), SortRequest{Column: "city"}, "HX-Request", "true")
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if !strings.HasPrefix(body, `<div id="grid"`) {
		t.Errorf("htmx response should be the grid partial")
	}
	if !strings.Contains(body, `hx-post="/api/sessions/`+v.SessionID+`/selection/toggle"`) {
		t.Error("rows should offer selection toggles")
	}
}

func TestListSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	v := openSession(t, env, "stations")

	rec := env.do(t, http.MethodGet, "/api/sessions", nil)
	expectStatus(t, rec, http.StatusOK)

	var sessions []struct {
		ID    string `json:"id"`
		Table string `json:"table"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != v.SessionID || sessions[0].Table != "stations" {
		t.Errorf("sessions = %+v", sessions)
	}
}
