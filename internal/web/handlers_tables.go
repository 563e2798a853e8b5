package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/logging"
	"github.com/JonMunkholm/fuelgrid/internal/web/templates"
)

// handleDashboard renders the table overview grouped by dashboard section.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats := make(map[string]core.TableStats)
	for _, st := range s.service.TableStats(ctx) {
		stats[st.Info.Key] = st
	}

	var groups []templates.TableGroup
	for _, groupName := range core.Groups() {
		tables := core.ByGroup(groupName)
		cards := make([]templates.TableCardData, len(tables))
		for i, def := range tables {
			cards[i] = templates.TableCardData{
				Info:       def.Info,
				RowCount:   stats[def.Info.Key].RowCount,
				ServerSide: def.ServerSide,
			}
		}
		groups = append(groups, templates.TableGroup{Name: groupName, Tables: cards})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(groups).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render dashboard", "error", err)
	}
}

// handleListTables returns all tables organized by group.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ListTablesByGroup())
}

// handleTableStats returns row counts for every table.
func (s *Server) handleTableStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.TableStats(r.Context()))
}

// snapshot computes the stateless view named by the URL.
func (s *Server) snapshot(r *http.Request) (*core.SnapshotResult, error) {
	def, err := core.Lookup(chi.URLParam(r, "tableKey"))
	if err != nil {
		return nil, err
	}
	q, err := parseQuery(r, def)
	if err != nil {
		return nil, err
	}
	return s.service.Snapshot(r.Context(), def.Info.Key, q)
}

// handleTableView renders the grid page for a table from query string
// state. htmx requests receive only the grid partial.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	res, err := s.snapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	v := res.View
	data := snapshotView(res).HTML(linkActions{
		table: res.Definition.Info.Key,
		query: grid.Query{Sorting: v.Sorting, Filters: v.Filters, Pagination: v.Pagination},
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component := templates.GridPage(data)
	if isHTMX(r) {
		component = templates.GridTable(data)
	}
	if err := component.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render grid", "table", res.Definition.Info.Key, "error", err)
	}
}

// handleSnapshot returns the stateless view as JSON.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := s.snapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, snapshotView(res).JSON())
}

// handleExportData downloads every row matching the query string filters
// as CSV, in the requested order. Paging parameters are ignored.
func (s *Server) handleExportData(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(chi.URLParam(r, "tableKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	q, err := parseQuery(r, def)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sink := newDownloadSink(w)
	err = s.service.ExportSnapshot(r.Context(), def.Info.Key, q, sink)
	s.finishDownload(w, r, sink, err)
}

// finishDownload reports err when nothing was sent yet. Once the file is
// on the wire only logging is possible.
func (s *Server) finishDownload(w http.ResponseWriter, r *http.Request, sink *downloadSink, err error) {
	switch {
	case err != nil && !sink.emitted:
		s.respondError(w, r, err)
	case err != nil:
		logging.FromContext(r.Context()).Warn("export interrupted", "path", r.URL.Path, "error", err)
	case !sink.emitted:
		// No exportable columns.
		w.WriteHeader(http.StatusNoContent)
	}
}
