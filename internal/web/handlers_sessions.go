package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/logging"
	"github.com/JonMunkholm/fuelgrid/internal/web/templates"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// decodeJSON reads the request body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON body: %v", err)
	}
	return nil
}

// session resolves the {sessionID} URL parameter.
func (s *Server) session(r *http.Request) (*core.Session, error) {
	return s.service.Session(chi.URLParam(r, "sessionID"))
}

// respondSession writes the session's current view: the grid partial for
// htmx, JSON otherwise.
func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	gv := sessionView(sess)
	if !isHTMX(r) {
		writeJSON(w, gv.JSON())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := gv.HTML(sessionActions{base: "/api/sessions/" + sess.ID})
	if err := templates.GridTable(data).Render(r.Context(), w); err != nil {
		logging.ForGrid(r.Context(), sess.Table, sess.ID).Error("render grid", "error", err)
	}
}

// sessionHandler changes the state of an open session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *core.Session) error

// withSession resolves the session, runs fn and responds with the
// resulting view.
func (s *Server) withSession(fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if err := fn(w, r, sess); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondSession(w, r, sess)
	}
}

// handleOpenSession opens a stateful grid for a table.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.OpenSession(WithRequestMetadata(r.Context(), r), chi.URLParam(r, "tableKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID+"/view")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sessionView(sess).JSON())
}

// handleListSessions lists open sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Sessions())
}

// handleCloseSession unmounts a session.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CloseSession(chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionView renders the session as a full page.
func (s *Server) handleSessionView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := sessionView(sess).HTML(sessionActions{base: "/api/sessions/" + sess.ID})
	if err := templates.GridPage(data).Render(r.Context(), w); err != nil {
		logging.ForGrid(r.Context(), sess.Table, sess.ID).Error("render grid", "error", err)
	}
}

// handleSessionState returns the current view. With ?wait=1 it first waits
// for an outstanding page fetch, bounded by the fetch timeout.
func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if r.URL.Query().Get("wait") != "" {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Fetch.Timeout)
		err := sess.Wait(ctx)
		cancel()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			s.respondError(w, r, err)
			return
		}
	}
	s.respondSession(w, r, sess)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	return sess.Reload(r.Context())
}

// SortRequest toggles the sort of one column. Multi keeps the other sorted
// columns.
type SortRequest struct {
	Column string `json:"column"`
	Multi  bool   `json:"multi"`
}

func (s *Server) handleToggleSort(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	var req SortRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	return sess.Engine().ToggleSort(req.Column, req.Multi)
}

func (s *Server) handleSetSorting(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	var sorting grid.Sorting
	if err := decodeJSON(w, r, &sorting); err != nil {
		return err
	}
	return sess.Engine().SetSorting(sorting)
}

// GlobalFilterRequest sets the search text.
type GlobalFilterRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleSetGlobalFilter(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	var req GlobalFilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	return sess.Engine().SetGlobalFilter(req.Value)
}

func (s *Server) handleSetColumnFilters(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	var filters []grid.ColumnFilter
	if err := decodeJSON(w, r, &filters); err != nil {
		return err
	}
	return sess.Engine().SetColumnFilters(filters)
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	return sess.Engine().ClearFilters()
}

// PaginationRequest changes the page size, the page index or both. The size
// is applied first.
type PaginationRequest struct {
	PageIndex *int `json:"pageIndex"`
	PageSize  *int `json:"pageSize"`
}

// handleSetPagination applies size and index as one change; a new size
// returns to the first page.
func (s *Server) handleSetPagination(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	var req PaginationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	e := sess.Engine()
	p := e.State().Pagination
	if req.PageSize != nil {
		p.PageSize = *req.PageSize
	}
	if req.PageIndex != nil {
		p.PageIndex = *req.PageIndex
	}
	return e.SetPagination(p)
}

// handlePageMove steps to the first, previous, next or last page.
func (s *Server) handlePageMove(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	e := sess.Engine()
	switch move := chi.URLParam(r, "move"); move {
	case "first":
		return e.FirstPage()
	case "previous":
		return e.PreviousPage()
	case "next":
		return e.NextPage()
	case "last":
		return e.LastPage()
	default:
		return badRequest("unknown page move %q", move)
	}
}

// ToggleRowRequest names the row to select or deselect by its key.
type ToggleRowRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleToggleRow(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	var req ToggleRowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	return sess.Engine().ToggleRow(req.Key)
}

func (s *Server) handleTogglePage(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	return sess.Engine().TogglePage()
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	return sess.Engine().ClearSelection()
}

// handleBatchAction runs a batch action over the selected rows. The
// selection is cleared even when the action fails.
func (s *Server) handleBatchAction(w http.ResponseWriter, r *http.Request, sess *core.Session) error {
	action := chi.URLParam(r, "action")
	logger := logging.ForGrid(r.Context(), sess.Table, sess.ID)
	logger.Info("batch action requested", "action", action, "selected", len(sess.Engine().SelectedKeys()))
	return sess.Engine().RunBatchAction(WithRequestMetadata(r.Context(), r), action)
}

// handleSessionExport downloads the session's rows as CSV. The scope
// parameter picks filtered (default), page or selected rows.
func (s *Server) handleSessionExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	scope := grid.ParseExportScope(r.URL.Query().Get("scope"))
	sink := newDownloadSink(w)
	err = sess.Engine().ExportTo(r.Context(), scope, sink)
	s.finishDownload(w, r, sink, err)
}
