package web

// errors.go turns handler errors into responses.
//
// Every error is logged with its technical detail and the request id, then
// mapped through core.MapError to a coded user message. The message is
// rendered for the kind of client that asked: an htmx fragment, JSON for
// API callers, or plain text.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/grid/sink"
	"github.com/JonMunkholm/fuelgrid/internal/web/templates"
)

// ErrorResponse is the JSON body of API errors. Code is machine readable;
// Message and Action are meant for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// requestError is malformed client input. Its message is shown to the
// user as is.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return "invalid request: " + e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re),
		errors.Is(err, grid.ErrUnknownColumn),
		errors.Is(err, grid.ErrInvalidOperator),
		errors.Is(err, grid.ErrUnknownBatchAction),
		errors.Is(err, grid.ErrUnknownRow),
		errors.Is(err, sink.ErrInvalidFilename):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownTable),
		errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrSelectionDisabled),
		errors.Is(err, grid.ErrExportDisabled),
		errors.Is(err, grid.ErrLoading),
		errors.Is(err, grid.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManySessions),
		errors.Is(err, core.ErrTooManyFetches):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the user-facing message with the status
// statusFor picks.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)
	var re *requestError
	if errors.As(err, &re) {
		userMsg.Message = re.msg
	}

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode)
	default:
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML writes a plain error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an htmx error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an htmx request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers a JSON response. API routes
// default to JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
