// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Station staff quote the code; support looks it up
// here.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Referenced rows: Selected rows are still referenced elsewhere
//	        Action: Remove the dependent records first
//	        Patterns: "foreign key constraint", "violates foreign key"
//
//	DB002 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB003 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB004 - Timeout: The query took too long
//	        Action: Narrow the filters or try again later
//	        Patterns: "timeout", "context deadline exceeded"
//
//	DB005 - Deadlock: Database was busy with conflicting operations
//	        Action: Please try again
//	        Patterns: "deadlock"
//
// # Grid Errors (GRD001-GRD099)
//
//	GRD001 - Unknown column: The grid has no such column
//	GRD002 - Invalid filter: The filter operator is not supported
//	GRD003 - Loading: Rows are still loading
//	GRD004 - Selection disabled: This grid does not support selection
//	GRD005 - Unknown action: The batch action is not offered here
//	GRD006 - Grid closed: The grid was closed
//	GRD007 - Session expired: The grid session was not found
//	GRD008 - Busy: Too many grids are open
//	GRD009 - Unknown row: The row is not on the current page
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export disabled: This grid does not allow export
//	EXP002 - No destination: No export destination is configured
//	EXP003 - Invalid filename: The export filename is not allowed
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Unknown table: The table is not configured
//	TBL002 - No row identity: The table has no unique key
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Cancelled: The request was cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Bad request: The request could not be understood
//	         Patterns: "invalid request"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgReferenced = UserMessage{"Selected rows are still referenced by other records", "Remove the dependent records first", "DB001"}
	msgTimeout    = UserMessage{"The query took too long", "Narrow the filters or try again later", "DB004"}
	msgRateLimit  = UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}
)

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// Database
	{"foreign key constraint", msgReferenced},
	{"violates foreign key", msgReferenced},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"context deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB005"}},

	// Grid engine and sessions
	{"grid: unknown column", UserMessage{"The grid has no such column", "Reload the page to refresh the column list", "GRD001"}},
	{"grid: invalid filter operator", UserMessage{"The filter operator is not supported", "Pick a filter from the column menu", "GRD002"}},
	{"grid: rows are loading", UserMessage{"Rows are still loading", "Wait for the grid to finish loading", "GRD003"}},
	{"grid: selection is not enabled", UserMessage{"This grid does not support selection", "Use the export button instead", "GRD004"}},
	{"grid: unknown batch action", UserMessage{"That action is not available for this grid", "Pick an action from the toolbar", "GRD005"}},
	{"grid: engine is closed", UserMessage{"The grid was closed", "Reopen the table from the dashboard", "GRD006"}},
	{"grid session not found", UserMessage{"The grid session has expired", "Reopen the table from the dashboard", "GRD007"}},
	{"too many open grid sessions", UserMessage{"Too many grids are open", "Close unused tabs and try again", "GRD008"}},
	{"grid: unknown row", UserMessage{"The row is no longer on this page", "Refresh the grid and select again", "GRD009"}},

	// Export
	{"grid: export is not enabled", UserMessage{"This grid does not allow export", "Ask an administrator to enable export", "EXP001"}},
	{"no file sink configured", UserMessage{"No export destination is configured", "Ask an administrator to set an export directory", "EXP002"}},
	{"invalid filename", UserMessage{"The export filename is not allowed", "Use letters, digits, dashes and underscores", "EXP003"}},

	// Tables
	{"unknown table", UserMessage{"This table is not configured", "Pick a table from the dashboard", "TBL001"}},
	{"no unique key", UserMessage{"Rows of this table cannot be identified", "Selection and deletion are unavailable here", "TBL002"}},

	// Throttling and requests
	{"rate limit", msgRateLimit},
	{"context canceled", UserMessage{"The request was cancelled", "Please try again", "REQ001"}},
	{"invalid request", UserMessage{"The request could not be understood", "Check the request and try again", "REQ002"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
//
// Example:
//
//	msg := MapError(fmt.Errorf("fetch fuel_sales: %w", ErrTooManyFetches))
//	// msg.Code == "RATE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a display string: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
