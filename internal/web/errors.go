package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status code is chosen from the error kind
//  4. Error is mapped via core.MapError to get user-friendly message
//  5. Technical error is logged with the request ID for correlation
//  6. User message is rendered as JSON for /api routes, HTML otherwise

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/doorsync/internal/core"
	"github.com/JonMunkholm/doorsync/internal/logging"
	"github.com/JonMunkholm/doorsync/internal/source"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

var (
	// errBadUpload marks malformed multipart requests.
	errBadUpload = errors.New("bad upload")

	// errNoSource is returned by /api/sync on upload-only servers.
	errNoSource = errors.New("no table source configured")
)

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, source.ErrFileTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadUpload):
		return http.StatusBadRequest
	case errors.Is(err, errNoSource):
		return http.StatusNotFound
	case errors.Is(err, source.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error server-side and returns a
// user-friendly response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err.Error(), "code", userMsg.Code)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err.Error(), "code", userMsg.Code)
	}

	// Input errors name the offending row, so they are safe to echo.
	detail := ""
	if status == http.StatusUnprocessableEntity {
		detail = err.Error()
	}

	if wantsJSON(r) {
		writeJSON(w, r, status, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
			Detail:  detail,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorPage(userMsg, detail).Render(r.Context(), w); err != nil {
		logger.Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return false
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
