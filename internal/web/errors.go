package web

// errors.go provides unified error response handling for the web layer.
//
// Handlers call fail(w, r, err). The status is derived from the error type,
// the technical error is logged with the request ID, and the client gets the
// mapped user message from core.MapError.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/registers/internal/auth"
	"github.com/JonMunkholm/registers/internal/core"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// fail responds with the status that matches err.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError logs the technical error server-side and writes the
// user-friendly JSON message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	respondErrorJSON(w, s.logError(r, err, statusCode), statusCode)
}

// logError logs the technical error with the request ID and returns the
// mapped user message.
func (s *Server) logError(r *http.Request, err error, statusCode int) core.UserMessage {
	userMsg := core.MapError(err)

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
	return userMsg
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSONStatus(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var (
		ve  *core.ValidationError
		pe  *core.ParseError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &pe), errors.Is(err, core.ErrEmptyImport):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrUnknownCollection):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrSessionRequired), errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
