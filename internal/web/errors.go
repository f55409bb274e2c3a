package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical detail and request id, then
// returned as an ErrorResponse built from core.MapError. Status codes come
// from statusFor, which checks the sentinel errors.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/ingest"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
// Errors lists the field problems of an invalid invoice configuration.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Action  string                 `json:"action,omitempty"`
	Code    string                 `json:"code"`
	Errors  []core.ValidationError `json:"errors,omitempty"`
}

// errNoFile maps to FILE004.
var errNoFile = errors.New("no file provided")

// badRequestError marks malformed request input.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return "invalid request: " + e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error { return badRequestError{err: err} }

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var bad badRequestError

	switch {
	case errors.Is(err, core.ErrRecordNotFound), errors.Is(err, core.ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDuplicateRecord):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyUploads), errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ingest.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrInvalidDataset),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, core.ErrMalformedBackup),
		errors.Is(err, core.ErrRestoreNotConfirmed),
		errors.Is(err, errNoFile),
		errors.As(err, &bad):
		return http.StatusBadRequest
	}

	// Parser and transport errors are only recognisable by message.
	switch core.MapError(err).Code {
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "FILE002", "FILE003", "FILE004":
		return http.StatusBadRequest
	case "UPL003":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status statusFor picks.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError logs the technical error server-side and writes a
// user-friendly JSON body.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
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

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var cfgErr *core.ConfigError
	if errors.As(err, &cfgErr) {
		resp.Errors = cfgErr.Result.Errors
	}
	writeJSON(w, statusCode, resp)
}
