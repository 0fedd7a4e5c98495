package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"crediflow/internal/core"
	"crediflow/internal/export"
	applog "crediflow/internal/log"
	"crediflow/internal/storage"
)

// errorStatus maps a service error to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errInvalidInput), errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorType names the category of err for structured logs.
func errorType(err error) string {
	switch {
	case errors.Is(err, errInvalidInput), errors.Is(err, export.ErrUnsupportedFormat), core.IsValidation(err):
		return applog.ErrorTypeValidation
	case errors.Is(err, storage.ErrNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return applog.ErrorTypeConflict
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	default:
		return applog.ErrorTypeInternal
	}
}

// writeError answers with the mapped status. Server errors are logged and
// their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, component, operation string) {
	status := errorStatus(err)
	fields := applog.NewFields().WithErrorType(errorType(err))
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, component, operation, fields)
		InternalServerError("internal error").Write(w)
		return
	}
	applog.FromContext(r.Context()).WithComponent(component).DebugContext(r.Context(), "Request rejected",
		fields.WithError(err).WithOperation(operation).ToSlice()...)
	ErrorResponse(status, err.Error()).Write(w)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
