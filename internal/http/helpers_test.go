package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"crediflow/internal/core"
	"crediflow/internal/export"
	applog "crediflow/internal/log"
	"crediflow/internal/storage"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"bad input", fmt.Errorf("%w: month", errInvalidInput), http.StatusBadRequest, applog.ErrorTypeValidation},
		{"bad format", fmt.Errorf("render: %w", export.ErrUnsupportedFormat), http.StatusBadRequest, applog.ErrorTypeValidation},
		{"domain rule", fmt.Errorf("create purchase: %w", core.ErrInvalidInstallments), http.StatusUnprocessableEntity, applog.ErrorTypeValidation},
		{"missing", fmt.Errorf("card x: %w", storage.ErrNotFound), http.StatusNotFound, applog.ErrorTypeNotFound},
		{"duplicate", fmt.Errorf("card x: %w", storage.ErrDuplicate), http.StatusConflict, applog.ErrorTypeConflict},
		{"timeout", fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusInternalServerError, applog.ErrorTypeTimeout},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, applog.ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.wantStatus {
				t.Errorf("errorStatus() = %d, want %d", got, tt.wantStatus)
			}
			if got := errorType(tt.err); got != tt.wantType {
				t.Errorf("errorType() = %q, want %q", got, tt.wantType)
			}
		})
	}
}
