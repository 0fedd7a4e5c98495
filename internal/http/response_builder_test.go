package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		JSON(map[string]string{"id": "abc"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := w.Body.String(); got != `{"id":"abc"}` {
		t.Errorf("Body = %q", got)
	}
}

func TestResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Header("X-Custom", "value").
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("X-Custom header = %q, want %q", w.Header().Get("X-Custom"), "value")
	}
}

func TestResponseBuilder_File(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		File("relatorio_crediflow_2024.csv", "text/csv; charset=utf-8", []byte("a,b\n")).
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="relatorio_crediflow_2024.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "4" {
		t.Errorf("Content-Length = %q", got)
	}
	if w.Body.String() != "a,b\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().JSON(make(chan int)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ResponseBuilder
		wantCode int
	}{
		{"BadRequest", BadRequestError("bad"), http.StatusBadRequest},
		{"Unprocessable", UnprocessableEntityError("invalid"), http.StatusUnprocessableEntity},
		{"NotFound", NotFoundError("missing"), http.StatusNotFound},
		{"Conflict", ConflictError("dup"), http.StatusConflict},
		{"Internal", InternalServerError("oops"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.HasPrefix(w.Body.String(), `{"error":`) {
				t.Errorf("Body = %q, want JSON error", w.Body.String())
			}
		})
	}
}

func TestErrorResponse_EscapesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, `say "hi"`).Write(w)

	if got := w.Body.String(); got != `{"error":"say \"hi\""}` {
		t.Errorf("Body = %q", got)
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent().Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("NoContent wrote %d with %d bytes", w.Code, w.Body.Len())
	}
}
