package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"conti/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"id": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":1}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
	}{
		{"bad request", BadRequestError("nope"), http.StatusBadRequest},
		{"not found", NotFoundError("nope"), http.StatusNotFound},
		{"internal", InternalServerError("nope"), http.StatusInternalServerError},
		{"unavailable", ServiceUnavailableError("nope"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if got := strings.TrimSpace(w.Body.String()); got != `{"error":"nope"}` {
				t.Errorf("body = %q", got)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{"validation", core.Invalid("person", core.ErrInvalidPerson), http.StatusBadRequest, "person: invalid person"},
		{"wrapped validation", fmt.Errorf("add: %w", core.Invalid("amount", core.ErrInvalidAmount)), http.StatusBadRequest, "amount"},
		{"not found", fmt.Errorf("delete: %w", core.ErrNotFound), http.StatusNotFound, "Expense not found"},
		{"store", fmt.Errorf("list: %w: dial tcp 10.0.0.5:5432", core.ErrStoreUnavailable), http.StatusInternalServerError, "Failed to fetch expenses"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Failed to fetch expenses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			w := httptest.NewRecorder()
			FromError(r, tt.err, "Failed to fetch expenses").Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			body := w.Body.String()
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body %q does not contain %q", body, tt.contains)
			}
			if strings.Contains(body, "10.0.0.5") {
				t.Errorf("internal details leaked: %s", body)
			}
		})
	}
}
