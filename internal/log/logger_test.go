package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"conti/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: "test", Output: &buf})

	l.Debug("hidden")
	l.WithComponent(ComponentStorage).Info("stored", FieldExpenseID, 3)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered): %s", len(lines), buf.String())
	}
	if lines[0][FieldComponent] != ComponentStorage || lines[0][FieldExpenseID] != float64(3) {
		t.Fatalf("unexpected record %v", lines[0])
	}
}

func TestStructuredLoggerExpenseFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))

	e := core.Expense{
		ID:          9,
		Amount:      core.Money{Cents: 1250},
		Description: "private note",
		Category:    core.CategoryHealth,
		Person:      core.PersonAmbra,
		Date:        core.NewDate(2024, 2, 29),
	}
	sl.LogExpenseCreated(context.Background(), e)
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpCreate, nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	rec := lines[0]
	if rec[FieldPerson] != "ambra" || rec[FieldCategory] != "salute" || rec[FieldAmountCents] != float64(1250) || rec[FieldDate] != "2024-02-29" {
		t.Fatalf("unexpected expense record %v", rec)
	}
	if strings.Contains(buf.String(), "private note") {
		t.Fatal("description must not be logged")
	}
	if lines[1][FieldError] != "disk full" || lines[1]["level"] != "ERROR" {
		t.Fatalf("unexpected error record %v", lines[1])
	}
}

func TestLogHTTPEndLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{503, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
		r := httptest.NewRequest(http.MethodGet, "/api/stats?month=2024-01", nil)

		sl.LogHTTPEnd(context.Background(), r, "req_1", tt.status, 12, "10.0.0.1")

		rec := decodeLines(t, &buf)[0]
		if rec["level"] != tt.level || rec[FieldStatusCode] != float64(tt.status) || rec[FieldRequestID] != "req_1" {
			t.Errorf("status %d: record %v", tt.status, rec)
		}
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	h := Middleware(base, func(context.Context) string { return "req_abc" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rec := decodeLines(t, &buf)[0]
	if rec[FieldRequestID] != "req_abc" {
		t.Fatalf("request id missing: %v", rec)
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to the default logger")
	}
}
