package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"conti/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(func(*http.Request) string { return "192.0.2.1" }, log.New(log.Config{Output: &buf}))

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if !strings.HasPrefix(seen, "req_") || len(seen) != len("req_")+16 {
		t.Fatalf("request id = %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header = %q, want %q", rec.Header().Get(HeaderRequestID), seen)
	}
	if m.TotalRequests() != 1 {
		t.Fatalf("TotalRequests = %d", m.TotalRequests())
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request started") || !strings.Contains(out, "status_code=418") || !strings.Contains(out, "client_ip=192.0.2.1") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}

func TestMiddlewareReusesIncomingID(t *testing.T) {
	m := NewMiddleware(nil, log.New(log.Config{Output: &bytes.Buffer{}}))

	tests := []struct {
		header string
		reused bool
	}{
		{"edge-42.a", true},
		{"", false},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		var seen string
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set(HeaderRequestID, tt.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)

		if (seen == tt.header) != tt.reused {
			t.Errorf("header %q: got id %q, reused=%v", tt.header, seen, tt.reused)
		}
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
