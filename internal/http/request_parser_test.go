package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"conti/internal/core"
)

func parserFor(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(httptest.NewRecorder(), r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRequestBodyParser_JSONAndForm(t *testing.T) {
	j := parserFor(t, "application/json", `{"amount": 23.50, "description": " Esselunga ", "person": "ambra", "paid": true}`)
	if !j.IsJSON() {
		t.Fatal("expected JSON")
	}
	if got := j.Get("amount"); got != "23.50" {
		t.Errorf("amount = %q, want the literal number text", got)
	}
	if got := j.Get("description"); got != "Esselunga" {
		t.Errorf("description = %q", got)
	}
	if got := j.Raw("description"); got != " Esselunga " {
		t.Errorf("raw description = %q, want it untrimmed", got)
	}
	if got := j.Get("paid"); got != "true" {
		t.Errorf("paid = %q", got)
	}
	if got := j.Get("missing"); got != "" {
		t.Errorf("missing = %q", got)
	}

	f := parserFor(t, "application/x-www-form-urlencoded", "amount=10%2C00&description=Benzina&person=mino")
	if f.IsJSON() {
		t.Fatal("expected form")
	}
	if got := f.Get("amount"); got != "10,00" {
		t.Errorf("amount = %q", got)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`{"amount":`))
	r.Header.Set("Content-Type", "application/json")
	p := NewRequestBodyParser(httptest.NewRecorder(), r)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error")
	}
	// repeated calls return the same result
	if err := p.Parse(); err == nil {
		t.Fatal("expected error on second call")
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := `{"description":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), r)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  caf\x00fè\x07\tok  "); got != "  caffè\tok  " {
		t.Fatalf("sanitizeInput = %q", got)
	}
}

func TestParseNewExpense(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    core.NewExpense
		wantErr error
	}{
		{
			name: "full",
			body: `{"amount":"12,30","description":"Farmacia","category":"salute","person":"mino","date":"2024-03-05"}`,
			want: core.NewExpense{Amount: core.Money{Cents: 1230}, Description: "Farmacia", Category: "salute", Person: "mino", Date: core.NewDate(2024, 3, 5)},
		},
		{
			name: "optional fields omitted",
			body: `{"amount":5,"description":"Caffè","person":"ambra"}`,
			want: core.NewExpense{Amount: core.Money{Cents: 500}, Description: "Caffè", Person: "ambra"},
		},
		{name: "missing amount", body: `{"description":"x","person":"mino"}`, wantErr: core.ErrInvalidAmount},
		{name: "negative amount", body: `{"amount":-3,"description":"x","person":"mino"}`, wantErr: core.ErrInvalidAmount},
		{name: "bad date", body: `{"amount":3,"description":"x","person":"mino","date":"05/03/2024"}`, wantErr: core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNewExpense(parserFor(t, "application/json", tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, core.ErrValidation) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Amount != tt.want.Amount || got.Description != tt.want.Description ||
				got.Category != tt.want.Category || got.Person != tt.want.Person ||
				got.Date.String() != tt.want.Date.String() {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{"person": {"ambra"}, "category": {"spesa"}, "month": {"2024-03"}, "limit": {"5"}})
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if f.Person != core.PersonAmbra || f.Category != core.CategoryGroceries || f.Month != "2024-03" || f.Limit != 5 {
		t.Fatalf("filter = %+v", f)
	}

	bad := []url.Values{
		{"person": {"carlo"}},
		{"category": {"viaggi"}},
		{"month": {"2024-13"}},
		{"limit": {"ten"}},
		{"limit": {"-1"}},
	}
	for _, q := range bad {
		if _, err := ParseFilter(q); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ParseFilter(%v) err = %v, want validation error", q, err)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("42"); err != nil || id != 42 {
		t.Fatalf("ParseID(42) = %d, %v", id, err)
	}
	for _, s := range []string{"", "0", "-1", "abc", "1.5"} {
		if _, err := ParseID(s); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ParseID(%q) err = %v", s, err)
		}
	}
}
