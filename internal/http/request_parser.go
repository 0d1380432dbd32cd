// Package http serves the JSON API.
//
// This file implements utilities for parsing and validating request data:
// JSON or form bodies, list filters and path ids.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"conti/internal/core"
)

// maxBodyBytes bounds JSON and form bodies.
const maxBodyBytes = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Raw is Get without trimming, for free text stored as given.
func (p *RequestBodyParser) Raw(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab, newline and carriage
// return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// ParseNewExpense reads the add-expense fields from a JSON or form body.
// Missing or malformed amount and date values are validation errors.
func ParseNewExpense(p *RequestBodyParser) (core.NewExpense, error) {
	in := core.NewExpense{
		Description: p.Raw("description"),
		Category:    p.Get("category"),
		Person:      p.Get("person"),
	}

	amount := p.Get("amount")
	if amount == "" {
		return in, core.Invalid("amount", core.ErrInvalidAmount)
	}
	m, err := core.NewMoney(amount)
	if err != nil {
		return in, core.Invalid("amount", err)
	}
	in.Amount = m

	if d := p.Get("date"); d != "" {
		date, err := core.ParseDate(d)
		if err != nil {
			return in, core.Invalid("date", err)
		}
		in.Date = date
	}
	return in, nil
}

// ParseFilter builds a list filter from query parameters. An empty or
// absent limit means no limit.
func ParseFilter(q url.Values) (core.ExpenseFilter, error) {
	limit := 0
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.ExpenseFilter{}, core.Invalid("limit", core.ErrInvalidLimit)
		}
		limit = n
	}
	return core.ParseExpenseFilter(q.Get("person"), q.Get("category"), q.Get("month"), limit)
}

// ParseMonth reads an optional month query value.
func ParseMonth(q url.Values) (core.MonthKey, error) {
	m, err := core.ParseMonthKey(q.Get("month"))
	if err != nil {
		return "", core.Invalid("month", err)
	}
	return m, nil
}

// ParseID reads a positive expense id from a path segment.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid("id", fmt.Errorf("invalid expense id %q", s))
	}
	return id, nil
}
