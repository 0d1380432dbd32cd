package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the wire and storage format of an expense date.
	DateLayout = "2006-01-02"
	// MonthLayout is the format of a MonthKey.
	MonthLayout = "2006-01"
)

// Date is a calendar day. The time part is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD". A longer ISO timestamp is accepted and
// truncated to its date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOf returns the calendar day of t as observed in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current day in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Month returns the month key containing d.
func (d Date) Month() MonthKey {
	return MonthKey(d.Format(MonthLayout))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// ParseMonthKey validates s. The empty string yields the empty key.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKey(t.Format(MonthLayout)), nil
}

// CurrentMonth returns the month key of now in loc.
func CurrentMonth(now time.Time, loc *time.Location) MonthKey {
	return Today(now, loc).Month()
}

func (m MonthKey) IsEmpty() bool { return m == "" }

func (m MonthKey) String() string { return string(m) }

// Range returns the first day of the month and the first day of the next
// month, suitable for a half-open date filter.
func (m MonthKey) Range() (Date, Date, error) {
	t, err := time.Parse(MonthLayout, string(m))
	if err != nil {
		return Date{}, Date{}, fmt.Errorf("%w: %q", ErrInvalidMonth, string(m))
	}
	from := Date{Time: t}
	return from, Date{Time: t.AddDate(0, 1, 0)}, nil
}

// Contains reports whether d falls inside the month.
func (m MonthKey) Contains(d Date) bool {
	return d.Month() == m
}
