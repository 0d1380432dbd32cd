package storage

import (
	"strconv"
	"strings"
	"time"
)

// createdAtLayout is fixed width so that text ordering equals time ordering.
// It matches the column default strftime('%Y-%m-%dT%H:%M:%fZ').
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// dialect captures the few SQL differences between the supported engines.
type dialect struct {
	name string
	// monthExpr yields the "YYYY-MM" key of the date column.
	monthExpr string
	// numbered placeholders ($1, $2) instead of '?'.
	numbered bool
	// precision of the stored created_at.
	precision time.Duration
	// timeValue converts created_at into the bound representation.
	timeValue func(time.Time) any
}

var sqliteDialect = dialect{
	name:      "sqlite",
	monthExpr: "substr(date, 1, 7)",
	precision: time.Millisecond,
	timeValue: func(t time.Time) any { return t.UTC().Format(createdAtLayout) },
}

var postgresDialect = dialect{
	name:      "postgres",
	monthExpr: "to_char(date, 'YYYY-MM')",
	numbered:  true,
	precision: time.Microsecond,
	timeValue: func(t time.Time) any { return t.UTC() },
}

// rebind rewrites '?' markers into the dialect's placeholder syntax.
func (d dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
