package storage

import (
	"strings"

	"conti/internal/core"
)

// whereBuilder collects conjunctive conditions with their bound values.
// Conditions are static SQL fragments; values only travel as arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) and(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// month restricts the date column to [first day, first day of next month).
func (w *whereBuilder) month(m core.MonthKey) error {
	if m.IsEmpty() {
		return nil
	}
	from, to, err := m.Range()
	if err != nil {
		return err
	}
	w.and("date >= ? AND date < ?", from.String(), to.String())
	return nil
}

func (w *whereBuilder) filter(f core.ExpenseFilter) error {
	if f.Person != "" {
		w.and("person = ?", string(f.Person))
	}
	if f.Category != "" {
		w.and("category = ?", string(f.Category))
	}
	return w.month(f.Month)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// limitClause appends a bound LIMIT when n > 0.
func limitClause(n int, args []any) (string, []any) {
	if n <= 0 {
		return "", args
	}
	return " LIMIT ?", append(args, int64(n))
}
