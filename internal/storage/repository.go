// Package storage implements the expense store on a SQL database.
//
// The same queries serve SQLite (modernc.org/sqlite) and PostgreSQL
// (github.com/lib/pq); see dialect.go for the differences. The schema is
// owned by the embedded migrations and applied at construction time.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conti/internal/core"
)

const expenseColumns = "id, amount_cents, description, category, person, date, created_at"

// Repository is a ports.Store backed by database/sql.
type Repository struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newRepository(db *sql.DB, d dialect) *Repository {
	return &Repository{db: db, dialect: d, now: time.Now}
}

// Dialect names the SQL engine behind the repository.
func (r *Repository) Dialect() string {
	return r.dialect.name
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add inserts e and returns the stored record.
func (r *Repository) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	createdAt := r.now().UTC().Truncate(r.dialect.precision)
	q := r.dialect.rebind(`INSERT INTO expenses (amount_cents, description, category, person, date, created_at)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		e.Amount.Cents,
		e.Description,
		string(e.Category),
		string(e.Person),
		e.Date.String(),
		r.dialect.timeValue(createdAt),
	).Scan(&id)
	if err != nil {
		return core.Expense{}, unavailable("insert expense", err)
	}

	e.ID = id
	e.CreatedAt = createdAt
	slog.DebugContext(ctx, "Expense stored",
		"id", id,
		"amount_cents", e.Amount.Cents,
		"person", e.Person,
		"category", e.Category,
		"date", e.Date.String())
	return e, nil
}

// List returns the expenses matching f, newest first.
func (r *Repository) List(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	var w whereBuilder
	if err := w.filter(f); err != nil {
		return nil, err
	}
	limit, args := limitClause(f.Limit, w.args)
	q := "SELECT " + expenseColumns + " FROM expenses" + w.String() +
		" ORDER BY date DESC, created_at DESC, id DESC" + limit

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return nil, unavailable("list expenses", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list expenses", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	q := r.dialect.rebind("SELECT " + expenseColumns + " FROM expenses WHERE id = ?")
	e, err := scanExpense(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// Delete removes the expense with the given id and returns it.
func (r *Repository) Delete(ctx context.Context, id int64) (core.Expense, error) {
	q := r.dialect.rebind("DELETE FROM expenses WHERE id = ? RETURNING " + expenseColumns)
	e, err := scanExpense(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense %d: %w", id, err)
	}
	slog.DebugContext(ctx, "Expense deleted", "id", id)
	return e, nil
}

// SumTotal returns the sum of the month, zero when it has no expenses.
func (r *Repository) SumTotal(ctx context.Context, month core.MonthKey) (core.Money, error) {
	var w whereBuilder
	if err := w.month(month); err != nil {
		return core.Money{}, err
	}
	q := "SELECT CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT) FROM expenses" + w.String()

	var cents int64
	if err := r.db.QueryRowContext(ctx, r.dialect.rebind(q), w.args...).Scan(&cents); err != nil {
		return core.Money{}, unavailable("sum total", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) SumByPerson(ctx context.Context, month core.MonthKey) ([]core.PersonTotal, error) {
	var w whereBuilder
	if err := w.month(month); err != nil {
		return nil, err
	}
	q := "SELECT person, CAST(SUM(amount_cents) AS BIGINT) FROM expenses" + w.String() +
		" GROUP BY person ORDER BY person"

	var out []core.PersonTotal
	err := r.queryPairs(ctx, "sum by person", q, w.args, func(key string, cents int64) {
		out = append(out, core.PersonTotal{Person: core.Person(key), Total: core.Money{Cents: cents}})
	})
	return out, err
}

// SumByCategory returns one row per stored category value, largest first.
func (r *Repository) SumByCategory(ctx context.Context, month core.MonthKey) ([]core.CategoryTotal, error) {
	var w whereBuilder
	if err := w.month(month); err != nil {
		return nil, err
	}
	q := "SELECT category, CAST(SUM(amount_cents) AS BIGINT) AS total FROM expenses" + w.String() +
		" GROUP BY category ORDER BY total DESC"

	var out []core.CategoryTotal
	err := r.queryPairs(ctx, "sum by category", q, w.args, func(key string, cents int64) {
		out = append(out, core.CategoryTotal{Category: core.Category(key), Total: core.Money{Cents: cents}})
	})
	return out, err
}

// MonthlyTotals returns the all-time totals per month, newest first.
func (r *Repository) MonthlyTotals(ctx context.Context, limit int) ([]core.MonthTotal, error) {
	lim, args := limitClause(limit, nil)
	q := "SELECT " + r.dialect.monthExpr + " AS month, CAST(SUM(amount_cents) AS BIGINT) AS total FROM expenses" +
		" GROUP BY month ORDER BY month DESC" + lim

	var out []core.MonthTotal
	err := r.queryPairs(ctx, "monthly totals", q, args, func(key string, cents int64) {
		out = append(out, core.MonthTotal{Month: core.MonthKey(key), Total: core.Money{Cents: cents}})
	})
	return out, err
}

// queryPairs runs a two column (text, sum) aggregate.
func (r *Repository) queryPairs(ctx context.Context, op, q string, args []any, fn func(string, int64)) error {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return unavailable(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var cents int64
		if err := rows.Scan(&key, &cents); err != nil {
			return unavailable(op, err)
		}
		fn(key, cents)
	}
	if err := rows.Err(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                   core.Expense
		category, person    string
		rawDate, rawCreated any
	)
	err := s.Scan(&e.ID, &e.Amount.Cents, &e.Description, &category, &person, &rawDate, &rawCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, unavailable("scan expense", err)
	}

	e.Category = core.NormalizeCategory(category)
	e.Person = core.Person(strings.ToLower(person))
	if e.Date, err = parseStoredDate(rawDate); err != nil {
		return core.Expense{}, unavailable("scan expense date", err)
	}
	if e.CreatedAt, err = parseStoredTime(rawCreated); err != nil {
		return core.Expense{}, unavailable("scan expense created_at", err)
	}
	return e, nil
}

func parseStoredDate(v any) (core.Date, error) {
	switch t := v.(type) {
	case time.Time:
		return core.DateOf(t), nil
	case string:
		return core.ParseDate(t)
	case []byte:
		return core.ParseDate(string(t))
	}
	return core.Date{}, fmt.Errorf("unexpected date type %T", v)
}

func parseStoredTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimeText(t)
	case []byte:
		return parseTimeText(string(t))
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
}

func parseTimeText(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, op, err)
}
