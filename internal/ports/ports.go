// Package ports declares the boundaries between the domain services and
// their adapters.
package ports

import (
	"context"

	"conti/internal/core"
)

type (
	// ExpenseStore persists expenses. Implementations validate nothing beyond
	// storage constraints; callers pass already normalized expenses.
	ExpenseStore interface {
		// Add inserts e and returns it with ID and CreatedAt assigned.
		Add(ctx context.Context, e core.Expense) (core.Expense, error)
		// List returns matching expenses newest first.
		List(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error)
		Get(ctx context.Context, id int64) (core.Expense, error)
		// Delete removes the expense and returns it. core.ErrNotFound when
		// no row has the id.
		Delete(ctx context.Context, id int64) (core.Expense, error)
	}

	// StatsReader runs the aggregate reads behind the stats view.
	StatsReader interface {
		SumTotal(ctx context.Context, month core.MonthKey) (core.Money, error)
		SumByPerson(ctx context.Context, month core.MonthKey) ([]core.PersonTotal, error)
		// SumByCategory groups by the stored category value, unknown ones included.
		SumByCategory(ctx context.Context, month core.MonthKey) ([]core.CategoryTotal, error)
		// MonthlyTotals returns all-time totals per month, newest first.
		MonthlyTotals(ctx context.Context, limit int) ([]core.MonthTotal, error)
	}

	// Store is a complete storage backend with an explicit lifecycle.
	Store interface {
		ExpenseStore
		StatsReader
		Ping(ctx context.Context) error
		Close() error
	}

	// TextRecognizer turns a receipt image into raw text.
	TextRecognizer interface {
		Recognize(ctx context.Context, image []byte) (string, error)
	}

	// EventPublisher announces committed changes. Delivery is best effort.
	EventPublisher interface {
		PublishExpenseCreated(ctx context.Context, e core.Expense) error
		PublishExpenseDeleted(ctx context.Context, e core.Expense) error
	}
)
