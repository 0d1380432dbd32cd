package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

func setupMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newRepository(db, postgresDialect), mock
}

var expenseRowColumns = []string{"id", "amount_cents", "description", "category", "person", "date", "created_at"}

func TestPostgresListUsesNumberedPlaceholders(t *testing.T) {
	repo, mock := setupMockRepository(t)
	created := time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, amount_cents, description, category, person, date, created_at FROM expenses"+
		" WHERE person = $1 AND category = $2 AND date >= $3 AND date < $4"+
		" ORDER BY date DESC, created_at DESC, id DESC LIMIT $5").
		WithArgs("ambra", "spesa", "2024-03-01", "2024-04-01", int64(20)).
		WillReturnRows(sqlmock.NewRows(expenseRowColumns).
			AddRow(7, 2350, "Esselunga", "spesa", "ambra", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), created))

	got, err := repo.List(context.Background(), core.ExpenseFilter{
		Person:   core.PersonAmbra,
		Category: core.CategoryGroceries,
		Month:    "2024-03",
		Limit:    20,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, int64(2350), got[0].Amount.Cents)
	assert.Equal(t, "2024-03-05", got[0].Date.String())
	assert.True(t, got[0].CreatedAt.Equal(created))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddBindsTimestamp(t *testing.T) {
	repo, mock := setupMockRepository(t)
	now := time.Date(2024, 3, 5, 8, 30, 0, 123456000, time.UTC)
	repo.now = func() time.Time { return now }

	mock.ExpectQuery("INSERT INTO expenses (amount_cents, description, category, person, date, created_at) " +
		"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id").
		WithArgs(int64(1000), "Benzina", "trasporti", "mino", "2024-03-05", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	e, err := repo.Add(context.Background(), core.Expense{
		Amount:      core.Money{Cents: 1000},
		Description: "Benzina",
		Category:    core.CategoryTransport,
		Person:      core.PersonMino,
		Date:        core.NewDate(2024, 3, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), e.ID)
	assert.Equal(t, now, e.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteNotFound(t *testing.T) {
	repo, mock := setupMockRepository(t)

	mock.ExpectQuery("DELETE FROM expenses WHERE id = $1 RETURNING id, amount_cents, description, category, person, date, created_at").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(expenseRowColumns))

	_, err := repo.Delete(context.Background(), 99)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDriverErrorIsUnavailable(t *testing.T) {
	repo, mock := setupMockRepository(t)

	mock.ExpectQuery("SELECT CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT) FROM expenses WHERE date >= $1 AND date < $2").
		WithArgs("2024-12-01", "2025-01-01").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.SumTotal(context.Background(), "2024-12")
	assert.True(t, errors.Is(err, core.ErrStoreUnavailable), "got %v", err)
	assert.True(t, errors.Is(err, sql.ErrConnDone), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMonthlyTotals(t *testing.T) {
	repo, mock := setupMockRepository(t)

	mock.ExpectQuery("SELECT to_char(date, 'YYYY-MM') AS month, CAST(SUM(amount_cents) AS BIGINT) AS total FROM expenses" +
		" GROUP BY month ORDER BY month DESC LIMIT $1").
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"month", "total"}).
			AddRow("2024-03", 10000).
			AddRow("2024-02", 999))

	got, err := repo.MonthlyTotals(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthTotal{
		{Month: "2024-03", Total: core.Money{Cents: 10000}},
		{Month: "2024-02", Total: core.Money{Cents: 999}},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", postgresDialect.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ? AND b = ?", sqliteDialect.rebind("a = ? AND b = ?"))
}
