// Package sheets defines the spreadsheet mirror of the expenses table and
// the row layout shared by its adapters.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"conti/internal/core"
)

// ExpenseMirror keeps a copy of the expenses table in a spreadsheet.
type ExpenseMirror interface {
	// Append adds one row and returns a reference to it (A1 notation).
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	// DeleteByID removes every row whose first cell is id and reports
	// whether any was found.
	DeleteByID(ctx context.Context, id int64) (bool, error)
	// Rebuild replaces the whole sheet with the header and expenses.
	Rebuild(ctx context.Context, expenses []core.Expense) error
	// EnsureHeader writes the header row when the sheet is empty.
	EnsureHeader(ctx context.Context) error
}

// Header is the first row of the mirror sheet.
func Header() []any {
	return []any{"ID", "Data", "Persona", "Categoria", "Descrizione", "Importo"}
}

// Row lays out e as [id, date, person, category, description, amount].
func Row(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		string(e.Person),
		string(e.Category),
		e.Description,
		e.Amount.Euros(),
	}
}

// RowID reads the expense id from the first cell of a row. Header and
// blank rows report false.
func RowID(row []any) (int64, bool) {
	if len(row) == 0 {
		return 0, false
	}
	s := strings.TrimSpace(fmt.Sprint(row[0]))
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
