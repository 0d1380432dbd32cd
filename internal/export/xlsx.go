// Package export renders expenses as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"conti/internal/core"
)

const (
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExpensesSheet = "Spese"
	SummarySheet  = "Riepilogo"
)

// Built-in "#,##0.00" number format.
const amountNumFmt = 4

// Summary is the month view written to the Riepilogo sheet.
type Summary struct {
	Stats   core.Stats
	Balance core.Balance
}

var expenseHeaders = []string{"ID", "Data", "Persona", "Categoria", "Descrizione", "Importo"}

type styles struct {
	header, data, amount, summary, summaryAmount int
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border(),
	}); err != nil {
		return s, err
	}
	if s.data, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    border(),
	}); err != nil {
		return s, err
	}
	if s.amount, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		Border:    border(),
		NumFmt:    amountNumFmt,
	}); err != nil {
		return s, err
	}
	summaryFill := excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1}
	if s.summary, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      summaryFill,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border(),
	}); err != nil {
		return s, err
	}
	s.summaryAmount, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      summaryFill,
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		Border:    border(),
		NumFmt:    amountNumFmt,
	})
	return s, err
}

// Workbook builds the workbook. The Riepilogo sheet is added only when
// summary is non-nil. The caller closes the returned file.
func Workbook(expenses []core.Expense, summary *Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		f.Close()
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create styles: %w", err)
	}

	if err := writeExpenses(f, st, expenses); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s sheet: %w", ExpensesSheet, err)
	}
	if summary != nil {
		if err := writeSummary(f, st, *summary); err != nil {
			f.Close()
			return nil, fmt.Errorf("write %s sheet: %w", SummarySheet, err)
		}
	}
	return f, nil
}

// Write renders the workbook into w.
func Write(w io.Writer, expenses []core.Expense, summary *Summary) error {
	f, err := Workbook(expenses, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Filename names the download after the month filter, or today's date.
func Filename(month core.MonthKey, today core.Date) string {
	if !month.IsEmpty() {
		return fmt.Sprintf("spese_%s.xlsx", month)
	}
	return fmt.Sprintf("spese_%s.xlsx", today.Format("20060102"))
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func writeExpenses(f *excelize.File, st styles, expenses []core.Expense) error {
	const sheet = ExpensesSheet
	widths := map[string]float64{"A": 8, "B": 12, "C": 10, "D": 16, "E": 40, "F": 12}
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	for i, h := range expenseHeaders {
		c, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, c, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", st.header); err != nil {
		return err
	}

	total := core.Money{}
	row := 2
	for _, e := range expenses {
		values := []any{e.ID, e.Date.String(), e.Person.Label(), e.Category.Info().Label, e.Description, e.Amount.Euros()}
		if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("A", row), cell("E", row), st.data); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("F", row), cell("F", row), st.amount); err != nil {
			return err
		}
		total = total.Add(e.Amount)
		row++
	}

	if err := f.SetCellValue(sheet, cell("A", row), "Totale"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, cell("A", row), cell("D", row)); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell("E", row), fmt.Sprintf("%d spese", len(expenses))); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell("F", row), total.Euros()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell("A", row), cell("E", row), st.summary); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell("F", row), cell("F", row), st.summaryAmount)
}

func writeSummary(f *excelize.File, st styles, s Summary) error {
	const sheet = SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 16); err != nil {
		return err
	}

	row := 1
	heading := func(label string) error {
		if err := f.SetSheetRow(sheet, cell("A", row), &[]any{label, "Importo"}); err != nil {
			return err
		}
		err := f.SetCellStyle(sheet, cell("A", row), cell("B", row), st.header)
		row++
		return err
	}
	line := func(label string, amount core.Money) error {
		if err := f.SetSheetRow(sheet, cell("A", row), &[]any{label, amount.Euros()}); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("A", row), cell("A", row), st.data); err != nil {
			return err
		}
		err := f.SetCellStyle(sheet, cell("B", row), cell("B", row), st.amount)
		row++
		return err
	}

	if err := heading("Mese " + s.Stats.Month.String()); err != nil {
		return err
	}
	if err := line("Totale", s.Stats.Total); err != nil {
		return err
	}
	if err := line("Quota a testa", s.Balance.Share); err != nil {
		return err
	}
	row++

	if err := heading("Persona"); err != nil {
		return err
	}
	for _, p := range core.Persons() {
		if err := line(p.Label(), s.Stats.ByPerson[p]); err != nil {
			return err
		}
	}
	row++

	if err := heading("Categoria"); err != nil {
		return err
	}
	for _, c := range s.Stats.ByCategory {
		info := c.Category.Info()
		if err := line(info.Emoji+" "+info.Label, c.Total); err != nil {
			return err
		}
	}
	row++

	if err := f.SetCellValue(sheet, cell("A", row), "Saldo"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell("B", row), BalanceText(s.Balance)); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell("A", row), cell("B", row), st.summary)
}

// BalanceText renders the balance as a sentence, e.g. "Mino deve 12.50 € ad Ambra".
func BalanceText(b core.Balance) string {
	if b.Settled {
		return "In pari"
	}
	prep := "a"
	if b.Creditor == core.PersonAmbra {
		prep = "ad"
	}
	return fmt.Sprintf("%s deve %s € %s %s", b.Debtor.Label(), b.Amount, prep, b.Creditor.Label())
}
