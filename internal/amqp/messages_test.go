package amqp

import (
	"errors"
	"strings"
	"testing"
	"time"

	"conti/internal/core"
)

func sampleExpense() core.Expense {
	return core.Expense{
		ID:          7,
		Amount:      core.Money{Cents: 2350},
		Description: "Esselunga",
		Category:    core.CategoryGroceries,
		Person:      core.PersonAmbra,
		Date:        core.NewDate(2024, 3, 5),
		CreatedAt:   time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC),
	}
}

func TestExpenseEventJSON(t *testing.T) {
	ev := NewExpenseEvent(EventExpenseDeleted, sampleExpense())
	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, want := range []string{`"type":"expense.deleted"`, `"id":7`, `"amount":23.50`, `"date":"2024-03-05"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s missing %s", data, want)
		}
	}

	got, err := ExpenseEventFromJSON(data)
	if err != nil {
		t.Fatalf("ExpenseEventFromJSON: %v", err)
	}
	if got.Type != EventExpenseDeleted || got.ID != 7 {
		t.Fatalf("got %+v", got)
	}
	if got.Expense.Amount.Cents != 2350 || got.Expense.Person != core.PersonAmbra || got.Expense.Date.String() != "2024-03-05" {
		t.Fatalf("snapshot not preserved: %+v", got.Expense)
	}
}

func TestExpenseEventFromJSONRejects(t *testing.T) {
	for _, body := range []string{
		``,
		`[]`,
		`{"type":"expense.created"}`,
		`{"type":"expense.created","id":0}`,
		`{"type":"sync","id":3}`,
	} {
		if _, err := ExpenseEventFromJSON([]byte(body)); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("ExpenseEventFromJSON(%q) err = %v, want ErrInvalidEvent", body, err)
		}
	}
}
