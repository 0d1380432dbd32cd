package sheets

import (
	"reflect"
	"testing"

	"conti/internal/core"
)

func TestRow(t *testing.T) {
	e := core.Expense{
		ID:          12,
		Amount:      core.Money{Cents: 2350},
		Description: "Esselunga",
		Category:    core.CategoryGroceries,
		Person:      core.PersonMino,
		Date:        core.NewDate(2024, 3, 5),
	}
	want := []any{int64(12), "2024-03-05", "mino", "spesa", "Esselunga", 23.5}
	if got := Row(e); !reflect.DeepEqual(got, want) {
		t.Fatalf("Row() = %#v, want %#v", got, want)
	}
	if len(Header()) != len(want) {
		t.Fatalf("header has %d columns, row has %d", len(Header()), len(want))
	}
}

func TestRowID(t *testing.T) {
	tests := []struct {
		name string
		row  []any
		id   int64
		ok   bool
	}{
		{"string id", []any{"42", "2024-03-05"}, 42, true},
		{"numeric id", []any{float64(7)}, 7, true},
		{"padded", []any{" 9 "}, 9, true},
		{"header", Header(), 0, false},
		{"empty row", []any{}, 0, false},
		{"zero", []any{"0"}, 0, false},
		{"decimal", []any{"1.5"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := RowID(tt.row)
			if id != tt.id || ok != tt.ok {
				t.Fatalf("RowID(%v) = %d, %v; want %d, %v", tt.row, id, ok, tt.id, tt.ok)
			}
		})
	}
}
