package receipt

import (
	"strings"
	"testing"
)

func TestExtractAmount(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"totale with comma", "TOTALE: 23,50\nGRAZIE", "23.50"},
		{"fallback picks max", "random noise 7.20 and 150.00 end", "150.00"},
		{"empty", "", ""},
		{"no amounts", "solo testo\nniente numeri", ""},
		{"bottom-most total wins", "TOTALE 10,00\nsconto\nTOTALE 8,50", "8.50"},
		{"tot abbreviation", "PANE 2,00\nTOT 12,40", "12.40"},
		{"totale beats euro sign", "€ 99,99\nTotale € 45,10", "45.10"},
		{"english total", "ITEM 3.00\nTOTAL: 3.00", "3.00"},
		{"dovuto", "IMPORTO DOVUTO 17,30", "17.30"},
		{"pagamento", "PAGAMENTO CONTANTE 5,00", "5.00"},
		{"euro prefix", "LATTE\n€ 1,29", "1.29"},
		{"euro suffix", "LATTE 1,29 €", "1.29"},
		{"fallback ignores huge values", "cod 12345,67\nprezzo 4,20", "4.20"},
		{"fallback normalizes comma", "a 3,10 b 2,95", "3.10"},
		{"keeps raw digits", "TOTALE 0023,50", "0023.50"},
		{"crlf lines", "PANE 1,00\r\nTOTALE 9,99\r\n", "9.99"},
	}
	for _, tc := range cases {
		got := Extract(tc.in)
		if got.Amount != tc.want {
			t.Fatalf("%s: expected amount %q, got %q", tc.name, tc.want, got.Amount)
		}
	}
}

func TestExtractDescription(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"default when empty", "", DefaultDescription},
		{"default when all skipped", "Data 01/03/2024\nORA 10:22\nP.IVA 0123\nab", DefaultDescription},
		{"first three qualifying lines", "ESSELUNGA\nVia Roma 1\nPANE 2,00\nLATTE 1,20\nUOVA 3,00", "ESSELUNGA · PANE 2,00 · LATTE 1,20"},
		{"skips short lines", "ok\nCONAD\nxy", "CONAD"},
		{"skips long lines", strings.Repeat("x", 80) + "\nBAR SPORT", "BAR SPORT"},
	}
	for _, tc := range cases {
		if got := Extract(tc.in).Description; got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestExtractDescriptionTruncated(t *testing.T) {
	line := strings.Repeat("à", 79)
	got := Extract(line + "\n" + line + "\n" + line).Description
	if n := len([]rune(got)); n != 200 {
		t.Fatalf("expected 200 characters, got %d", n)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	in := "SUPERMERCATO\nPANE 2,00\nTOTALE 12,40"
	first := Extract(in)
	for i := 0; i < 5; i++ {
		if Extract(in) != first {
			t.Fatalf("extract is not deterministic")
		}
	}
}

func TestResultMoney(t *testing.T) {
	m, ok := Result{Amount: "23.50"}.Money()
	if !ok || m.Cents != 2350 {
		t.Fatalf("unexpected %v %v", m, ok)
	}
	if _, ok := (Result{}).Money(); ok {
		t.Fatalf("empty amount must not parse")
	}
}
