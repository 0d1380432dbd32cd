package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyTrendLength is the number of months reported in Stats.Monthly.
const MonthlyTrendLength = 12

// CategoryTotal is the sum of one category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
}

// MonthTotal is the sum of one calendar month.
type MonthTotal struct {
	Month MonthKey `json:"month"`
	Total Money    `json:"total"`
}

// PersonTotal is the sum paid by one member. Stores return these rows;
// Stats exposes them as a map.
type PersonTotal struct {
	Person Person `json:"person"`
	Total  Money  `json:"total"`
}

// Stats is the monthly aggregate view.
type Stats struct {
	Month      MonthKey         `json:"month"`
	Total      Money            `json:"total"`
	ByPerson   map[Person]Money `json:"byPerson"`
	ByCategory []CategoryTotal  `json:"byCategory"`
	Monthly    []MonthTotal     `json:"monthly"`
}

// PersonMap folds rows into a map, coercing nothing: rows for persons outside
// the household are dropped.
func PersonMap(rows []PersonTotal) map[Person]Money {
	out := make(map[Person]Money, len(rows))
	for _, r := range rows {
		if !r.Person.Valid() {
			continue
		}
		out[r.Person] = out[r.Person].Add(r.Total)
	}
	return out
}

// MergeCategoryTotals coerces unknown categories to CategoryOther, merges
// duplicates and sorts by total descending, ties in taxonomy order.
func MergeCategoryTotals(rows []CategoryTotal) []CategoryTotal {
	sums := make(map[Category]Money, len(rows))
	for _, r := range rows {
		c := NormalizeCategory(string(r.Category))
		sums[c] = sums[c].Add(r.Total)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for c, total := range sums {
		out = append(out, CategoryTotal{Category: c, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category.Rank() < out[j].Category.Rank()
	})
	return out
}

// Balance states who owes whom so that both members paid half of the total.
type Balance struct {
	Settled  bool   `json:"settled"`
	Debtor   Person `json:"debtor,omitempty"`
	Creditor Person `json:"creditor,omitempty"`
	// Amount is rounded to cents.
	Amount Money `json:"amount"`
	// Share is half of the total, rounded to cents.
	Share Money `json:"share"`
}

var settleThreshold = decimal.New(1, -2)

// ComputeBalance derives the balance from the month total and the amount
// each member paid. Missing members count as zero.
func ComputeBalance(total Money, byPerson map[Person]Money) Balance {
	half := total.Decimal().Div(decimal.NewFromInt(2))
	owed := half.Sub(byPerson[PersonMino].Decimal())

	b := Balance{Share: moneyFromDecimal(half)}
	if owed.Abs().LessThan(settleThreshold) {
		b.Settled = true
		return b
	}
	if owed.Sign() > 0 {
		b.Debtor, b.Creditor = PersonMino, PersonAmbra
	} else {
		b.Debtor, b.Creditor = PersonAmbra, PersonMino
	}
	b.Amount = moneyFromDecimal(owed.Abs())
	return b
}

func moneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}
