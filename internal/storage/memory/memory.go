// Package memory is a volatile expense store used for development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"conti/internal/core"
)

var errClosed = errors.New("memory store closed")

type Store struct {
	mu     sync.Mutex
	items  []core.Expense
	nextID int64
	closed bool
	now    func() time.Time
}

func New() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// WithClock replaces the created_at source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Add stores a copy of e with a fresh id.
func (s *Store) Add(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Expense{}, unavailable(errClosed)
	}
	e.ID = s.nextID
	s.nextID++
	e.CreatedAt = s.now().UTC()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) List(_ context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, unavailable(errClosed)
	}
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return core.LessExpense(out[i], out[j]) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
}

func (s *Store) Delete(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Expense{}, unavailable(errClosed)
	}
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
}

func (s *Store) SumTotal(_ context.Context, month core.MonthKey) (core.Money, error) {
	var total core.Money
	err := s.each(month, func(e core.Expense) { total = total.Add(e.Amount) })
	return total, err
}

func (s *Store) SumByPerson(_ context.Context, month core.MonthKey) ([]core.PersonTotal, error) {
	sums := map[core.Person]core.Money{}
	if err := s.each(month, func(e core.Expense) { sums[e.Person] = sums[e.Person].Add(e.Amount) }); err != nil {
		return nil, err
	}
	out := make([]core.PersonTotal, 0, len(sums))
	for p, m := range sums {
		out = append(out, core.PersonTotal{Person: p, Total: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Person < out[j].Person })
	return out, nil
}

func (s *Store) SumByCategory(_ context.Context, month core.MonthKey) ([]core.CategoryTotal, error) {
	sums := map[core.Category]core.Money{}
	if err := s.each(month, func(e core.Expense) { sums[e.Category] = sums[e.Category].Add(e.Amount) }); err != nil {
		return nil, err
	}
	out := make([]core.CategoryTotal, 0, len(sums))
	for c, m := range sums {
		out = append(out, core.CategoryTotal{Category: c, Total: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.Cents > out[j].Total.Cents })
	return out, nil
}

func (s *Store) MonthlyTotals(_ context.Context, limit int) ([]core.MonthTotal, error) {
	sums := map[core.MonthKey]core.Money{}
	if err := s.each("", func(e core.Expense) { sums[e.Date.Month()] = sums[e.Date.Month()].Add(e.Amount) }); err != nil {
		return nil, err
	}
	out := make([]core.MonthTotal, 0, len(sums))
	for m, total := range sums {
		out = append(out, core.MonthTotal{Month: m, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable(errClosed)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// each calls fn for every expense in month, or all when month is empty.
func (s *Store) each(month core.MonthKey, fn func(core.Expense)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable(errClosed)
	}
	for _, e := range s.items {
		if month.IsEmpty() || month.Contains(e.Date) {
			fn(e)
		}
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
}
