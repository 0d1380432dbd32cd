package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/ports"
)

// StatsService computes the monthly stats view.
type StatsService struct {
	reader ports.StatsReader
	clock  Clock
	cache  cache.Cache[core.Stats]

	// gen counts invalidations. A compute that started before the latest
	// write must not populate the cache.
	mu  sync.Mutex
	gen uint64
}

// NewStatsService wires the service. c may be nil to disable caching.
func NewStatsService(reader ports.StatsReader, clock Clock, c cache.Cache[core.Stats]) *StatsService {
	return &StatsService{reader: reader, clock: clock, cache: c}
}

// Compute returns the stats for month, or for the current month when month
// is empty. The four aggregate reads run concurrently; the first failure
// cancels the others.
func (s *StatsService) Compute(ctx context.Context, month core.MonthKey) (core.Stats, error) {
	if month.IsEmpty() {
		month = s.clock.CurrentMonth()
	} else if _, _, err := month.Range(); err != nil {
		return core.Stats{}, core.Invalid("month", err)
	}

	if s.cache != nil {
		if st, ok := s.cache.Get(string(month)); ok {
			return st, nil
		}
	}

	gen := s.generation()

	var (
		total    core.Money
		byPerson []core.PersonTotal
		byCat    []core.CategoryTotal
		monthly  []core.MonthTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.reader.SumTotal(gctx, month)
		return err
	})
	g.Go(func() (err error) {
		byPerson, err = s.reader.SumByPerson(gctx, month)
		return err
	})
	g.Go(func() (err error) {
		byCat, err = s.reader.SumByCategory(gctx, month)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = s.reader.MonthlyTotals(gctx, core.MonthlyTrendLength)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Stats{}, fmt.Errorf("compute stats for %s: %w", month, err)
	}

	if monthly == nil {
		monthly = []core.MonthTotal{}
	}
	st := core.Stats{
		Month:      month,
		Total:      total,
		ByPerson:   core.PersonMap(byPerson),
		ByCategory: core.MergeCategoryTotals(byCat),
		Monthly:    monthly,
	}
	if s.cache != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.cache.Set(string(month), st)
		}
		s.mu.Unlock()
	}
	return st, nil
}

func (s *StatsService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Invalidate drops cached results; called after every add or delete.
func (s *StatsService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cache != nil {
		s.cache.Purge()
	}
}
