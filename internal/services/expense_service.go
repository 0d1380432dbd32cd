package services

import (
	"context"
	"fmt"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/ports"
)

// Invalidator is notified after every committed change.
type Invalidator interface {
	Invalidate()
}

// ExpenseService orchestrates expense writes: normalization, storage, cache
// invalidation and event publication.
type ExpenseService struct {
	store        ports.ExpenseStore
	publisher    ports.EventPublisher
	clock        Clock
	invalidators []Invalidator
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(store ports.ExpenseStore, publisher ports.EventPublisher, clock Clock, invalidators ...Invalidator) *ExpenseService {
	return &ExpenseService{
		store:        store,
		publisher:    publisher,
		clock:        clock,
		invalidators: invalidators,
	}
}

// Add validates the input, stores it and announces the new expense.
func (s *ExpenseService) Add(ctx context.Context, in core.NewExpense) (core.Expense, error) {
	e, err := in.Normalize(s.clock.Today())
	if err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.Add(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.invalidate()

	sl := log.NewStructuredLogger(log.FromContext(ctx))
	sl.LogExpenseCreated(ctx, saved)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, saved); err != nil {
			// The expense is committed; the mirror catches up on rebuild.
			sl.LogError(ctx, "Failed to publish expense created event", err,
				log.ComponentAMQP, log.OpPublish, log.NewFields().WithExpense(saved))
		}
	}
	return saved, nil
}

// List returns expenses matching f, newest first.
func (s *ExpenseService) List(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.Get(ctx, id)
}

// Delete removes the expense permanently. core.ErrNotFound when it does not
// exist, including when it was already deleted.
func (s *ExpenseService) Delete(ctx context.Context, id int64) (core.Expense, error) {
	if id <= 0 {
		return core.Expense{}, fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	s.invalidate()

	sl := log.NewStructuredLogger(log.FromContext(ctx))
	sl.LogExpenseDeleted(ctx, deleted)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseDeleted(ctx, deleted); err != nil {
			sl.LogError(ctx, "Failed to publish expense deleted event", err,
				log.ComponentAMQP, log.OpPublish, log.NewFields().WithExpense(deleted))
		}
	}
	return deleted, nil
}

func (s *ExpenseService) invalidate() {
	for _, inv := range s.invalidators {
		inv.Invalidate()
	}
}
