// Package worker applies expense events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ports"
	"conti/internal/sheets"
)

// MirrorWorker keeps the spreadsheet in step with the expense store.
type MirrorWorker struct {
	store  ports.ExpenseStore
	mirror sheets.ExpenseMirror
}

// NewMirrorWorker returns a worker. store may be nil, in which case events
// are applied from their snapshots and Rebuild is unavailable.
func NewMirrorWorker(store ports.ExpenseStore, mirror sheets.ExpenseMirror) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror}
}

// HandleEvent is an amqp.Handler. Returned errors requeue the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"type", ev.Type,
		"expense_id", ev.ID,
		"timestamp", ev.Timestamp)

	switch ev.Type {
	case amqp.EventExpenseCreated:
		return w.handleCreated(ctx, ev)
	case amqp.EventExpenseDeleted:
		return w.handleDeleted(ctx, ev)
	default:
		// Decoding already rejects unknown types.
		return fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

func (w *MirrorWorker) handleCreated(ctx context.Context, ev *amqp.ExpenseEvent) error {
	e := ev.Expense
	if w.store != nil {
		stored, err := w.store.Get(ctx, ev.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got here; the delete event will follow.
			slog.InfoContext(ctx, "Expense no longer stored, skipping append", "expense_id", ev.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get expense from storage: %w", err)
		}
		e = stored
	}
	if e.ID == 0 {
		e.ID = ev.ID
	}

	ref, err := w.mirror.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored expense",
		"expense_id", e.ID,
		"row_ref", ref)
	return nil
}

func (w *MirrorWorker) handleDeleted(ctx context.Context, ev *amqp.ExpenseEvent) error {
	found, err := w.mirror.DeleteByID(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("delete expense from sheet: %w", err)
	}
	if !found {
		slog.WarnContext(ctx, "No sheet row for deleted expense", "expense_id", ev.ID)
		return nil
	}
	slog.InfoContext(ctx, "Removed expense from sheet", "expense_id", ev.ID)
	return nil
}

// Rebuild rewrites the sheet from the store, oldest expense first so that
// later appends stay in chronological order.
func (w *MirrorWorker) Rebuild(ctx context.Context) error {
	if w.store == nil {
		return errors.New("rebuild needs an expense store")
	}
	all, err := w.store.List(ctx, core.ExpenseFilter{})
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	slices.Reverse(all)

	if err := w.mirror.Rebuild(ctx, all); err != nil {
		return fmt.Errorf("rebuild sheet: %w", err)
	}
	slog.InfoContext(ctx, "Rebuilt spreadsheet mirror", "expenses", len(all))
	return nil
}

// Prepare readies the sheet before consuming: a full rebuild when asked,
// otherwise just the header row.
func (w *MirrorWorker) Prepare(ctx context.Context, rebuild bool) error {
	if rebuild {
		return w.Rebuild(ctx)
	}
	if err := w.mirror.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("ensure header: %w", err)
	}
	return nil
}
