package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage/memory"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []int64
	deleted []int64
	err     error
}

func (p *recordingPublisher) PublishExpenseCreated(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e.ID)
	return p.err
}

func (p *recordingPublisher) PublishExpenseDeleted(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, e.ID)
	return p.err
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func fixedClock() Clock {
	return Clock{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func TestExpenseServiceAdd(t *testing.T) {
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	svc := NewExpenseService(memory.New(), pub, fixedClock(), inv)

	e, err := svc.Add(context.Background(), core.NewExpense{
		Amount:      core.Money{Cents: 2350},
		Description: " Esselunga ",
		Person:      "mino",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID == 0 || e.Description != " Esselunga " || e.Category != core.CategoryOther {
		t.Fatalf("unexpected expense %+v", e)
	}
	if e.Date.String() != "2024-03-15" {
		t.Fatalf("expected default date from clock, got %s", e.Date)
	}
	if inv.n != 1 {
		t.Fatalf("expected 1 invalidation, got %d", inv.n)
	}
	if len(pub.created) != 1 || pub.created[0] != e.ID {
		t.Fatalf("expected created event for %d, got %v", e.ID, pub.created)
	}
}

func TestExpenseServiceAddValidation(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewExpenseService(store, pub, fixedClock())

	_, err := svc.Add(context.Background(), core.NewExpense{Amount: core.Money{Cents: 100}, Description: "x", Person: "luca"})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	list, _ := store.List(context.Background(), core.ExpenseFilter{})
	if len(list) != 0 || len(pub.created) != 0 {
		t.Fatalf("rejected input must not be stored or published")
	}
}

func TestExpenseServicePublishFailureDoesNotFail(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.NewContext(context.Background(), log.New(log.Config{Format: "json", Output: &buf}))
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(memory.New(), pub, fixedClock())

	e, err := svc.Add(ctx, core.NewExpense{Amount: core.Money{Cents: 100}, Description: "x", Person: "ambra"})
	if err != nil {
		t.Fatalf("publish failure must not fail the add: %v", err)
	}
	if _, err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("publish failure must not fail the delete: %v", err)
	}

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 log records, got %d: %s", len(records), buf.String())
	}
	want := []struct{ msg, component, operation string }{
		{"Expense created", log.ComponentExpense, log.OpCreate},
		{"Failed to publish expense created event", log.ComponentAMQP, log.OpPublish},
		{"Expense deleted", log.ComponentExpense, log.OpDelete},
		{"Failed to publish expense deleted event", log.ComponentAMQP, log.OpPublish},
	}
	for i, w := range want {
		rec := records[i]
		if rec["msg"] != w.msg || rec[log.FieldComponent] != w.component || rec[log.FieldOperation] != w.operation {
			t.Errorf("record %d = %v, want %+v", i, rec, w)
		}
		if rec[log.FieldExpenseID] != float64(e.ID) {
			t.Errorf("record %d expense_id = %v, want %d", i, rec[log.FieldExpenseID], e.ID)
		}
	}
	if records[1][log.FieldError] != "broker down" {
		t.Errorf("publish failure error = %v", records[1][log.FieldError])
	}
}

func TestExpenseServiceDelete(t *testing.T) {
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	svc := NewExpenseService(memory.New(), pub, fixedClock(), inv)
	ctx := context.Background()

	e, _ := svc.Add(ctx, core.NewExpense{Amount: core.Money{Cents: 100}, Description: "x", Person: "ambra"})
	deleted, err := svc.Delete(ctx, e.ID)
	if err != nil || deleted.ID != e.ID {
		t.Fatalf("delete: %+v %v", deleted, err)
	}
	if _, err := svc.Delete(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Delete(ctx, 0); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for id 0, got %v", err)
	}
	if inv.n != 2 {
		t.Fatalf("expected 2 invalidations, got %d", inv.n)
	}
	if len(pub.deleted) != 1 {
		t.Fatalf("expected exactly one deleted event, got %v", pub.deleted)
	}
}

func TestExpenseServiceNilPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, Clock{})
	if _, err := svc.Add(context.Background(), core.NewExpense{Amount: core.Money{Cents: 1}, Description: "x", Person: "mino"}); err != nil {
		t.Fatalf("add without publisher: %v", err)
	}
}
