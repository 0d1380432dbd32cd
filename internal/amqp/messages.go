package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"conti/internal/core"
)

// EventType names what happened to an expense.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

var ErrInvalidEvent = errors.New("invalid expense event")

// ExpenseEvent carries a snapshot of the expense so consumers never need to
// read it back, which matters for deletions.
type ExpenseEvent struct {
	Type      EventType    `json:"type"`
	ID        int64        `json:"id"`
	Expense   core.Expense `json:"expense"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewExpenseEvent stamps the event with the current time.
func NewExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		ID:        e.ID,
		Expense:   e,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and checks an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	switch ev.Type {
	case EventExpenseCreated, EventExpenseDeleted:
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}
	if ev.ID <= 0 {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	return &ev, nil
}
