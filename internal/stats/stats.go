package stats

import (
	"context"
	"errors"
)

// Counters are the two global figures shared by every visitor.
type Counters struct {
	Visitors   int64   `json:"visitors"`
	TotalSpent float64 `json:"totalSpent"`
}

// EventType discriminates POST bodies.
type EventType string

const (
	EventVisitor EventType = "visitor"
	EventSpent   EventType = "spent"
)

// Storage keys for the two counter rows.
const (
	KeyVisitors   = "visitors"
	KeyTotalSpent = "totalSpent"
)

// Event is one counter update.
type Event struct {
	Type   EventType `json:"type"`
	Amount float64   `json:"amount,omitempty"`
}

var (
	ErrUnknownEventType = errors.New("unknown stats event type")
	ErrInvalidAmount    = errors.New("amount must be a finite number")
)

// Store persists the counters. Increments must be atomic: concurrent callers
// never lose an update. Missing counters read as zero.
type Store interface {
	Get(ctx context.Context) (Counters, error)
	IncrementVisitors(ctx context.Context, delta int64) error
	AddSpent(ctx context.Context, amount float64) error
	Close() error
}
