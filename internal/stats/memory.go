package stats

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu sync.Mutex
	c  Counters
}

// NewMemoryStore returns a store starting at the given counters.
func NewMemoryStore(initial Counters) *MemoryStore {
	return &MemoryStore{c: initial}
}

func (m *MemoryStore) Get(ctx context.Context) (Counters, error) {
	if err := ctx.Err(); err != nil {
		return Counters{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c, nil
}

func (m *MemoryStore) IncrementVisitors(ctx context.Context, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.c.Visitors += delta
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) AddSpent(ctx context.Context, amount float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.c.TotalSpent += amount
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
