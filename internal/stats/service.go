package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/xtding233/gacha-sim/internal/logger"
	"github.com/xtding233/gacha-sim/internal/metrics"
)

// Service defines the interface for stats operations
type Service interface {
	Get(ctx context.Context) (Counters, error)
	Record(ctx context.Context, ev Event) (Counters, error)
	AdjustVisitors(ctx context.Context, delta int64) (Counters, error)
}

// service implements the Service interface
type service struct {
	store Store
}

// NewService creates a new stats service
func NewService(store Store) Service {
	return &service{store: store}
}

// Get returns the current counters.
func (s *service) Get(ctx context.Context) (Counters, error) {
	c, err := s.store.Get(ctx)
	if err != nil {
		return Counters{}, fmt.Errorf("get stats: %w", err)
	}
	return c, nil
}

// Record applies one event and returns the counters read afterwards.
func (s *service) Record(ctx context.Context, ev Event) (Counters, error) {
	log := logger.FromContext(ctx)

	switch ev.Type {
	case EventVisitor:
		if err := s.store.IncrementVisitors(ctx, 1); err != nil {
			log.Error("Failed to increment visitors", "error", err)
			return Counters{}, fmt.Errorf("increment visitors: %w", err)
		}
		metrics.StatsUpdates.WithLabelValues(string(EventVisitor)).Inc()
	case EventSpent:
		if math.IsNaN(ev.Amount) || math.IsInf(ev.Amount, 0) {
			return Counters{}, ErrInvalidAmount
		}
		if err := s.store.AddSpent(ctx, ev.Amount); err != nil {
			log.Error("Failed to add spent amount", "error", err, "amount", ev.Amount)
			return Counters{}, fmt.Errorf("add spent: %w", err)
		}
		metrics.StatsUpdates.WithLabelValues(string(EventSpent)).Inc()
		metrics.SpentTotal.Add(math.Max(ev.Amount, 0))
	default:
		return Counters{}, fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}

	log.Debug("Stats event recorded", "type", ev.Type, "amount", ev.Amount)
	return s.Get(ctx)
}

// AdjustVisitors moves the visitor count by delta, which may be negative.
func (s *service) AdjustVisitors(ctx context.Context, delta int64) (Counters, error) {
	if err := s.store.IncrementVisitors(ctx, delta); err != nil {
		return Counters{}, fmt.Errorf("adjust visitors: %w", err)
	}
	logger.FromContext(ctx).Info("Visitor count adjusted", "delta", delta)
	return s.Get(ctx)
}
