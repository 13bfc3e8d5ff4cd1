package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xtding233/gacha-sim/internal/metrics"
	"github.com/xtding233/gacha-sim/internal/stats"
)

// Reporter forwards session activity to the global stats service.
// Implementations must not block the caller on the remote call.
type Reporter interface {
	ReportVisitor(ctx context.Context)
	ReportSpent(ctx context.Context, amount float64)
}

// Recorder is the part of a stats client the reporter needs. Both the HTTP
// client and the gRPC client satisfy it.
type Recorder interface {
	Record(ctx context.Context, ev stats.Event) (stats.Counters, error)
}

// NopReporter drops every report.
type NopReporter struct{}

func (NopReporter) ReportVisitor(context.Context) {}
func (NopReporter) ReportSpent(context.Context, float64) {}

// AsyncReporter sends each report on its own goroutine. Failures are logged
// and otherwise ignored; they never touch local session state.
type AsyncReporter struct {
	rec     Recorder
	timeout time.Duration
	log     *slog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	global stats.Counters
	known  bool
}

// NewAsyncReporter wraps rec. timeout bounds each remote call.
func NewAsyncReporter(rec Recorder, timeout time.Duration, log *slog.Logger) *AsyncReporter {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncReporter{rec: rec, timeout: timeout, log: log}
}

func (r *AsyncReporter) ReportVisitor(ctx context.Context) {
	r.send(ctx, stats.Event{Type: stats.EventVisitor})
}

func (r *AsyncReporter) ReportSpent(ctx context.Context, amount float64) {
	r.send(ctx, stats.Event{Type: stats.EventSpent, Amount: amount})
}

func (r *AsyncReporter) send(ctx context.Context, ev stats.Event) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// detach from the caller's cancellation; the report outlives the action
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		c, err := r.rec.Record(ctx, ev)
		if err != nil {
			metrics.StatsReportErrors.Inc()
			r.log.Warn("Failed to update global stats", "type", ev.Type, "amount", ev.Amount, "error", err)
			return
		}
		r.mu.Lock()
		r.global, r.known = c, true
		r.mu.Unlock()
	}()
}

// Global returns the last counters the stats service answered with.
func (r *AsyncReporter) Global() (stats.Counters, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.global, r.known
}

// Wait blocks until every report sent so far has finished.
func (r *AsyncReporter) Wait() {
	r.wg.Wait()
}
