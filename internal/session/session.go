// Package session holds one user's simulation state: the selected box, the
// parsed table, the award tally and running spend.
package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xtding233/gacha-sim/internal/box"
	"github.com/xtding233/gacha-sim/internal/gacha"
	"github.com/xtding233/gacha-sim/internal/metrics"
	"github.com/xtding233/gacha-sim/internal/pricing"
)

// Session serializes batches: one Draw completes before the next starts.
type Session struct {
	mu sync.Mutex

	sim      *gacha.Simulator
	reporter Reporter
	log      *slog.Logger
	collator *collate.Collator

	boxID     string
	title     string
	batches   []int
	itemsText string
	table     gacha.Table
	schedule  pricing.Schedule
	tally     *gacha.Tally
	totalCost float64
}

// Option configures a Session.
type Option func(*Session)

// WithLocale sets the collation used to order items by name.
func WithLocale(tag language.Tag) Option {
	return func(s *Session) { s.collator = collate.New(tag) }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New starts an empty session. A nil reporter reports nothing.
func New(sim *gacha.Simulator, reporter Reporter, opts ...Option) *Session {
	if reporter == nil {
		reporter = NopReporter{}
	}
	s := &Session{
		sim:      sim,
		reporter: reporter,
		log:      slog.Default(),
		collator: collate.New(language.English),
		schedule: pricing.NewSchedule(nil),
		tally:    gacha.NewTally(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Select switches to b: the tally and running totals start over.
func (s *Session) Select(b box.Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxID = b.ID
	s.title = b.DisplayTitle()
	s.batches = append([]int(nil), b.Batches...)
	s.schedule = b.Schedule
	s.setItemsTextLocked(b.ItemsText)
	s.resetLocked()
	s.log.Debug("Box selected", "box", b.ID, "entries", len(s.table), "mass", s.table.Mass())
}

// SetItemsText replaces the rate text (a user edit). The tally is kept and
// rarities already recorded stay as they were.
func (s *Session) SetItemsText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setItemsTextLocked(text)
}

func (s *Session) setItemsTextLocked(text string) {
	s.itemsText = text
	s.table = gacha.ParseRateTable(text)
	if lost := s.table.Unreachable(); len(lost) > 0 {
		s.log.Warn("Rates sum past 100%; trailing items can never be drawn",
			"mass", s.table.Mass(), "unreachable", len(lost))
	}
}

// SetSchedule replaces the cost schedule for later batches.
func (s *Session) SetSchedule(sched pricing.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = sched
}

// Draw runs one batch of n draws, records it locally and then forwards the
// batch cost to the reporter without waiting for it.
func (s *Session) Draw(ctx context.Context, n int) (gacha.Batch, error) {
	s.mu.Lock()
	b, err := s.sim.Draw(s.table, n, s.tally, s.schedule)
	if err != nil {
		s.mu.Unlock()
		return gacha.Batch{}, err
	}
	s.totalCost += b.Cost
	s.mu.Unlock()

	metrics.DrawsTotal.WithLabelValues("hit").Add(float64(b.Draws - b.Misses))
	metrics.DrawsTotal.WithLabelValues("miss").Add(float64(b.Misses))
	s.reporter.ReportSpent(ctx, b.Cost)
	return b, nil
}

// Reset clears the tally and running totals, keeping the table.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.tally.Reset()
	s.totalCost = 0
}

// Table returns the current parsed table.
func (s *Session) Table() gacha.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(gacha.Table(nil), s.table...)
}

// Batches returns the allowed batch sizes of the selected box.
func (s *Session) Batches() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batches...)
}

// Schedule returns the cost schedule in effect.
func (s *Session) Schedule() pricing.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

// Snapshot is a read-only view of the running totals.
type Snapshot struct {
	BoxID      string  `json:"boxId"`
	Title      string  `json:"title"`
	TotalDraws int     `json:"totalDraws"`
	TotalCost  float64 `json:"totalCost"`
	Misses     int     `json:"misses"`
	Distinct   int     `json:"distinct"`
	Entries    int     `json:"entries"`
	Mass       float64 `json:"mass"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		BoxID:      s.boxID,
		Title:      s.title,
		TotalDraws: s.tally.TotalDraws(),
		TotalCost:  s.totalCost,
		Misses:     s.tally.Misses(),
		Distinct:   s.tally.Len(),
		Entries:    len(s.table),
		Mass:       s.table.Mass(),
	}
}

// ItemCount is one display row.
type ItemCount struct {
	Item   string       `json:"item"`
	Count  int          `json:"count"`
	Rarity gacha.Rarity `json:"rarity"`
}

// Items lists awards whose rarity equals filter ("" for all), ordered by item
// name under the session's collation.
func (s *Session) Items(filter gacha.Rarity) []ItemCount {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []ItemCount
	for item, a := range s.tally.Awards() {
		if filter != "" && a.Rarity != filter {
			continue
		}
		rows = append(rows, ItemCount{Item: item, Count: a.Count, Rarity: a.Rarity})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := s.collator.CompareString(rows[i].Item, rows[j].Item); c != 0 {
			return c < 0
		}
		return rows[i].Item < rows[j].Item
	})
	return rows
}
