package gacha

import (
	"errors"

	"github.com/xtding233/gacha-sim/internal/pricing"
)

var ErrInvalidDrawCount = errors.New("invalid draw count; must be > 0")

// Batch reports one user-initiated draw action.
type Batch struct {
	Draws   int      `json:"draws"`
	Results []string `json:"results"` // item per draw; "" for a miss
	Misses  int      `json:"misses"`
	Cost    float64  `json:"cost"`
}

// Simulator performs weighted draws against a rate table.
type Simulator struct {
	RNG RandomSource
}

// NewSimulator uses rng for rolls; nil means DefaultRNG.
func NewSimulator(rng RandomSource) *Simulator {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Simulator{RNG: rng}
}

// Draw performs n independent draws and folds the winners into tally.
// Each draw rolls u in [0, 1) and takes the first entry whose running sum of
// rates exceeds u; a roll past the table's mass is a miss and awards nothing.
// The returned cost depends only on n and schedule.
func (s *Simulator) Draw(table Table, n int, tally *Tally, schedule pricing.Schedule) (Batch, error) {
	if n <= 0 {
		return Batch{}, ErrInvalidDrawCount
	}
	if tally == nil {
		return Batch{}, errors.New("nil tally")
	}
	b := Batch{Draws: n, Results: make([]string, n)}
	for i := 0; i < n; i++ {
		e, ok := table.Pick(s.RNG.Float64())
		if !ok {
			b.Misses++
			tally.misses++
			continue
		}
		tally.record(e)
		b.Results[i] = e.Item
	}
	tally.draws += n
	b.Cost = schedule.Cost(n)
	return b, nil
}
