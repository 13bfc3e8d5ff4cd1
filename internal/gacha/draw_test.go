package gacha

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-sim/internal/pricing"
)

var scenarioTable = Table{{"Alpha", 0.10}, {"Beta", 0.05}, {"Gamma", 0.01}}

func TestDrawSequenceScenario(t *testing.T) {
	sim := NewSimulator(NewSequenceRNG(0.03, 0.12, 0.50))
	tally := NewTally()

	b, err := sim.Draw(scenarioTable, 3, tally, pricing.NewSchedule(nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta", ""}, b.Results)
	assert.Equal(t, 3, b.Draws)
	assert.Equal(t, 1, b.Misses)
	assert.InDelta(t, 4.5, b.Cost, 1e-9)

	a, ok := tally.Get("Alpha")
	require.True(t, ok)
	assert.Equal(t, Award{Count: 1, Rarity: RarityCommon}, a)
	_, ok = tally.Get("Gamma")
	assert.False(t, ok)
	assert.Equal(t, 3, tally.TotalDraws())
	assert.Equal(t, 1, tally.Misses())
}

func TestDrawRejectsBadCount(t *testing.T) {
	sim := NewSimulator(NewSeededRNG(1))
	tally := NewTally()
	for _, n := range []int{0, -3} {
		_, err := sim.Draw(scenarioTable, n, tally, pricing.NewSchedule(nil))
		if !errors.Is(err, ErrInvalidDrawCount) {
			t.Fatalf("n=%d: want ErrInvalidDrawCount, got %v", n, err)
		}
	}
	assert.Equal(t, 0, tally.TotalDraws(), "rejected batches must not touch the tally")

	_, err := sim.Draw(scenarioTable, 1, nil, pricing.NewSchedule(nil))
	assert.Error(t, err)
}

func TestDrawTallyConservation(t *testing.T) {
	sim := NewSimulator(NewSeededRNG(42))
	tally := NewTally()
	total := 0
	for _, n := range []int{1, 11, 45, 100, 7} {
		b, err := sim.Draw(scenarioTable, n, tally, pricing.NewSchedule(nil))
		require.NoError(t, err)
		hits := 0
		for _, r := range b.Results {
			if r != "" {
				hits++
			}
		}
		assert.Equal(t, n, hits+b.Misses)
		total += n
	}
	assert.Equal(t, total, tally.TotalDraws())
	assert.Equal(t, total, tally.Count()+tally.Misses())
}

func TestDrawEmptyTableAlwaysMisses(t *testing.T) {
	sim := NewSimulator(NewSeededRNG(3))
	tally := NewTally()
	b, err := sim.Draw(nil, 25, tally, pricing.NewSchedule(nil))
	require.NoError(t, err)
	assert.Equal(t, 25, b.Misses)
	assert.Equal(t, 0, tally.Len())
}

func TestDrawFrequencyApprox(t *testing.T) {
	const n = 200000
	sim := NewSimulator(NewSeededRNG(99))
	tally := NewTally()
	_, err := sim.Draw(scenarioTable, n, tally, pricing.NewSchedule(nil))
	require.NoError(t, err)

	for _, e := range scenarioTable {
		a, _ := tally.Get(e.Item)
		freq := float64(a.Count) / n
		assert.InDelta(t, e.Rate, freq, 0.005, "item %s", e.Item)
	}
	assert.InDelta(t, 0.84, float64(tally.Misses())/n, 0.005)
}

func TestDrawCostUsesSchedule(t *testing.T) {
	sched := pricing.NewSchedule(map[int]float64{1: 1.5, 11: 15, 45: 57.5})
	sim := NewSimulator(NewSeededRNG(5))
	tally := NewTally()

	cases := map[int]float64{1: 1.5, 11: 15, 45: 57.5, 23: 34.5}
	for n, want := range cases {
		b, err := sim.Draw(scenarioTable, n, tally, sched)
		require.NoError(t, err)
		assert.InDelta(t, want, b.Cost, 1e-9, "n=%d", n)
	}
}

func TestTallyKeepsFirstRarity(t *testing.T) {
	tally := NewTally()
	tally.record(Entry{"Beta", 0.05})
	tally.record(Entry{"Beta", 0.001})
	a, _ := tally.Get("Beta")
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, RarityCommon, a.Rarity)

	awards := tally.Awards()
	awards["Beta"] = Award{Count: 99}
	a, _ = tally.Get("Beta")
	assert.Equal(t, 2, a.Count, "Awards must return a copy")

	tally.Reset()
	assert.Equal(t, 0, tally.Len())
	assert.Equal(t, 0, tally.TotalDraws())
}

func TestTallyZeroValue(t *testing.T) {
	var tally Tally
	tally.record(Entry{"Alpha", 0.1})
	assert.Equal(t, 1, tally.Count())
}
