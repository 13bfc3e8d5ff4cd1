package gacha

import (
	"errors"
	"math"
	"sort"

	"github.com/xtding233/gacha-sim/internal/pricing"
)

// TrialGoal selects what the simulation measures per trial.
type TrialGoal string

const (
	// Draws until the named item first appears.
	GoalFirstItem TrialGoal = "first_item"
	// Draws until any item of the given rarity appears.
	GoalFirstRarity TrialGoal = "first_rarity"
	// Given a fixed budget of draws, count how many targets are hit.
	GoalFixedBudget TrialGoal = "fixed_budget"
)

// DefaultMaxDraws caps a single open-ended trial.
const DefaultMaxDraws = 100000

var (
	ErrUnreachableTarget = errors.New("target can never be drawn from this table")
	ErrUnknownGoal       = errors.New("unknown trial goal")
)

// SimParams describes one estimation run.
type SimParams struct {
	Table    Table
	Target   string // item name; takes precedence over Rarity
	Rarity   Rarity
	Schedule pricing.Schedule

	// Draws are bought in batches of this size; <=0 means 1.
	BatchSize int
	// Budget for GoalFixedBudget, in draws.
	NumDraws int
	// Cap for open-ended goals; <=0 means DefaultMaxDraws.
	MaxDraws int
}

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []float64 `json:"-"`
}

// Result pairs the per-trial metric with what the trial cost.
type Result struct {
	Goal     TrialGoal `json:"goal"`
	Trials   int       `json:"trials"`
	Draws    Stats     `json:"draws"` // draws until target, or hits within budget
	Cost     Stats     `json:"cost"`
	Censored int       `json:"censored"` // trials that hit MaxDraws first
}

// calcStats computes mean/variance/percentiles for samples.
func calcStats(xs []float64) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := v - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return cp[0]
		}
		if p >= 1 {
			return cp[n-1]
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return cp[i]
		}
		return cp[i]*(1-f) + cp[i+1]*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

func (p SimParams) matches(e Entry) bool {
	if p.Target != "" {
		return e.Item == p.Target
	}
	return RarityOf(e.Rate) == p.Rarity
}

// reachable reports whether any drawable entry satisfies the target.
func (p SimParams) reachable() bool {
	var cum float64
	for _, e := range p.Table {
		if cum < 1 && p.matches(e) {
			return true
		}
		cum += e.Rate
	}
	return false
}

func (p SimParams) batchSize() int {
	if p.BatchSize <= 0 {
		return 1
	}
	return p.BatchSize
}

func (p SimParams) maxDraws() int {
	if p.MaxDraws <= 0 {
		return DefaultMaxDraws
	}
	return p.MaxDraws
}

// simulateOne returns the metric, spend and whether the trial was cut off.
func simulateOne(p SimParams, cdf CDF, goal TrialGoal, rng RandomSource) (float64, float64, bool) {
	bs := p.batchSize()
	switch goal {
	case GoalFirstItem, GoalFirstRarity:
		draws, spent := 0, 0.0
		limit := p.maxDraws()
		for draws < limit {
			spent += p.Schedule.Cost(bs)
			hit := false
			for i := 0; i < bs; i++ {
				// the whole batch is paid for, but the metric stops at the first hit
				if hit {
					rng.Float64()
					continue
				}
				draws++
				if e, ok := cdf.Pick(rng.Float64()); ok && p.matches(e) {
					hit = true
				}
			}
			if hit {
				return float64(draws), spent, false
			}
		}
		return float64(draws), spent, true

	case GoalFixedBudget:
		hits, spent := 0, 0.0
		for left := p.NumDraws; left > 0; left -= bs {
			n := bs
			if left < n {
				n = left
			}
			spent += p.Schedule.Cost(n)
			for i := 0; i < n; i++ {
				if e, ok := cdf.Pick(rng.Float64()); ok && p.matches(e) {
					hits++
				}
			}
		}
		return float64(hits), spent, false
	}
	return 0, 0, false
}

// RunMonteCarlo repeats trials and returns summary stats.
// goal determines what metric is recorded per trial.
func RunMonteCarlo(p SimParams, goal TrialGoal, trials int, rng RandomSource) (Result, error) {
	switch goal {
	case GoalFirstItem, GoalFirstRarity, GoalFixedBudget:
	default:
		return Result{}, ErrUnknownGoal
	}
	if goal == GoalFirstRarity {
		p.Target = ""
	}
	if !p.reachable() {
		return Result{}, ErrUnreachableTarget
	}
	if trials <= 0 {
		return Result{Goal: goal}, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	cdf := p.Table.CDF()
	draws := make([]float64, trials)
	costs := make([]float64, trials)
	res := Result{Goal: goal, Trials: trials}
	for i := 0; i < trials; i++ {
		d, c, cut := simulateOne(p, cdf, goal, rng)
		draws[i], costs[i] = d, c
		if cut {
			res.Censored++
		}
	}
	res.Draws = calcStats(draws)
	res.Cost = calcStats(costs)
	return res, nil
}
