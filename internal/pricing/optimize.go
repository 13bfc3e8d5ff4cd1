package pricing

import (
	"math"
	"sort"
)

// Plan summarizes a cheapest way to buy at least a number of draws.
type Plan struct {
	Purchases  []Purchase `json:"purchases"`
	TotalDraws int        `json:"totalDraws"`
	TotalCost  float64    `json:"totalCost"`
}

// Purchase is one line of a plan: Qty batches of Batch draws each.
type Purchase struct {
	Batch     int     `json:"batch"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPrice"` // price of one batch
	Subtotal  float64 `json:"subtotal"`
}

// CheapestPlan finds the minimum-cost multiset of allowed batch sizes that
// yields at least targetDraws draws. Batch sizes may repeat. When batches is
// empty the schedule's priced sizes are used, plus single draws.
func CheapestPlan(s Schedule, batches []int, targetDraws int) Plan {
	if targetDraws <= 0 {
		return Plan{}
	}
	sizes := allowedSizes(s, batches)
	if len(sizes) == 0 {
		return Plan{}
	}

	maxBatch := sizes[len(sizes)-1]
	// allow overshoot by at most one batch
	limit := targetDraws + maxBatch

	inf := math.Inf(1)
	dp := make([]float64, limit+1) // min cost to reach exactly t draws
	pick := make([]int, limit+1)   // batch size chosen to reach t
	prev := make([]int, limit+1)
	for t := range dp {
		dp[t] = inf
		pick[t] = -1
		prev[t] = -1
	}
	dp[0] = 0

	for t := 0; t <= limit; t++ {
		if math.IsInf(dp[t], 1) {
			continue
		}
		for _, b := range sizes {
			nt := t + b
			if nt > limit {
				continue
			}
			cost := dp[t] + s.Cost(b)
			if cost < dp[nt] {
				dp[nt] = cost
				pick[nt] = b
				prev[nt] = t
			}
		}
	}

	// best t >= target; ties go to fewer draws
	bestT := -1
	for t := targetDraws; t <= limit; t++ {
		if math.IsInf(dp[t], 1) {
			continue
		}
		if bestT == -1 || dp[t] < dp[bestT] {
			bestT = t
		}
	}
	if bestT == -1 {
		return Plan{}
	}

	counts := map[int]int{}
	for t := bestT; t > 0 && pick[t] != -1; t = prev[t] {
		counts[pick[t]]++
	}

	var plan Plan
	for b, qty := range counts {
		unit := s.Cost(b)
		plan.Purchases = append(plan.Purchases, Purchase{
			Batch:     b,
			Qty:       qty,
			UnitPrice: unit,
			Subtotal:  unit * float64(qty),
		})
		plan.TotalDraws += b * qty
		plan.TotalCost += unit * float64(qty)
	}
	sort.Slice(plan.Purchases, func(i, j int) bool {
		return plan.Purchases[i].Batch > plan.Purchases[j].Batch
	})
	return plan
}

func allowedSizes(s Schedule, batches []int) []int {
	seen := map[int]bool{}
	var out []int
	add := func(n int) {
		if n > 0 && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(batches) > 0 {
		for _, b := range batches {
			add(b)
		}
	} else {
		add(1)
		for _, n := range s.Sizes() {
			add(n)
		}
	}
	sort.Ints(out)
	return out
}
