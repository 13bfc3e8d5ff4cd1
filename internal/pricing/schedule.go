package pricing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultUnitPrice is the per-draw price used when a batch size has no fixed price.
const DefaultUnitPrice = 1.5

// Schedule maps batch sizes to fixed prices.
type Schedule struct {
	Prices    map[int]float64 `yaml:"costs" json:"costs"`
	UnitPrice float64         `yaml:"unit_price" json:"unitPrice"`
}

// NewSchedule copies prices into a schedule using DefaultUnitPrice.
func NewSchedule(prices map[int]float64) Schedule {
	s := Schedule{Prices: make(map[int]float64, len(prices)), UnitPrice: DefaultUnitPrice}
	for k, v := range prices {
		s.Prices[k] = v
	}
	return s
}

// Unit returns the effective per-draw fallback price.
func (s Schedule) Unit() float64 {
	if s.UnitPrice <= 0 || math.IsNaN(s.UnitPrice) {
		return DefaultUnitPrice
	}
	return s.UnitPrice
}

// Cost prices a batch of n draws. An exact entry wins; a missing or zero
// entry falls back to Unit()*n.
func (s Schedule) Cost(n int) float64 {
	if n <= 0 {
		return 0
	}
	if p, ok := s.Prices[n]; ok && p != 0 {
		return p
	}
	return s.Unit() * float64(n)
}

// Sizes returns the batch sizes with a fixed price, ascending.
func (s Schedule) Sizes() []int {
	out := make([]int, 0, len(s.Prices))
	for k := range s.Prices {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Validate rejects non-positive batch sizes and negative or non-finite prices.
func (s Schedule) Validate() error {
	var errs []string
	for _, n := range s.Sizes() {
		p := s.Prices[n]
		if n <= 0 {
			errs = append(errs, fmt.Sprintf("costs[%d]: batch size must be >= 1", n))
		}
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, fmt.Sprintf("costs[%d]: price must be a finite number >= 0", n))
		}
	}
	if s.UnitPrice < 0 {
		errs = append(errs, "unit_price must be >= 0 (0 means default)")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid cost schedule: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseSchedule reads "<count>: <price>" lines. Lines that do not split into
// exactly two parts or do not parse are skipped.
func ParseSchedule(text string) Schedule {
	s := Schedule{Prices: map[int]float64{}, UnitPrice: DefaultUnitPrice}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 2 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		s.Prices[n] = p
	}
	return s
}

// ParseBatches reads one batch size per line, skipping blanks and junk.
func ParseBatches(text string) []int {
	var out []int
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}
