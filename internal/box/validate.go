package box

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidateRaw checks semantic constraints of a RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	if cfg.UnitPrice != nil {
		if p := *cfg.UnitPrice; p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, "unit_price must be a finite number >= 0")
		}
	}

	keys := make([]int, 0, len(cfg.Costs))
	for k := range cfg.Costs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if k <= 0 {
			errs = append(errs, fmt.Sprintf("costs[%d]: batch size must be >= 1", k))
		}
		if p := cfg.Costs[k]; p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, fmt.Sprintf("costs[%d] must be a finite number >= 0", k))
		}
	}

	for i, b := range cfg.Batches {
		if b <= 0 {
			errs = append(errs, fmt.Sprintf("batches[%d] must be >= 1", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
