package gacha

import (
	"math"
)

// validRate reports whether r can be a table entry's probability: finite and in (0, 1].
func validRate(r float64) bool {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return false
	}
	return r > 0 && r <= 1
}
