// types.go
package box

import (
	"github.com/xtding233/gacha-sim/internal/gacha"
	"github.com/xtding233/gacha-sim/internal/pricing"
)

// RawConfig is loaded from defaults.yaml or a box's box.yaml.
type RawConfig struct {
	Title     string          `yaml:"title,omitempty"`
	UnitPrice *float64        `yaml:"unit_price,omitempty"`
	Costs     map[int]float64 `yaml:"costs,omitempty"`
	Batches   []int           `yaml:"batches,omitempty"`
	Notes     string          `yaml:"notes,omitempty"`
}

// Box is a named reward set: rate table text, prices and allowed batch sizes.
type Box struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Retired   bool             `json:"retired"`
	ItemsText string           `json:"itemsText"`
	Schedule  pricing.Schedule `json:"schedule"`
	Batches   []int            `json:"batches"`
	Notes     string           `json:"notes,omitempty"`
}

// Table parses the box's rate text.
func (b Box) Table() gacha.Table {
	return gacha.ParseRateTable(b.ItemsText)
}

// DisplayTitle falls back to the ID when the box has no title.
func (b Box) DisplayTitle() string {
	if b.Title != "" {
		return b.Title
	}
	return b.ID
}

// Allows reports whether n is one of the box's batch sizes. A box without a
// batch list allows any positive count.
func (b Box) Allows(n int) bool {
	if n <= 0 {
		return false
	}
	if len(b.Batches) == 0 {
		return true
	}
	for _, x := range b.Batches {
		if x == n {
			return true
		}
	}
	return false
}
