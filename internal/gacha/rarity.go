package gacha

import "strings"

// Rarity is the band an item falls into based on its drop rate.
type Rarity string

const (
	RarityCommon   Rarity = "Common"
	RarityUncommon Rarity = "Uncommon"
	RarityRare     Rarity = "Rare"
	RarityJackpot  Rarity = "Jackpot"
)

// Band lower bounds, inclusive.
const (
	commonFloor   = 0.01
	uncommonFloor = 0.005
	rareFloor     = 0.0015
)

// RarityOf classifies a rate. Bands are checked from the most common down and
// the first lower bound the rate reaches wins.
func RarityOf(rate float64) Rarity {
	switch {
	case rate >= commonFloor:
		return RarityCommon
	case rate >= uncommonFloor:
		return RarityUncommon
	case rate >= rareFloor:
		return RarityRare
	default:
		return RarityJackpot
	}
}

// Rarities lists every band from rarest to most common.
func Rarities() []Rarity {
	return []Rarity{RarityJackpot, RarityRare, RarityUncommon, RarityCommon}
}

// Rank orders bands: Jackpot 0 < Rare 1 < Uncommon 2 < Common 3. Unknown values rank -1.
func (r Rarity) Rank() int {
	switch r {
	case RarityJackpot:
		return 0
	case RarityRare:
		return 1
	case RarityUncommon:
		return 2
	case RarityCommon:
		return 3
	default:
		return -1
	}
}

// ParseRarity matches a band name case-insensitively.
func ParseRarity(s string) (Rarity, bool) {
	for _, r := range Rarities() {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}
