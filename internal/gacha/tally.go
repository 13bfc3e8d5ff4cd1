package gacha

// Award is what a tally remembers about one item.
// Rarity is fixed at the first award and is not recomputed if the table changes later.
type Award struct {
	Count  int    `json:"count"`
	Rarity Rarity `json:"rarity"`
}

// Tally accumulates awards for one session. The zero value is ready to use.
// It is not safe for concurrent use; the owner serializes batches.
type Tally struct {
	awards map[string]Award
	draws  int
	misses int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{awards: make(map[string]Award)}
}

func (t *Tally) record(e Entry) {
	if t.awards == nil {
		t.awards = make(map[string]Award)
	}
	a, ok := t.awards[e.Item]
	if !ok {
		a = Award{Rarity: RarityOf(e.Rate)}
	}
	a.Count++
	t.awards[e.Item] = a
}

// Get returns the award for item, if any.
func (t *Tally) Get(item string) (Award, bool) {
	a, ok := t.awards[item]
	return a, ok
}

// Awards returns a copy of every award keyed by item name.
func (t *Tally) Awards() map[string]Award {
	out := make(map[string]Award, len(t.awards))
	for k, v := range t.awards {
		out[k] = v
	}
	return out
}

// Len is the number of distinct items awarded.
func (t *Tally) Len() int { return len(t.awards) }

// Count is the sum of all award counts.
func (t *Tally) Count() int {
	n := 0
	for _, a := range t.awards {
		n += a.Count
	}
	return n
}

// TotalDraws counts every draw made, hits and misses alike.
func (t *Tally) TotalDraws() int { return t.draws }

// Misses counts draws that landed past the table's total mass.
func (t *Tally) Misses() int { return t.misses }

// Reset empties the tally.
func (t *Tally) Reset() {
	t.awards = make(map[string]Award)
	t.draws = 0
	t.misses = 0
}
