package gacha

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entry is one row of a rate table.
type Entry struct {
	Item string  `json:"item"`
	Rate float64 `json:"rate"`
}

// Table is an ordered list of entries. Order matters: draws walk it front to
// back and the first entry whose running sum passes the roll wins.
type Table []Entry

// ParseRateTable turns pasted rate text into a Table.
//
// Each line holds a rate and an item name separated by a tab or by whitespace
// directly after the '%' sign, e.g. "2.30%    Item Name". Blank lines, lines
// without a separator, rates that do not parse and rates outside (0, 100%] are
// dropped. It never fails.
func ParseRateTable(text string) Table {
	var table Table
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, ok := parseLine(line)
		if !ok {
			continue
		}
		table = append(table, e)
	}
	return table
}

func parseLine(line string) (Entry, bool) {
	fields := splitFields(line)
	if len(fields) < 2 {
		return Entry{}, false
	}
	rateStr := strings.TrimSpace(strings.Replace(fields[0], "%", "", 1))
	pct, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return Entry{}, false
	}
	rate := pct / 100
	if !validRate(rate) {
		return Entry{}, false
	}
	item := strings.TrimSpace(fields[1])
	if item == "" {
		return Entry{}, false
	}
	return Entry{Item: item, Rate: rate}, true
}

// splitFields cuts a line at every tab and at every whitespace run that
// directly follows a '%'. Only the first two fields are ever used.
func splitFields(line string) []string {
	var fields []string
	start := 0
	prev := rune(0)
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		switch {
		case r == '\t':
			fields = append(fields, line[start:i])
			i += size
			start = i
			prev = r
			continue
		case prev == '%' && unicode.IsSpace(r):
			fields = append(fields, line[start:i])
			j := i
			for j < len(line) {
				rr, sz := utf8.DecodeRuneInString(line[j:])
				if !unicode.IsSpace(rr) {
					break
				}
				j += sz
			}
			i = j
			start = j
			prev = ' '
			continue
		}
		prev = r
		i += size
	}
	return append(fields, line[start:])
}

// Mass is the sum of all rates. It may be below 1 (misses are possible) or
// above 1 (trailing entries become unreachable).
func (t Table) Mass() float64 {
	var sum float64
	for _, e := range t {
		sum += e.Rate
	}
	return sum
}

// Unreachable returns the entries that can never be drawn because the rates
// before them already cover [0, 1).
func (t Table) Unreachable() []Entry {
	var out []Entry
	var cum float64
	for _, e := range t {
		if cum >= 1 {
			out = append(out, e)
		}
		cum += e.Rate
	}
	return out
}

// Pick resolves one roll u in [0, 1) against the table. ok is false when u
// falls past the last cumulative threshold.
func (t Table) Pick(u float64) (Entry, bool) {
	var cum float64
	for _, e := range t {
		cum += e.Rate
		if u < cum {
			return e, true
		}
	}
	return Entry{}, false
}

// Lookup returns the first entry with the given item name.
func (t Table) Lookup(item string) (Entry, bool) {
	for _, e := range t {
		if e.Item == item {
			return e, true
		}
	}
	return Entry{}, false
}

// CDF is a table with precomputed prefix sums for binary-search picks.
type CDF struct {
	entries []Entry
	prefix  []float64
}

// CDF precomputes prefix sums in table order. Sums are accumulated the same
// way Pick does, so both agree on every roll.
func (t Table) CDF() CDF {
	c := CDF{entries: append([]Entry(nil), t...), prefix: make([]float64, len(t))}
	var cum float64
	for i, e := range t {
		cum += e.Rate
		c.prefix[i] = cum
	}
	return c
}

// Pick finds the first entry whose cumulative sum exceeds u.
func (c CDF) Pick(u float64) (Entry, bool) {
	i := sort.Search(len(c.prefix), func(i int) bool { return u < c.prefix[i] })
	if i == len(c.prefix) {
		return Entry{}, false
	}
	return c.entries[i], true
}
