package listings

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Instrument is one exchange listing normalised to a uniform shape.
// MaxVolume and ContractSize are only filled for reference-exchange contracts.
type Instrument struct {
	Symbol       string
	BaseAsset    string
	QuoteAsset   string
	MaxVolume    decimal.NullDecimal
	ContractSize decimal.NullDecimal
}

// Canonical is the join key used across exchanges.
func Canonical(base string) string { return strings.ToUpper(strings.TrimSpace(base)) }

// SymbolSet — deduplicated uppercase base assets of one exchange/category.
type SymbolSet map[string]struct{}

func NewSymbolSet(bases ...string) SymbolSet {
	s := make(SymbolSet, len(bases))
	for _, b := range bases {
		s.Add(b)
	}
	return s
}

func (s SymbolSet) Add(base string) {
	if k := Canonical(base); k != "" {
		s[k] = struct{}{}
	}
}

func (s SymbolSet) Has(base string) bool {
	_, ok := s[Canonical(base)]
	return ok
}

func (s SymbolSet) Len() int { return len(s) }

// Minus returns s \ other.
func (s SymbolSet) Minus(other SymbolSet) SymbolSet {
	out := make(SymbolSet, len(s))
	for k := range s {
		if _, ok := other[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func (s SymbolSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarketCapIndex maps uppercase base asset -> market cap in USD.
// A missing key means "no data", never zero.
type MarketCapIndex map[string]float64

func (m MarketCapIndex) Lookup(base string) (float64, bool) {
	v, ok := m[Canonical(base)]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// RankedEntry is one row of a reconciled list. MarketCap == nil → unknown.
type RankedEntry struct {
	Rank          int
	Symbol        string
	PrimaryMetric float64
	MarketCap     *float64
}

func (e RankedEntry) HasMarketCap() bool { return e.MarketCap != nil }

// Result of one reconciliation.
type Result struct {
	FullReference []RankedEntry
	MissingFromA  []RankedEntry
	MissingFromB  []RankedEntry
	// spot assets of comparison B without a linear contract, ranked by market cap
	SpotOnlyB []RankedEntry

	AAvailable    bool
	BAvailable    bool
	SpotAvailable bool
}

type Counts struct {
	Reference   int
	ComparisonA int
	ComparisonB int
	SpotOnlyB   int
}

func (r Result) Counts() Counts {
	return Counts{
		Reference:   len(r.FullReference),
		ComparisonA: len(r.MissingFromA),
		ComparisonB: len(r.MissingFromB),
		SpotOnlyB:   len(r.SpotOnlyB),
	}
}

// CloneEntries copies the slice and the market-cap pointers behind it.
func CloneEntries(in []RankedEntry) []RankedEntry {
	if in == nil {
		return nil
	}
	out := make([]RankedEntry, len(in))
	for i, e := range in {
		if e.MarketCap != nil {
			mc := *e.MarketCap
			e.MarketCap = &mc
		}
		out[i] = e
	}
	return out
}
