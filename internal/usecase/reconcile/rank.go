package reconcile

import (
	"sort"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

// Rank orders symbols in two tiers: every symbol with a known market cap
// (market cap desc) ahead of every symbol without one (notional desc).
// Ranks are dense and 1-based over the concatenation. Symbols missing from
// notional get 0. The output depends only on the inputs' contents.
func Rank(set listings.SymbolSet, notional map[string]float64, caps listings.MarketCapIndex) []listings.RankedEntry {
	type row struct {
		sym      string
		notional float64
		mc       float64
		known    bool
	}
	known := make([]row, 0, set.Len())
	unknown := make([]row, 0, set.Len())
	for sym := range set {
		r := row{sym: sym, notional: notional[sym]}
		r.mc, r.known = caps.Lookup(sym)
		if r.known {
			known = append(known, r)
		} else {
			unknown = append(unknown, r)
		}
	}

	sort.Slice(known, func(i, j int) bool {
		a, b := known[i], known[j]
		if a.mc != b.mc {
			return a.mc > b.mc
		}
		if a.notional != b.notional {
			return a.notional > b.notional
		}
		return a.sym < b.sym
	})
	sort.Slice(unknown, func(i, j int) bool {
		a, b := unknown[i], unknown[j]
		if a.notional != b.notional {
			return a.notional > b.notional
		}
		return a.sym < b.sym
	})

	out := make([]listings.RankedEntry, 0, len(known)+len(unknown))
	for _, r := range known {
		mc := r.mc
		out = append(out, listings.RankedEntry{Rank: len(out) + 1, Symbol: r.sym, PrimaryMetric: r.notional, MarketCap: &mc})
	}
	for _, r := range unknown {
		out = append(out, listings.RankedEntry{Rank: len(out) + 1, Symbol: r.sym, PrimaryMetric: r.notional})
	}
	return out
}
