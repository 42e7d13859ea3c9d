package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/pkg/symbols"
)

type Input struct {
	Instruments []listings.Instrument
	// spot ticker ("BTCUSDT") -> price
	Prices map[string]decimal.Decimal

	ComparisonA listings.SymbolSet
	ComparisonB listings.SymbolSet
	// false: the collector failed this cycle, its difference list stays empty.
	// An empty set counts as failed too.
	AAvailable bool
	BAvailable bool
	// spot assets of the comparison B exchange; needs ComparisonB as well
	Spot          listings.SymbolSet
	SpotAvailable bool
	// comparisons are delivered by push; only the reference list is built
	ComparisonsDisabled bool

	Blacklist listings.SymbolSet
}

type Engine struct {
	Enricher listings.Enricher
	Logger   *slog.Logger
}

func (e *Engine) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) enrich(ctx context.Context, set listings.SymbolSet) listings.MarketCapIndex {
	if e.Enricher == nil || set.Len() == 0 {
		return listings.MarketCapIndex{}
	}
	return e.Enricher.Enrich(ctx, set)
}

// Reconcile builds the ranked reference listing and the per-comparison
// difference lists. The only error is *NoReferenceDataError.
func (e *Engine) Reconcile(ctx context.Context, in Input) (listings.Result, error) {
	notional, dropped := e.Notionals(in)
	if len(notional) == 0 {
		return listings.Result{}, &NoReferenceDataError{Received: len(in.Instruments), Dropped: dropped}
	}

	ref := make(listings.SymbolSet, len(notional))
	for sym := range notional {
		ref[sym] = struct{}{}
	}

	res := listings.Result{
		FullReference: Rank(ref, notional, e.enrich(ctx, ref)),
		MissingFromA:  []listings.RankedEntry{},
		MissingFromB:  []listings.RankedEntry{},
		SpotOnlyB:     []listings.RankedEntry{},
		AAvailable:    in.AAvailable && in.ComparisonA.Len() > 0,
		BAvailable:    in.BAvailable && in.ComparisonB.Len() > 0,
		SpotAvailable: in.SpotAvailable && in.Spot.Len() > 0,
	}

	if in.ComparisonsDisabled {
		res.AAvailable, res.BAvailable, res.SpotAvailable = false, false, false
		return res, nil
	}
	if res.AAvailable {
		res.MissingFromA = e.missing(ctx, ref, in.ComparisonA, notional)
	} else {
		e.log().Warn("comparison A unavailable, difference list left empty")
	}
	if res.BAvailable {
		res.MissingFromB = e.missing(ctx, ref, in.ComparisonB, notional)
	} else {
		e.log().Warn("comparison B unavailable, difference list left empty")
	}
	if res.SpotAvailable && res.BAvailable {
		res.SpotOnlyB = e.SpotOnly(ctx, in.Spot, in.ComparisonB, in.Blacklist)
	} else {
		res.SpotAvailable = false
	}

	e.log().Debug("reconciled",
		"reference", len(res.FullReference), "dropped", dropped,
		"missing_a", len(res.MissingFromA), "missing_b", len(res.MissingFromB))
	return res, nil
}

func (e *Engine) missing(ctx context.Context, ref, comp listings.SymbolSet, notional map[string]float64) []listings.RankedEntry {
	if comp.Len() == 0 {
		return []listings.RankedEntry{}
	}
	diff := ref.Minus(comp)
	return Rank(diff, notional, e.enrich(ctx, diff))
}

// SpotOnly ranks the spot assets that have no linear contract. There is no
// notional for them, so the order is market cap first, then symbol.
func (e *Engine) SpotOnly(ctx context.Context, spot, linear, blacklist listings.SymbolSet) []listings.RankedEntry {
	if spot.Len() == 0 || linear.Len() == 0 {
		return []listings.RankedEntry{}
	}
	diff := listings.SymbolSet{}
	for sym := range spot.Minus(linear) {
		if !blacklist.Has(sym) {
			diff[sym] = struct{}{}
		}
	}
	return Rank(diff, nil, e.enrich(ctx, diff))
}

// Notionals filters the reference instruments and returns base -> max
// position notional in USD, plus how many instruments were dropped. When a
// base shows up more than once the largest notional is kept.
func (e *Engine) Notionals(in Input) (map[string]float64, int) {
	out := make(map[string]float64, len(in.Instruments))
	dropped := 0
	for _, ins := range in.Instruments {
		base := listings.Canonical(ins.BaseAsset)
		if base == "" || in.Blacklist.Has(base) {
			dropped++
			continue
		}
		n, ok := notionalOf(ins, base, in.Prices)
		if !ok {
			dropped++
			continue
		}
		if prev, dup := out[base]; dup {
			e.log().Debug("duplicate reference base", "base", base, "kept", max(prev, n))
			if n <= prev {
				continue
			}
		}
		out[base] = n
	}
	return out, dropped
}

func notionalOf(ins listings.Instrument, base string, prices map[string]decimal.Decimal) (float64, bool) {
	if !ins.MaxVolume.Valid || !ins.ContractSize.Valid {
		return 0, false
	}
	if ins.MaxVolume.Decimal.IsNegative() || ins.ContractSize.Decimal.IsNegative() {
		return 0, false
	}
	quote := strings.ToUpper(ins.QuoteAsset)
	if quote == "" {
		quote = "USDT"
	}
	price, ok := prices[symbols.Join(base, quote)]
	if !ok || !price.IsPositive() {
		return 0, false
	}
	f, _ := ins.MaxVolume.Decimal.Mul(ins.ContractSize.Decimal).Mul(price).Float64()
	return f, true
}
