package reconcile

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

type fakeEnricher struct {
	mu    sync.Mutex
	caps  listings.MarketCapIndex
	calls []listings.SymbolSet
}

func (f *fakeEnricher) Enrich(_ context.Context, set listings.SymbolSet) listings.MarketCapIndex {
	f.mu.Lock()
	f.calls = append(f.calls, set)
	f.mu.Unlock()
	out := listings.MarketCapIndex{}
	for s := range set {
		if v, ok := f.caps[s]; ok {
			out[s] = v
		}
	}
	return out
}

func nd(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// instrument with maxVol = notional, contractSize = 1 and a price of 1
func inst(base string, notional float64) listings.Instrument {
	return listings.Instrument{
		Symbol: base + "_USDT", BaseAsset: base, QuoteAsset: "USDT",
		MaxVolume: nd(notional), ContractSize: nd(1),
	}
}

func unitPrices(bases ...string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(bases))
	for _, b := range bases {
		out[b+"USDT"] = decimal.NewFromInt(1)
	}
	return out
}

func symbolsOf(es []listings.RankedEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Symbol
	}
	return out
}

func TestReconcile_Scenario_BtcEthDoge(t *testing.T) {
	enr := &fakeEnricher{caps: listings.MarketCapIndex{"BTC": 9e11, "ETH": 4e11}}
	eng := &Engine{Enricher: enr}

	res, err := eng.Reconcile(context.Background(), Input{
		Instruments: []listings.Instrument{inst("BTC", 5_000_000), inst("ETH", 3_000_000), inst("DOGE", 1_000)},
		Prices:      unitPrices("BTC", "ETH", "DOGE"),
		ComparisonA: listings.NewSymbolSet("btc"),
		AAvailable:  true,
		ComparisonB: listings.NewSymbolSet("BTC", "ETH", "DOGE"),
		BAvailable:  true,
	})
	require.NoError(t, err)

	require.Len(t, res.MissingFromA, 2)
	assert.Equal(t, "ETH", res.MissingFromA[0].Symbol)
	assert.Equal(t, 1, res.MissingFromA[0].Rank)
	require.NotNil(t, res.MissingFromA[0].MarketCap)
	assert.Equal(t, 4e11, *res.MissingFromA[0].MarketCap)
	assert.Equal(t, 3_000_000.0, res.MissingFromA[0].PrimaryMetric)

	assert.Equal(t, "DOGE", res.MissingFromA[1].Symbol)
	assert.Equal(t, 2, res.MissingFromA[1].Rank)
	assert.Nil(t, res.MissingFromA[1].MarketCap)

	assert.Empty(t, res.MissingFromB)
	assert.NotNil(t, res.MissingFromB)
	assert.Equal(t, []string{"BTC", "ETH", "DOGE"}, symbolsOf(res.FullReference))
	assert.Equal(t, listings.Counts{Reference: 3, ComparisonA: 2, ComparisonB: 0}, res.Counts())

	// one call for the reference set, one per non-empty difference
	require.Len(t, enr.calls, 2)
	assert.Equal(t, 3, enr.calls[0].Len())
	assert.Equal(t, listings.NewSymbolSet("ETH", "DOGE"), enr.calls[1])
}

func TestReconcile_DropsBlacklistedAndIncomplete(t *testing.T) {
	noSize := inst("NOSIZE", 10)
	noSize.ContractSize = decimal.NullDecimal{}
	negVol := inst("NEG", -5)

	prices := unitPrices("BTC", "LUNA", "NOSIZE", "NEG")
	prices["ZERO"+"USDT"] = decimal.Zero

	eng := &Engine{}
	res, err := eng.Reconcile(context.Background(), Input{
		Instruments: []listings.Instrument{
			inst("BTC", 10), inst("luna", 20), noSize, negVol,
			inst("ZERO", 30),    // price 0
			inst("NOPRICE", 40), // no ticker
		},
		Prices:     prices,
		Blacklist:  listings.NewSymbolSet("LUNA"),
		AAvailable: true, BAvailable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, symbolsOf(res.FullReference))

	n, dropped := eng.Notionals(Input{Instruments: []listings.Instrument{inst("BTC", 10), inst("ZERO", 1)}, Prices: prices})
	assert.Equal(t, map[string]float64{"BTC": 10}, n)
	assert.Equal(t, 1, dropped)
}

func TestReconcile_NotionalUsesAllThreeFactors(t *testing.T) {
	i := listings.Instrument{BaseAsset: "ETH", QuoteAsset: "USDT", MaxVolume: nd(250_000), ContractSize: nd(0.01)}
	n, _ := (&Engine{}).Notionals(Input{
		Instruments: []listings.Instrument{i},
		Prices:      map[string]decimal.Decimal{"ETHUSDT": decimal.RequireFromString("3200.5")},
	})
	assert.InDelta(t, 250_000*0.01*3200.5, n["ETH"], 1e-6)
}

func TestReconcile_EmptyReferenceIsError(t *testing.T) {
	eng := &Engine{}
	_, err := eng.Reconcile(context.Background(), Input{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoReferenceData))

	_, err = eng.Reconcile(context.Background(), Input{
		Instruments: []listings.Instrument{inst("BTC", 1)},
		Prices:      map[string]decimal.Decimal{},
	})
	var nre *NoReferenceDataError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, 1, nre.Received)
	assert.Equal(t, 1, nre.Dropped)
}

func TestReconcile_UnavailableComparisonIsEmptyNotEverything(t *testing.T) {
	enr := &fakeEnricher{}
	res, err := (&Engine{Enricher: enr}).Reconcile(context.Background(), Input{
		Instruments: []listings.Instrument{inst("BTC", 2), inst("ETH", 1)},
		Prices:      unitPrices("BTC", "ETH"),
		ComparisonA: listings.SymbolSet{},
		AAvailable:  false,
		ComparisonB: listings.NewSymbolSet("BTC"),
		BAvailable:  true,
	})
	require.NoError(t, err)
	assert.False(t, res.AAvailable)
	assert.Empty(t, res.MissingFromA)
	assert.Equal(t, []string{"ETH"}, symbolsOf(res.MissingFromB))
	assert.Len(t, enr.calls, 2)
}

func TestReconcile_DuplicateBaseKeepsLargest(t *testing.T) {
	ins := []listings.Instrument{inst("BTC", 5), inst("btc", 9), inst("BTC", 7)}
	for i := 0; i < 3; i++ {
		ins[0], ins[1], ins[2] = ins[1], ins[2], ins[0]
		n, _ := (&Engine{}).Notionals(Input{Instruments: ins, Prices: unitPrices("BTC")})
		assert.Equal(t, 9.0, n["BTC"])
	}
}

// random universe shared by the property tests
func universe(r *rand.Rand, n int) ([]listings.Instrument, map[string]decimal.Decimal, listings.MarketCapIndex, listings.SymbolSet) {
	ins := make([]listings.Instrument, 0, n)
	bases := make([]string, 0, n)
	caps := listings.MarketCapIndex{}
	comp := listings.SymbolSet{}
	for i := 0; i < n; i++ {
		b := "C" + string(rune('A'+i%26)) + string(rune('A'+(i/26)%26))
		bases = append(bases, b)
		// small value range forces ties
		ins = append(ins, inst(b, float64(1+r.IntN(20))*1000))
		if r.IntN(3) > 0 {
			caps[b] = float64(1+r.IntN(10)) * 1e9
		}
		if r.IntN(2) == 0 {
			comp.Add(b)
		}
	}
	return ins, unitPrices(bases...), caps, comp
}

func TestProperty_SetPartition(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 20; round++ {
		ins, prices, caps, comp := universe(r, 80)
		res, err := (&Engine{Enricher: &fakeEnricher{caps: caps}}).Reconcile(context.Background(), Input{
			Instruments: ins, Prices: prices, ComparisonA: comp, AAvailable: true, BAvailable: true,
		})
		require.NoError(t, err)

		seen := map[string]int{}
		for _, e := range res.MissingFromA {
			seen[e.Symbol]++
		}
		for _, e := range res.FullReference {
			if comp.Has(e.Symbol) {
				seen[e.Symbol]++
			}
		}
		require.Len(t, seen, len(res.FullReference))
		for _, e := range res.FullReference {
			assert.Equal(t, 1, seen[e.Symbol], e.Symbol)
		}
	}
}

func TestProperty_PermutationStable(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	ins, prices, caps, comp := universe(r, 120)
	in := Input{Instruments: ins, Prices: prices, ComparisonA: comp, ComparisonB: listings.SymbolSet{}, AAvailable: true, BAvailable: true}
	eng := &Engine{Enricher: &fakeEnricher{caps: caps}}

	want, err := eng.Reconcile(context.Background(), in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		shuffled := append([]listings.Instrument(nil), ins...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		in.Instruments = shuffled
		got, err := eng.Reconcile(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestProperty_TwoTierOrdering(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	ins, prices, caps, comp := universe(r, 100)
	res, err := (&Engine{Enricher: &fakeEnricher{caps: caps}}).Reconcile(context.Background(), Input{
		Instruments: ins, Prices: prices, ComparisonA: comp, AAvailable: true, BAvailable: true,
	})
	require.NoError(t, err)

	for _, list := range [][]listings.RankedEntry{res.FullReference, res.MissingFromA, res.MissingFromB} {
		sawUnknown := false
		for i, e := range list {
			assert.Equal(t, i+1, e.Rank)
			if !e.HasMarketCap() {
				sawUnknown = true
				if i > 0 && !list[i-1].HasMarketCap() {
					assert.GreaterOrEqual(t, list[i-1].PrimaryMetric, e.PrimaryMetric)
				}
				continue
			}
			assert.False(t, sawUnknown, "known market cap %s ranked below an unknown one", e.Symbol)
			if i > 0 {
				assert.GreaterOrEqual(t, *list[i-1].MarketCap, *e.MarketCap)
			}
		}
	}
}

func TestProperty_Idempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	ins, prices, caps, comp := universe(r, 60)
	in := Input{Instruments: ins, Prices: prices, ComparisonA: comp, ComparisonB: comp, AAvailable: true, BAvailable: true}
	eng := &Engine{Enricher: &fakeEnricher{caps: caps}}

	a, err := eng.Reconcile(context.Background(), in)
	require.NoError(t, err)
	b, err := eng.Reconcile(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRank_TieBreaks(t *testing.T) {
	got := Rank(
		listings.NewSymbolSet("B", "A", "C", "D", "E"),
		map[string]float64{"A": 10, "B": 10, "C": 50, "D": 1},
		listings.MarketCapIndex{"A": 5, "B": 5, "C": 1},
	)
	// A,B tie on cap and notional -> symbol; E has no notional entry -> 0
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, symbolsOf(got))
	assert.Equal(t, 0.0, got[4].PrimaryMetric)
	assert.Equal(t, 5, got[4].Rank)
}

func TestReconcile_ComparisonsDisabledBuildsReferenceOnly(t *testing.T) {
	enr := &fakeEnricher{}
	res, err := (&Engine{Enricher: enr}).Reconcile(context.Background(), Input{
		Instruments:         []listings.Instrument{inst("BTC", 2)},
		Prices:              unitPrices("BTC"),
		AAvailable:          true,
		BAvailable:          true,
		ComparisonsDisabled: true,
	})
	require.NoError(t, err)
	assert.Len(t, res.FullReference, 1)
	assert.Empty(t, res.MissingFromA)
	assert.False(t, res.AAvailable)
	assert.Len(t, enr.calls, 1)
}

func TestReconcile_EmptyComparisonIsUnavailable(t *testing.T) {
	enr := &fakeEnricher{}
	res, err := (&Engine{Enricher: enr}).Reconcile(context.Background(), Input{
		Instruments: []listings.Instrument{inst("BTC", 3), inst("ETH", 2), inst("DOGE", 1)},
		Prices:      unitPrices("BTC", "ETH", "DOGE"),
		ComparisonA: listings.SymbolSet{},
		AAvailable:  true,
		ComparisonB: nil,
		BAvailable:  true,
	})
	require.NoError(t, err)
	assert.False(t, res.AAvailable)
	assert.False(t, res.BAvailable)
	assert.NotNil(t, res.MissingFromA)
	assert.Empty(t, res.MissingFromA)
	assert.Empty(t, res.MissingFromB)
	assert.Len(t, res.FullReference, 3)
	// only the reference set is enriched
	assert.Len(t, enr.calls, 1)
}

func TestReconcile_SpotOnlyRankedByMarketCap(t *testing.T) {
	enr := &fakeEnricher{caps: listings.MarketCapIndex{"TON": 2e10, "XMR": 3e9}}
	res, err := (&Engine{Enricher: enr}).Reconcile(context.Background(), Input{
		Instruments:   []listings.Instrument{inst("BTC", 2)},
		Prices:        unitPrices("BTC"),
		ComparisonB:   listings.NewSymbolSet("BTC", "ETH"),
		BAvailable:    true,
		Spot:          listings.NewSymbolSet("BTC", "ETH", "XMR", "TON", "ZZZ", "SCAM"),
		SpotAvailable: true,
		Blacklist:     listings.NewSymbolSet("SCAM"),
	})
	require.NoError(t, err)
	assert.True(t, res.SpotAvailable)
	assert.Equal(t, []string{"TON", "XMR", "ZZZ"}, symbolsOf(res.SpotOnlyB))
	assert.Equal(t, 3, res.SpotOnlyB[2].Rank)
	assert.Nil(t, res.SpotOnlyB[2].MarketCap)
	assert.Equal(t, 3, res.Counts().SpotOnlyB)
}

func TestReconcile_SpotOnlyNeedsLinearListing(t *testing.T) {
	res, err := (&Engine{Enricher: &fakeEnricher{}}).Reconcile(context.Background(), Input{
		Instruments:   []listings.Instrument{inst("BTC", 2)},
		Prices:        unitPrices("BTC"),
		BAvailable:    false,
		Spot:          listings.NewSymbolSet("BTC", "XMR"),
		SpotAvailable: true,
	})
	require.NoError(t, err)
	assert.False(t, res.SpotAvailable)
	assert.Empty(t, res.SpotOnlyB)
}
