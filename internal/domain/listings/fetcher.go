package listings

import (
	"context"

	"github.com/shopspring/decimal"
)

// ReferenceSource is the exchange whose futures listing is the baseline.
type ReferenceSource interface {
	Name() string
	FetchContracts(ctx context.Context) ([]Instrument, error)
	FetchPrices(ctx context.Context) (map[string]decimal.Decimal, error)
}

// ComparisonSource returns the USDT-quoted, actively trading base assets of one exchange.
type ComparisonSource interface {
	Name() string
	FetchSymbols(ctx context.Context) (SymbolSet, error)
}

// SpotSource lists the spot base assets of the exchange behind comparison B.
type SpotSource interface {
	Name() string
	FetchSpotSymbols(ctx context.Context) (SymbolSet, error)
}

// Enricher never fails: batches that could not be fetched are simply absent.
type Enricher interface {
	Enrich(ctx context.Context, symbols SymbolSet) MarketCapIndex
}
