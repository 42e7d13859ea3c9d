package snapshotjson

import (
	"time"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
)

// TimeLayout is the worker's wire format for last_update.
const TimeLayout = "2006-01-02 15:04:05 UTC"

type Entry struct {
	Rank              int     `json:"rank"`
	Symbol            string  `json:"symbol"`
	MaxPosition       float64 `json:"max_position"`
	MaxPositionPretty string  `json:"max_position_pretty"`
	// 0 when unknown
	MarketCap       float64 `json:"market_cap"`
	MarketCapPretty string  `json:"market_cap_pretty"`
}

type Stats struct {
	MexcCount    int      `json:"mexc_count"`
	BinanceCount int      `json:"binance_count"`
	BybitCount   int      `json:"bybit_count"`
	SpotCount    int      `json:"bybit_spot_count"`
	Unavailable  []string `json:"unavailable,omitempty"`
}

type Snapshot struct {
	MexcList    []Entry `json:"mexc_list"`
	BinanceList []Entry `json:"binance_list"`
	BybitList   []Entry `json:"bybit_list"`
	// bybit spot pairs without a linear contract
	BybitSpotList []Entry `json:"bybit_spot_list"`
	Stats         Stats   `json:"stats"`
	LastUpdate    *string `json:"last_update"`
	Version       uint64  `json:"version"`
	Source        string  `json:"source,omitempty"`
}

type List struct {
	Data       []Entry `json:"data"`
	LastUpdate *string `json:"last_update"`
}

func MapEntries(in []listings.RankedEntry) []Entry {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		pm := e.PrimaryMetric
		d := Entry{
			Rank:              e.Rank,
			Symbol:            e.Symbol,
			MaxPosition:       pm,
			MaxPositionPretty: Pretty(&pm),
			MarketCapPretty:   Pretty(e.MarketCap),
		}
		if e.MarketCap != nil {
			d.MarketCap = *e.MarketCap
		}
		out = append(out, d)
	}
	return out
}

func lastUpdate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(TimeLayout)
	return &s
}

func Map(s snapshot.Snapshot) Snapshot {
	return Snapshot{
		MexcList:      MapEntries(s.ReferenceList),
		BinanceList:   MapEntries(s.ComparisonAList),
		BybitList:     MapEntries(s.ComparisonBList),
		BybitSpotList: MapEntries(s.SpotOnlyList),
		Stats: Stats{
			MexcCount:    s.Stats.ReferenceCount,
			BinanceCount: s.Stats.ComparisonACount,
			BybitCount:   s.Stats.ComparisonBCount,
			SpotCount:    s.Stats.SpotOnlyCount,
			Unavailable:  s.Stats.Unavailable,
		},
		LastUpdate: lastUpdate(s.LastUpdated),
		Version:    s.Version,
		Source:     string(s.Source),
	}
}

// ListName is a scoped-read selector. Exchange names are accepted as aliases.
type ListName string

const (
	ListReference   ListName = "reference"
	ListComparisonA ListName = "comparison_a"
	ListComparisonB ListName = "comparison_b"
	ListBybitSpot   ListName = "bybit_spot"
)

func ParseListName(s string) (ListName, bool) {
	switch s {
	case "reference", "mexc":
		return ListReference, true
	case "comparison_a", "binance":
		return ListComparisonA, true
	case "comparison_b", "bybit":
		return ListComparisonB, true
	case "bybit_spot", "spot_only":
		return ListBybitSpot, true
	}
	return "", false
}

func MapList(s snapshot.Snapshot, name ListName) List {
	var src []listings.RankedEntry
	switch name {
	case ListReference:
		src = s.ReferenceList
	case ListComparisonA:
		src = s.ComparisonAList
	case ListComparisonB:
		src = s.ComparisonBList
	case ListBybitSpot:
		src = s.SpotOnlyList
	}
	return List{Data: MapEntries(src), LastUpdate: lastUpdate(s.LastUpdated)}
}
