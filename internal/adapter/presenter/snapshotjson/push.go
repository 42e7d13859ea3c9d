package snapshotjson

import (
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/ingest"
)

// PushEntry is lenient on input: pretty fields are ignored, market_cap 0/null
// means unknown.
type PushEntry struct {
	Rank        int      `json:"rank"`
	Symbol      string   `json:"symbol"`
	MaxPosition float64  `json:"max_position"`
	MarketCap   *float64 `json:"market_cap"`
}

type PushStats struct {
	MexcCount    *int `json:"mexc_count"`
	BinanceCount *int `json:"binance_count"`
	BybitCount   *int `json:"bybit_count"`
	SpotCount    *int `json:"bybit_spot_count"`

	ReferenceCount   *int `json:"referenceCount"`
	ComparisonACount *int `json:"comparisonACount"`
	ComparisonBCount *int `json:"comparisonBCount"`
}

// PushRequest is the body of POST /api/worker/update. Each list is accepted
// under its exchange name or its role name; JSON null counts as absent.
type PushRequest struct {
	Secret string `json:"secret,omitempty"`

	MexcList      *[]PushEntry `json:"mexc_list,omitempty"`
	ReferenceList *[]PushEntry `json:"referenceList,omitempty"`

	BinanceList     *[]PushEntry `json:"binance_list,omitempty"`
	ComparisonAList *[]PushEntry `json:"comparisonAList,omitempty"`

	BybitList       *[]PushEntry `json:"bybit_list,omitempty"`
	ComparisonBList *[]PushEntry `json:"comparisonBList,omitempty"`

	BybitSpotList *[]PushEntry `json:"bybit_spot_list,omitempty"`

	Stats      *PushStats `json:"stats,omitempty"`
	LastUpdate *string    `json:"last_update,omitempty"`
}

func (r PushRequest) ToPayload() (ingest.Payload, error) {
	var p ingest.Payload
	var err error
	if p.ReferenceList, err = pick("mexc_list", r.MexcList, r.ReferenceList); err != nil {
		return p, err
	}
	if p.ComparisonAList, err = pick("binance_list", r.BinanceList, r.ComparisonAList); err != nil {
		return p, err
	}
	if p.ComparisonBList, err = pick("bybit_list", r.BybitList, r.ComparisonBList); err != nil {
		return p, err
	}
	if p.SpotOnlyList, err = pick("bybit_spot_list", r.BybitSpotList, nil); err != nil {
		return p, err
	}
	if r.Stats != nil {
		p.Stats = &snapshot.StatsPatch{
			ReferenceCount:   first(r.Stats.MexcCount, r.Stats.ReferenceCount),
			ComparisonACount: first(r.Stats.BinanceCount, r.Stats.ComparisonACount),
			ComparisonBCount: first(r.Stats.BybitCount, r.Stats.ComparisonBCount),
			SpotOnlyCount:    r.Stats.SpotCount,
		}
	}
	p.LastUpdate = r.LastUpdate
	return p, nil
}

func pick(field string, a, b *[]PushEntry) (*[]listings.RankedEntry, error) {
	if a != nil && b != nil {
		return nil, &ingest.ValidationError{Field: field, Reason: "given under two names"}
	}
	src := a
	if src == nil {
		src = b
	}
	if src == nil {
		return nil, nil
	}
	out := make([]listings.RankedEntry, 0, len(*src))
	for _, e := range *src {
		re := listings.RankedEntry{Rank: e.Rank, Symbol: e.Symbol, PrimaryMetric: e.MaxPosition}
		if e.MarketCap != nil && *e.MarketCap > 0 {
			mc := *e.MarketCap
			re.MarketCap = &mc
		}
		out = append(out, re)
	}
	return &out, nil
}

func first(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

// NewPushRequest builds the worker's outgoing body from a reconciliation
// result. Unavailable comparison lists are left out so the dashboard keeps
// what it has.
func NewPushRequest(secret string, res listings.Result, at string) PushRequest {
	toPush := func(in []listings.RankedEntry) *[]PushEntry {
		out := make([]PushEntry, 0, len(in))
		for _, e := range in {
			pe := PushEntry{Rank: e.Rank, Symbol: e.Symbol, MaxPosition: e.PrimaryMetric}
			if e.MarketCap != nil {
				mc := *e.MarketCap
				pe.MarketCap = &mc
			}
			out = append(out, pe)
		}
		return &out
	}
	c := res.Counts()
	req := PushRequest{
		Secret:     secret,
		MexcList:   toPush(res.FullReference),
		Stats:      &PushStats{MexcCount: &c.Reference},
		LastUpdate: &at,
	}
	if res.AAvailable {
		req.BinanceList = toPush(res.MissingFromA)
		req.Stats.BinanceCount = &c.ComparisonA
	}
	if res.BAvailable {
		req.BybitList = toPush(res.MissingFromB)
		req.Stats.BybitCount = &c.ComparisonB
	}
	if res.SpotAvailable {
		req.BybitSpotList = toPush(res.SpotOnlyB)
		req.Stats.SpotCount = &c.SpotOnlyB
	}
	return req
}
