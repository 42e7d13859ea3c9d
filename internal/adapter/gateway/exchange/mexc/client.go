package mexc

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/common"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/pkg/symbols"
)

const (
	ContractBase = "https://contract.mexc.com"
	SpotBase     = "https://api.mexc.com"
)

// Client reads MEXC futures contracts and spot prices. Futures and spot live
// on different hosts, hence two gateways.
type Client struct {
	contract *common.Client
	spot     *common.Client
	quote    string
}

func New(quote string) *Client { return NewWithBaseURL(ContractBase, SpotBase, quote) }

func NewWithBaseURL(contractBase, spotBase, quote string) *Client {
	if quote == "" {
		quote = "USDT"
	}
	return &Client{
		contract: common.New("mexc", contractBase),
		spot:     common.New("mexc", spotBase),
		quote:    strings.ToUpper(quote),
	}
}

func (Client) Name() string { return "mexc" }

type contractDetail struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Data    []struct {
		Symbol       string              `json:"symbol"` // BTC_USDT
		BaseCoin     string              `json:"baseCoin"`
		QuoteCoin    string              `json:"quoteCoin"`
		ContractSize decimal.NullDecimal `json:"contractSize"`
		MaxVol       decimal.NullDecimal `json:"maxVol"`
		State        *int                `json:"state"` // 0 = enabled
	} `json:"data"`
}

// FetchContracts returns the stable-quoted, enabled perpetual contracts.
// Contracts with missing maxVol/contractSize are kept here and dropped by the
// reconciliation step, which owns that rule.
func (cl *Client) FetchContracts(ctx context.Context) ([]listings.Instrument, error) {
	var v contractDetail
	if err := cl.contract.GetJSON(ctx, "contracts", "/api/v1/contract/detail", nil, &v); err != nil {
		return nil, err
	}
	if !v.Success {
		return nil, common.PayloadError("mexc", "contracts", errors.New("success=false"))
	}
	out := make([]listings.Instrument, 0, len(v.Data))
	for _, c := range v.Data {
		if c.State != nil && *c.State != 0 {
			continue
		}
		base, ok := symbols.BaseFor(c.Symbol, symbols.StyleBaseSepQuote, cl.quote)
		if !ok {
			continue
		}
		out = append(out, listings.Instrument{
			Symbol: c.Symbol, BaseAsset: base, QuoteAsset: cl.quote,
			MaxVolume: c.MaxVol, ContractSize: c.ContractSize,
		})
	}
	return out, nil
}

// FetchPrices returns spot ticker -> last price ("BTCUSDT" -> 65000.1).
func (cl *Client) FetchPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var raw []map[string]any
	if err := cl.spot.GetJSON(ctx, "prices", "/api/v3/ticker/price", nil, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(raw))
	for _, row := range raw {
		sym, _ := row["symbol"].(string)
		if sym == "" {
			continue
		}
		p, ok := parsePrice(row["price"])
		if !ok {
			continue
		}
		out[strings.ToUpper(sym)] = p
	}
	return out, nil
}

// a malformed row must not fail the whole ticker list
func parsePrice(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	}
	return decimal.Decimal{}, false
}
