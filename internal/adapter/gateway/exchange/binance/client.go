package binance

import (
	"context"
	"strings"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/common"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

// USD-M futures: https://fapi.binance.com/fapi/v1/exchangeInfo
const FuturesBase = "https://fapi.binance.com"

type Client struct {
	c     *common.Client
	quote string
}

func New(quote string) *Client { return NewWithBaseURL(FuturesBase, quote) }

func NewWithBaseURL(base, quote string) *Client {
	if quote == "" {
		quote = "USDT"
	}
	return &Client{c: common.New("binance", base), quote: strings.ToUpper(quote)}
}

func (Client) Name() string { return "binance" }

type exInfo struct {
	Symbols []struct {
		Symbol       string `json:"symbol"`
		Status       string `json:"status"` // TRADING
		ContractType string `json:"contractType"`
		Base         string `json:"baseAsset"`
		Quote        string `json:"quoteAsset"`
	} `json:"symbols"`
}

// FetchSymbols returns the base assets of trading, stable-quoted futures.
func (cl *Client) FetchSymbols(ctx context.Context) (listings.SymbolSet, error) {
	var v exInfo
	if err := cl.c.GetJSON(ctx, "exchangeInfo", "/fapi/v1/exchangeInfo", nil, &v); err != nil {
		return nil, err
	}
	out := listings.NewSymbolSet()
	for _, s := range v.Symbols {
		if !strings.EqualFold(s.Status, "TRADING") || !strings.EqualFold(s.Quote, cl.quote) {
			continue
		}
		out.Add(s.Base)
	}
	return out, nil
}
