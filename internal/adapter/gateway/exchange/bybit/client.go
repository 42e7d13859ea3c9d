package bybit

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/common"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

const (
	DefaultBase = "https://api.bybit.com"
	pageLimit   = "1000"
	maxPages    = 50
)

type Client struct {
	c     *common.Client
	quote string
}

func New(quote string) *Client { return NewWithBaseURL(DefaultBase, quote) }

func NewWithBaseURL(base, quote string) *Client {
	if quote == "" {
		quote = "USDT"
	}
	return &Client{c: common.New("bybit", base), quote: strings.ToUpper(quote)}
}

func (Client) Name() string { return "bybit" }

type instrumentsResp struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category       string `json:"category"`
		NextPageCursor string `json:"nextPageCursor"`
		List           []struct {
			Symbol    string `json:"symbol"`
			BaseCoin  string `json:"baseCoin"`
			QuoteCoin string `json:"quoteCoin"`
			Status    string `json:"status"` // Trading
		} `json:"list"`
	} `json:"result"`
}

// FetchSymbols walks every page of linear instruments.
func (cl *Client) FetchSymbols(ctx context.Context) (listings.SymbolSet, error) {
	return cl.fetchCategory(ctx, "linear")
}

// FetchSpotSymbols returns the stable-quoted spot pairs that are trading.
func (cl *Client) FetchSpotSymbols(ctx context.Context) (listings.SymbolSet, error) {
	return cl.fetchCategory(ctx, "spot")
}

func (cl *Client) fetchCategory(ctx context.Context, cat string) (listings.SymbolSet, error) {
	out := listings.NewSymbolSet()
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, common.PayloadError("bybit", "instruments", fmt.Errorf("more than %d pages", maxPages))
		}
		q := url.Values{"category": {cat}, "limit": {pageLimit}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var v instrumentsResp
		if err := cl.c.GetJSON(ctx, "instruments/"+cat, "/v5/market/instruments-info", q, &v); err != nil {
			return nil, err
		}
		if v.RetCode != 0 {
			return nil, common.PayloadError("bybit", "instruments", fmt.Errorf("retCode %d: %s", v.RetCode, v.RetMsg))
		}
		for _, it := range v.Result.List {
			if !strings.EqualFold(it.Status, "Trading") || !strings.EqualFold(it.QuoteCoin, cl.quote) {
				continue
			}
			out.Add(it.BaseCoin)
		}
		next := v.Result.NextPageCursor
		if next == "" || next == cursor {
			return out, nil
		}
		cursor = next
	}
}
