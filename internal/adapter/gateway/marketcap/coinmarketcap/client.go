package coinmarketcap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/common"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

const (
	BaseURL   = "https://pro-api.coinmarketcap.com"
	BatchSize = 100
	// free tier allows ~30 req/min
	BatchInterval = 300 * time.Millisecond
)

// BatchObserver counts batch outcomes; *metrics.Registry implements it.
type BatchObserver interface {
	EnrichBatch(result string)
}

type Client struct {
	http     *common.Client
	apiKey   string
	interval time.Duration
	log      *slog.Logger
	obs      BatchObserver
}

func New(apiKey string, log *slog.Logger) *Client { return NewWithBaseURL(BaseURL, apiKey, log) }

func NewWithBaseURL(base, apiKey string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		http:     common.New("coinmarketcap", base),
		apiKey:   strings.TrimSpace(apiKey),
		interval: BatchInterval,
		log:      log.With("component", "coinmarketcap"),
	}
	if c.apiKey != "" {
		c.http.SetHeader("X-CMC_PRO_API_KEY", c.apiKey)
	}
	return c
}

func (c *Client) WithObserver(o BatchObserver) *Client { c.obs = o; return c }

// WithInterval overrides the pause between batches (tests).
func (c *Client) WithInterval(d time.Duration) *Client { c.interval = d; return c }

type quotesResp struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string][]struct {
		Symbol string `json:"symbol"`
		Quote  struct {
			USD struct {
				MarketCap *float64 `json:"market_cap"`
			} `json:"USD"`
		} `json:"quote"`
	} `json:"data"`
}

// Enrich looks up USD market caps in batches. It never fails: a batch that
// errors is logged and its symbols stay absent from the index.
func (c *Client) Enrich(ctx context.Context, set listings.SymbolSet) listings.MarketCapIndex {
	out := listings.MarketCapIndex{}
	if set.Len() == 0 {
		return out
	}
	if c.apiKey == "" {
		c.log.Warn("no api key, market caps unavailable", "symbols", set.Len())
		return out
	}

	all := set.Sorted()
	lim := rate.NewLimiter(rate.Every(c.interval), 1)
	for start := 0; start < len(all); start += BatchSize {
		end := min(start+BatchSize, len(all))
		batch := all[start:end]

		if err := lim.Wait(ctx); err != nil {
			c.log.Warn("enrich aborted", "done", start, "total", len(all), "err", err)
			c.observe("aborted")
			return out
		}
		got, err := c.fetchBatch(ctx, batch)
		if err != nil {
			c.log.Warn("batch failed", "first", batch[0], "size", len(batch), "err", err)
			c.observe("error")
			continue
		}
		for k, v := range got {
			out[k] = v
		}
		c.observe("ok")
	}
	c.log.Debug("enriched", "requested", len(all), "known", len(out))
	return out
}

func (c *Client) fetchBatch(ctx context.Context, batch []string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("symbol", strings.Join(batch, ","))
	q.Set("convert", "USD")

	var v quotesResp
	if err := c.http.GetJSON(ctx, "quotes", "/v2/cryptocurrency/quotes/latest", q, &v); err != nil {
		return nil, err
	}
	if v.Status.ErrorCode != 0 {
		return nil, common.PayloadError("coinmarketcap", "quotes",
			fmt.Errorf("error_code=%d: %s", v.Status.ErrorCode, v.Status.ErrorMessage))
	}
	if v.Data == nil {
		return nil, common.PayloadError("coinmarketcap", "quotes", errors.New("missing data"))
	}

	out := make(map[string]float64, len(batch))
	for sym, rows := range v.Data {
		// several coins can share a ticker; CMC orders them by rank
		if len(rows) == 0 {
			continue
		}
		mc := rows[0].Quote.USD.MarketCap
		if mc == nil || *mc <= 0 {
			continue
		}
		out[listings.Canonical(sym)] = *mc
	}
	return out, nil
}

func (c *Client) observe(result string) {
	if c.obs != nil {
		c.obs.EnrichBatch(result)
	}
}
