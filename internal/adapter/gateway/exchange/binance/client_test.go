package binance_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	cl "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/binance"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/common"
)

func TestFetchSymbols_TradingUSDTOnly(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/exchangeInfo" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","contractType":"PERPETUAL","baseAsset":"BTC","quoteAsset":"USDT"},
			{"symbol":"ethusdt","status":"TRADING","contractType":"PERPETUAL","baseAsset":"eth","quoteAsset":"USDT"},
			{"symbol":"BTCUSDC","status":"TRADING","contractType":"PERPETUAL","baseAsset":"BTC","quoteAsset":"USDC"},
			{"symbol":"LUNAUSDT","status":"SETTLING","contractType":"PERPETUAL","baseAsset":"LUNA","quoteAsset":"USDT"}
		]}`))
	}))
	defer ts.Close()

	set, err := cl.NewWithBaseURL(ts.URL, "USDT").FetchSymbols(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 || !set.Has("BTC") || !set.Has("ETH") {
		t.Fatalf("set=%v", set.Sorted())
	}
	if set.Has("LUNA") {
		t.Fatal("non-trading symbol leaked")
	}
}

func TestFetchSymbols_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`restricted location`))
	}))
	defer ts.Close()

	_, err := cl.NewWithBaseURL(ts.URL, "USDT").FetchSymbols(context.Background())
	var ce *common.CollectorError
	if !errors.As(err, &ce) {
		t.Fatalf("want CollectorError, got %v", err)
	}
	if ce.Kind != common.KindStatus || ce.Status != http.StatusForbidden || ce.Transient() {
		t.Fatalf("unexpected error shape: %+v", ce)
	}
}
