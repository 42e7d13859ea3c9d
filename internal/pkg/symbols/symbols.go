package symbols

import (
	"sort"
	"strings"
)

type Style int

const (
	// BASE + SEP + QUOTE (MEXC contracts: "BTC_USDT", also "ETH-USDT", "PEPE/USDT")
	StyleBaseSepQuote Style = iota
	// CONCAT: BASEQUOTE without sep (MEXC/Binance spot tickers: "PEPEUSDT")
	StyleConcat
)

var seps = []string{"_", "-", "/"}

var KnownQuotes = []string{
	"USDT", "USDC", "FDUSD", "TUSD", "BUSD", "USD", "USDE", "EUR", "BTC", "ETH",
}

// Split separates an exchange symbol into upper-cased base and quote.
func Split(symbol string, style Style) (string, string, bool) {
	u := strings.ToUpper(strings.TrimSpace(symbol))
	if u == "" {
		return "", "", false
	}

	if style == StyleBaseSepQuote {
		for _, sep := range seps {
			if !strings.Contains(u, sep) {
				continue
			}
			parts := strings.Split(u, sep)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return "", "", false
			}
			return parts[0], parts[1], true
		}
		return "", "", false
	}

	// longest quote suffix wins: "BTCFDUSD" is BTC/FDUSD, not BTCFD/USD
	for _, q := range sortedQuotesByLenDesc() {
		if strings.HasSuffix(u, q) && len(u) > len(q) {
			return strings.TrimSuffix(u, q), q, true
		}
	}
	return "", "", false
}

// BaseFor returns the base of symbol when it is quoted in quote.
func BaseFor(symbol string, style Style, quote string) (string, bool) {
	base, q, ok := Split(symbol, style)
	if !ok || q != strings.ToUpper(quote) {
		return "", false
	}
	return base, true
}

// Join builds a concatenated spot ticker ("BTC" + "USDT" → "BTCUSDT").
func Join(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + strings.ToUpper(strings.TrimSpace(quote))
}

var quotesSorted = func() []string {
	out := append([]string(nil), KnownQuotes...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

func sortedQuotesByLenDesc() []string { return quotesSorted }
