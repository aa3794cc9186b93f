package rest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// OHLC is a single candle. The timestamp is Unix seconds.
type OHLC struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// Timestamp returns the candle open time.
func (o OHLC) Timestamp() time.Time {
	return time.Unix(o.Time, 0)
}

// ExchangePair describes one tradable instrument on an exchange.
type ExchangePair struct {
	InstrumentID string `json:"instrumentId"`
	BaseAsset    string `json:"baseAsset"`
	QuoteAsset   string `json:"quoteAsset"`
}

// HistoryParams select a market and time window for candle-style endpoints.
// Zero fields fall back to the endpoint defaults (Binance, BTCUSDT pair or
// BTC coin, 1d interval).
type HistoryParams struct {
	// Exchange name, e.g. "Binance". Aggregated endpoints accept a
	// comma-separated list or "ALL".
	Exchange string

	// Symbol is a trading pair ("BTCUSDT") or coin ("BTC") depending on the
	// endpoint.
	Symbol string

	// Interval is a candle interval such as "5m", "1h" or "1d".
	Interval string

	// Limit caps the number of data points, up to 4500.
	Limit int

	// StartTime and EndTime bound the window in Unix seconds.
	StartTime int64
	EndTime   int64
}

// validIntervals are accepted by the candle-history endpoints.
var validIntervals = map[string]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "1w": {}, "7d": {}, "30d": {},
}

// priceIntervals are accepted by the price OHLC endpoint, which supports a
// slightly different set (adds 2h and 1M, drops 7d/30d).
var priceIntervals = map[string]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "1w": {}, "1M": {},
}

func normalizeInterval(interval string, allowed map[string]struct{}) (string, error) {
	// 1M is case-sensitive (month vs minute), everything else lowercases.
	if interval != "1M" {
		interval = strings.ToLower(interval)
	}
	if _, ok := allowed[interval]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
	return interval, nil
}

// values builds the query for a history endpoint, applying the defaults for
// unset fields and validating the interval.
func (p HistoryParams) values(defaultSymbol, defaultInterval string) (url.Values, error) {
	if p.Exchange == "" {
		p.Exchange = "Binance"
	}
	if p.Symbol == "" {
		p.Symbol = defaultSymbol
	}
	if p.Interval == "" {
		p.Interval = defaultInterval
	}
	interval, err := normalizeInterval(p.Interval, validIntervals)
	if err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("exchange", p.Exchange)
	v.Set("symbol", p.Symbol)
	v.Set("interval", interval)
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.StartTime > 0 {
		v.Set("startTime", strconv.FormatInt(p.StartTime, 10))
	}
	if p.EndTime > 0 {
		v.Set("endTime", strconv.FormatInt(p.EndTime, 10))
	}
	return v, nil
}
