package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// PriceService covers the price history endpoint.
type PriceService struct {
	client *Client
}

// Market types accepted by the price OHLC endpoint.
const (
	MarketFutures = "futures"
	MarketSpot    = "spot"
)

// PriceOHLCParams select the market and window for OHLCHistory.
type PriceOHLCParams struct {
	// Exchange name. Defaults to "Binance".
	Exchange string

	// Symbol is the trading pair. Defaults to "BTCUSDT".
	Symbol string

	// Type is MarketFutures or MarketSpot. Defaults to MarketFutures.
	Type string

	// Interval is a candle interval, "1m" through "1M". Defaults to "1h".
	Interval string

	// Limit caps the number of candles, up to 4500.
	Limit int

	// StartTime and EndTime bound the window in Unix seconds.
	StartTime int64
	EndTime   int64
}

// OHLCHistory returns price candles for a pair on either the futures or the
// spot market. The wire payload encodes each candle as a 6-element array
// [t, o, h, l, c, v]; it is flattened into OHLC records here.
func (s *PriceService) OHLCHistory(ctx context.Context, p PriceOHLCParams) ([]OHLC, error) {
	if p.Exchange == "" {
		p.Exchange = "Binance"
	}
	if p.Symbol == "" {
		p.Symbol = "BTCUSDT"
	}
	if p.Type == "" {
		p.Type = MarketFutures
	}
	if p.Type != MarketFutures && p.Type != MarketSpot {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMarketType, p.Type)
	}
	if p.Interval == "" {
		p.Interval = "1h"
	}
	interval, err := normalizeInterval(p.Interval, priceIntervals)
	if err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("exchange", p.Exchange)
	v.Set("symbol", p.Symbol)
	v.Set("type", p.Type)
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

	raw, err := s.client.getRaw(ctx, "/api/price/ohlc-history", v)
	if err != nil {
		return nil, err
	}
	return parsePriceCandles(raw)
}

// parsePriceCandles accepts both wire shapes the endpoint is known to emit:
// arrays of [t, o, h, l, c, v] and keyed objects. Numeric fields may arrive
// as JSON strings.
func parsePriceCandles(raw []byte) ([]OHLC, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, fmt.Errorf("unexpected price payload shape")
	}

	var out []OHLC
	for _, item := range doc.Array() {
		switch {
		case item.IsArray():
			fields := item.Array()
			if len(fields) < 6 {
				return nil, fmt.Errorf("malformed candle: %s", item.Raw)
			}
			out = append(out, OHLC{
				Time:   fields[0].Int(),
				Open:   fields[1].Float(),
				High:   fields[2].Float(),
				Low:    fields[3].Float(),
				Close:  fields[4].Float(),
				Volume: fields[5].Float(),
			})
		case item.IsObject():
			out = append(out, OHLC{
				Time:   item.Get("t").Int(),
				Open:   item.Get("o").Float(),
				High:   item.Get("h").Float(),
				Low:    item.Get("l").Float(),
				Close:  item.Get("c").Float(),
				Volume: item.Get("v").Float(),
			})
		default:
			return nil, fmt.Errorf("malformed candle: %s", item.Raw)
		}
	}
	return out, nil
}
