package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// FuturesService covers the futures market endpoints: open interest, funding
// rates, liquidations, long/short ratios and market overviews.
type FuturesService struct {
	client *Client
}

// SupportedCoins lists the coins available on futures endpoints.
func (s *FuturesService) SupportedCoins(ctx context.Context) ([]string, error) {
	var coins []string
	if err := s.client.get(ctx, "/api/futures/supported-coins", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// SupportedExchangePairs lists tradable futures pairs keyed by exchange.
func (s *FuturesService) SupportedExchangePairs(ctx context.Context) (map[string][]ExchangePair, error) {
	pairs := make(map[string][]ExchangePair)
	if err := s.client.get(ctx, "/api/futures/supported-exchange-pairs", nil, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// OpenInterestOHLCHistory returns open interest candles for a pair.
func (s *FuturesService) OpenInterestOHLCHistory(ctx context.Context, p HistoryParams) ([]OHLC, error) {
	v, err := p.values("BTCUSDT", "1d")
	if err != nil {
		return nil, err
	}
	var out []OHLC
	if err := s.client.get(ctx, "/api/futures/openInterest/ohlc-history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OpenInterestExchange is one exchange's share of a coin's open interest.
type OpenInterestExchange struct {
	Exchange           string  `json:"exchangeName"`
	Symbol             string  `json:"symbol"`
	OpenInterest       float64 `json:"openInterest"`
	OpenInterestUSD    float64 `json:"openInterestUsd"`
	OpenInterestShare  float64 `json:"rate"`
	OIChangePercent24h float64 `json:"h24Change"`
}

// OpenInterestExchangeList breaks a coin's open interest down by exchange.
func (s *FuturesService) OpenInterestExchangeList(ctx context.Context, symbol string) ([]OpenInterestExchange, error) {
	if symbol == "" {
		symbol = "BTC"
	}
	v := url.Values{"symbol": {symbol}}
	var out []OpenInterestExchange
	if err := s.client.get(ctx, "/api/futures/openInterest/exchange-list", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FundingRateOHLCHistory returns funding rate candles for a pair.
func (s *FuturesService) FundingRateOHLCHistory(ctx context.Context, p HistoryParams) ([]OHLC, error) {
	v, err := p.values("BTCUSDT", "1d")
	if err != nil {
		return nil, err
	}
	var out []OHLC
	if err := s.client.get(ctx, "/api/futures/fundingRate/ohlc-history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExchangeFundingRate is a single exchange's current funding rate for a coin.
type ExchangeFundingRate struct {
	Exchange        string  `json:"exchangeName"`
	FundingRate     float64 `json:"fundingRate"`
	NextFundingRate float64 `json:"nextFundingRate"`
	NextFundingTime int64   `json:"nextFundingTime"`
}

// SymbolFundingRates groups current funding rates per coin, split by margin
// type.
type SymbolFundingRates struct {
	Symbol          string                `json:"symbol"`
	USDMarginList   []ExchangeFundingRate `json:"usdtOrUsdMarginList"`
	TokenMarginList []ExchangeFundingRate `json:"tokenMarginList"`
}

// FundingRateExchangeList returns current funding rates across all exchanges.
func (s *FuturesService) FundingRateExchangeList(ctx context.Context) ([]SymbolFundingRates, error) {
	var out []SymbolFundingRates
	if err := s.client.get(ctx, "/api/futures/fundingRate/exchange-list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Liquidation is one interval's long and short liquidation volume. The API
// encodes the USD values as strings on some endpoints and numbers on others.
type Liquidation struct {
	Time     int64           `json:"t"`
	LongUSD  decimal.Decimal `json:"longLiquidationUsd"`
	ShortUSD decimal.Decimal `json:"shortLiquidationUsd"`
}

// LiquidationHistory returns per-interval liquidation volume for a pair.
func (s *FuturesService) LiquidationHistory(ctx context.Context, p HistoryParams) ([]Liquidation, error) {
	v, err := p.values("BTCUSDT", "1d")
	if err != nil {
		return nil, err
	}
	var out []Liquidation
	if err := s.client.get(ctx, "/api/futures/liquidation/v2/history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LiquidationAggregatedHistory returns liquidation volume for a coin summed
// across exchanges. Exchange accepts a comma-separated list or "ALL".
func (s *FuturesService) LiquidationAggregatedHistory(ctx context.Context, p HistoryParams) ([]Liquidation, error) {
	if p.Exchange == "" {
		p.Exchange = "ALL"
	}
	v, err := p.values("BTC", "1d")
	if err != nil {
		return nil, err
	}
	// Aggregated endpoints take the exchange list under "exchanges".
	v.Set("exchanges", p.Exchange)
	v.Del("exchange")

	var out []Liquidation
	if err := s.client.get(ctx, "/api/futures/liquidation/v3/aggregated-history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HeatmapCell is one liquidation cluster on the heatmap grid. TimeIndex and
// PriceIndex address the Times and PriceLevels axes.
type HeatmapCell struct {
	TimeIndex  int
	PriceIndex int
	VolumeUSD  float64
}

// LiquidationHeatmap is the decoded heatmap: a price axis, a time axis with
// candles, and the liquidation volume clustered on that grid.
type LiquidationHeatmap struct {
	PriceLevels []float64
	Candles     []OHLC
	Cells       []HeatmapCell
}

// LiquidationAggregatedHeatmap returns the liquidation heatmap for a coin
// aggregated across exchanges. Valid ranges are "12h", "24h", "3d", "7d",
// "30d", "90d", "180d" and "1y".
func (s *FuturesService) LiquidationAggregatedHeatmap(ctx context.Context, symbol, dataRange string) (*LiquidationHeatmap, error) {
	if symbol == "" {
		symbol = "BTC"
	}
	if dataRange == "" {
		dataRange = "3d"
	}
	v := url.Values{"symbol": {symbol}, "range": {dataRange}}

	raw, err := s.client.getRaw(ctx, "/api/futures/liquidation/aggregated-heatmap", v)
	if err != nil {
		return nil, err
	}
	return parseHeatmap(raw)
}

// parseHeatmap flattens the heatmap wire format into typed records. The API
// returns three parallel structures: "y" is the price axis, "liq" is a list
// of [timeIndex, priceIndex, volumeUsd] triples and "prices" is a list of
// [t, o, h, l, c] candle arrays.
func parseHeatmap(raw []byte) (*LiquidationHeatmap, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("unexpected heatmap payload shape")
	}

	hm := &LiquidationHeatmap{}
	for _, y := range doc.Get("y").Array() {
		hm.PriceLevels = append(hm.PriceLevels, y.Float())
	}
	for _, cell := range doc.Get("liq").Array() {
		triple := cell.Array()
		if len(triple) < 3 {
			return nil, fmt.Errorf("malformed heatmap cell: %s", cell.Raw)
		}
		hm.Cells = append(hm.Cells, HeatmapCell{
			TimeIndex:  int(triple[0].Int()),
			PriceIndex: int(triple[1].Int()),
			VolumeUSD:  triple[2].Float(),
		})
	}
	for _, candle := range doc.Get("prices").Array() {
		fields := candle.Array()
		if len(fields) < 5 {
			return nil, fmt.Errorf("malformed heatmap candle: %s", candle.Raw)
		}
		hm.Candles = append(hm.Candles, OHLC{
			Time:  fields[0].Int(),
			Open:  fields[1].Float(),
			High:  fields[2].Float(),
			Low:   fields[3].Float(),
			Close: fields[4].Float(),
		})
	}
	return hm, nil
}

// CoinMarket is one row of the futures market overview.
type CoinMarket struct {
	Symbol                string  `json:"symbol"`
	Price                 float64 `json:"price"`
	MarketCap             float64 `json:"marketCap"`
	OpenInterest          float64 `json:"openInterest"`
	VolumeUSD24h          float64 `json:"volUsd"`
	PriceChangePercent24h float64 `json:"priceChangePercent24h"`
}

// CoinsMarkets returns the futures market overview for all coins.
func (s *FuturesService) CoinsMarkets(ctx context.Context) ([]CoinMarket, error) {
	var out []CoinMarket
	if err := s.client.get(ctx, "/api/futures/coins-markets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LongShortRatio is one interval of an account-ratio series.
type LongShortRatio struct {
	Time         int64   `json:"time"`
	LongAccount  float64 `json:"longAccount"`
	ShortAccount float64 `json:"shortAccount"`
	Ratio        float64 `json:"longShortRatio"`
}

// GlobalLongShortAccountRatio returns the exchange-wide long/short account
// ratio history for a pair.
func (s *FuturesService) GlobalLongShortAccountRatio(ctx context.Context, p HistoryParams) ([]LongShortRatio, error) {
	if p.Interval == "" {
		p.Interval = "1h"
	}
	if p.Limit == 0 {
		p.Limit = 500
	}
	v, err := p.values("BTCUSDT", "1h")
	if err != nil {
		return nil, err
	}
	var out []LongShortRatio
	if err := s.client.get(ctx, "/api/futures/globalLongShortAccountRatio/history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopLongShortAccountRatio returns the long/short account ratio history for
// an exchange's top accounts.
func (s *FuturesService) TopLongShortAccountRatio(ctx context.Context, p HistoryParams) ([]LongShortRatio, error) {
	if p.Interval == "" {
		p.Interval = "1h"
	}
	if p.Limit == 0 {
		p.Limit = 500
	}
	v, err := p.values("BTCUSDT", "1h")
	if err != nil {
		return nil, err
	}
	var out []LongShortRatio
	if err := s.client.get(ctx, "/api/futures/topLongShortAccountRatio/history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
