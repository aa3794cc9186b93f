package rest

import (
	"context"
	"net/url"
	"strconv"
)

// SpotService covers the spot market endpoints.
type SpotService struct {
	client *Client
}

// SupportedCoins lists the coins available on spot endpoints.
func (s *SpotService) SupportedCoins(ctx context.Context) ([]string, error) {
	var coins []string
	if err := s.client.get(ctx, "/api/spot/supported-coins", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// SupportedExchangePairs lists tradable spot pairs keyed by exchange.
func (s *SpotService) SupportedExchangePairs(ctx context.Context) (map[string][]ExchangePair, error) {
	pairs := make(map[string][]ExchangePair)
	if err := s.client.get(ctx, "/api/spot/supported-exchange-pairs", nil, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// TakerBuySell is one interval of taker volume split by side.
type TakerBuySell struct {
	Time         int64   `json:"t"`
	BuyVolume    float64 `json:"buyVolume"`
	SellVolume   float64 `json:"sellVolume"`
	BuySellRatio float64 `json:"buySellRatio"`
}

// TakerBuySellHistory returns the taker buy/sell volume history for a pair.
func (s *SpotService) TakerBuySellHistory(ctx context.Context, p HistoryParams) ([]TakerBuySell, error) {
	v, err := p.values("BTCUSDT", "1d")
	if err != nil {
		return nil, err
	}
	var out []TakerBuySell
	if err := s.client.get(ctx, "/api/spot/takerBuySellVolume/history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CoinsMarkets returns the spot market overview for all coins.
func (s *SpotService) CoinsMarkets(ctx context.Context) ([]CoinMarket, error) {
	var out []CoinMarket
	if err := s.client.get(ctx, "/api/spot/coins-markets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CoinbasePremium is one interval of the Coinbase premium index: the gap
// between the Coinbase Pro price and the volume-weighted exchange average.
type CoinbasePremium struct {
	Time        int64   `json:"t"`
	Price       float64 `json:"price"`
	IndexPrice  float64 `json:"indexPrice"`
	Premium     float64 `json:"premium"`
	PremiumRate float64 `json:"premiumRate"`
}

// CoinbasePremiumIndex returns the Coinbase premium index history.
func (s *SpotService) CoinbasePremiumIndex(ctx context.Context, interval string, limit int) ([]CoinbasePremium, error) {
	if interval == "" {
		interval = "1h"
	}
	normalized, err := normalizeInterval(interval, validIntervals)
	if err != nil {
		return nil, err
	}
	v := url.Values{"interval": {normalized}}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}

	var out []CoinbasePremium
	if err := s.client.get(ctx, "/api/coinbase-premium-index", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
