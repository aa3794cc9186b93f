package rest

import (
	"context"
	"net/url"
	"strconv"
)

// OrderbookService covers the aggregated orderbook depth endpoints.
type OrderbookService struct {
	client *Client
}

// OrderbookDepth is one interval of bid/ask depth within the tracked range.
type OrderbookDepth struct {
	Time       int64   `json:"time"`
	BidsUSD    float64 `json:"bidsUsd"`
	BidsAmount float64 `json:"bidsAmount"`
	AsksUSD    float64 `json:"asksUsd"`
	AsksAmount float64 `json:"asksAmount"`
}

// History returns the bid/ask depth history for a pair.
func (s *OrderbookService) History(ctx context.Context, p HistoryParams) ([]OrderbookDepth, error) {
	if p.Interval == "" {
		p.Interval = "1h"
	}
	v, err := p.values("BTCUSDT", "1h")
	if err != nil {
		return nil, err
	}
	var out []OrderbookDepth
	if err := s.client.get(ctx, "/api/orderbook/history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Order sides and states as reported by the large limit order endpoints.
const (
	OrderSideBuy  = 1
	OrderSideSell = 2

	OrderStateOpen      = 1
	OrderStateCompleted = 2
	OrderStateRevoked   = 3
)

// LargeLimitOrder is one resting order above the size threshold. Timestamps
// are Unix milliseconds.
type LargeLimitOrder struct {
	Exchange      string  `json:"exName"`
	Symbol        string  `json:"symbol"`
	BaseAsset     string  `json:"baseAsset"`
	QuoteAsset    string  `json:"quoteAsset"`
	Price         float64 `json:"price"`
	StartTime     int64   `json:"startTime"`
	StartAmount   float64 `json:"startAmount"`
	StartUSD      float64 `json:"startUsd"`
	CurrentAmount float64 `json:"currentAmount"`
	CurrentUSD    float64 `json:"currentUsd"`
	CurrentTime   int64   `json:"currentTime"`
	Volume        float64 `json:"vol"`
	VolumeUSD     float64 `json:"volUsd"`
	TradeCount    int     `json:"count"`
	Side          int     `json:"side"`
	State         int     `json:"state"`
	EndTime       int64   `json:"endTime"`
}

func largeOrderValues(exchange, symbol string) url.Values {
	if exchange == "" {
		exchange = "Binance"
	}
	if symbol == "" {
		symbol = "BTCUSDT"
	}
	return url.Values{"exchange": {exchange}, "symbol": {symbol}}
}

// LargeLimitOrders lists the currently open large limit orders for a pair.
func (s *OrderbookService) LargeLimitOrders(ctx context.Context, exchange, symbol string) ([]LargeLimitOrder, error) {
	var out []LargeLimitOrder
	if err := s.client.get(ctx, "/api/orderbook/large-limit-order", largeOrderValues(exchange, symbol), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LargeLimitOrderHistory lists completed and revoked large limit orders for
// a pair within the optional window (Unix milliseconds).
func (s *OrderbookService) LargeLimitOrderHistory(ctx context.Context, exchange, symbol string, startTime, endTime int64) ([]LargeLimitOrder, error) {
	v := largeOrderValues(exchange, symbol)
	if startTime > 0 {
		v.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	if endTime > 0 {
		v.Set("endTime", strconv.FormatInt(endTime, 10))
	}

	var out []LargeLimitOrder
	if err := s.client.get(ctx, "/api/orderbook/large-limit-order-history", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
