package rest

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"
)

// OptionsService covers the options market endpoints.
type OptionsService struct {
	client *Client
}

// MaxPain is one expiry's max pain point with the open interest behind it.
// MaxPain itself is a price and arrives as a string on the wire.
type MaxPain struct {
	Date             string          `json:"time"`
	MaxPain          decimal.Decimal `json:"maxPain"`
	CallOpenInterest float64         `json:"callOi"`
	PutOpenInterest  float64         `json:"putOi"`
	CallOiByNotional float64         `json:"callOiByNotional"`
	PutOiByNotional  float64         `json:"putOiByNotional"`
}

// MaxPain returns the max pain data per expiry date for a coin on one
// options exchange.
func (s *OptionsService) MaxPain(ctx context.Context, symbol, exchange string) ([]MaxPain, error) {
	if symbol == "" {
		symbol = "BTC"
	}
	if exchange == "" {
		exchange = "Deribit"
	}
	v := url.Values{"symbol": {symbol}, "exName": {exchange}}

	var out []MaxPain
	if err := s.client.get(ctx, "/api/option/max-pain", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OptionInfo is one options exchange's open interest and volume for a coin.
type OptionInfo struct {
	Exchange          string  `json:"exchangeName"`
	OpenInterest      float64 `json:"openInterest"`
	OpenInterestUSD   float64 `json:"openInterestUsd"`
	OpenInterestShare float64 `json:"rate"`
	VolumeUSD24h      float64 `json:"volUsd"`
}

// Info returns the per-exchange options market overview for a coin.
func (s *OptionsService) Info(ctx context.Context, symbol string) ([]OptionInfo, error) {
	if symbol == "" {
		symbol = "BTC"
	}
	v := url.Values{"symbol": {symbol}}

	var out []OptionInfo
	if err := s.client.get(ctx, "/api/option/info", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
