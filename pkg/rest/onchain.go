package rest

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// OnChainService covers exchange on-chain flow endpoints.
type OnChainService struct {
	client *Client
}

// Transfer direction relative to the exchange.
const (
	TransferIn  = 1
	TransferOut = 2
)

// ChainTransfer is one on-chain transfer between an exchange wallet and an
// external address.
type ChainTransfer struct {
	TxHash    string          `json:"txHash"`
	Symbol    string          `json:"symbol"`
	Amount    decimal.Decimal `json:"amount"`
	AmountUSD decimal.Decimal `json:"usd"`
	Exchange  string          `json:"exName"`
	Side      int             `json:"side"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Time      int64           `json:"time"`
}

// TransferParams filter the exchange transfer listing.
type TransferParams struct {
	// Symbol filters by coin, e.g. "ETH".
	Symbol string

	// MinUSD drops transfers below this value. Zero keeps everything.
	MinUSD float64

	// StartTime bounds the window in Unix milliseconds.
	StartTime int64

	// PageNum starts at 1, PageSize is capped at 100 by the API.
	PageNum  int
	PageSize int
}

// ExchangeTransfers lists recent on-chain transfers in and out of exchange
// wallets, newest first.
func (s *OnChainService) ExchangeTransfers(ctx context.Context, p TransferParams) ([]ChainTransfer, error) {
	if p.Symbol == "" {
		p.Symbol = "ETH"
	}
	if p.PageNum <= 0 {
		p.PageNum = 1
	}
	if p.PageSize <= 0 || p.PageSize > 100 {
		p.PageSize = 100
	}

	v := url.Values{}
	v.Set("symbol", p.Symbol)
	v.Set("pageNum", strconv.Itoa(p.PageNum))
	v.Set("pageSize", strconv.Itoa(p.PageSize))
	if p.MinUSD > 0 {
		v.Set("minUsd", strconv.FormatFloat(p.MinUSD, 'f', -1, 64))
	}
	if p.StartTime > 0 {
		v.Set("startTime", strconv.FormatInt(p.StartTime, 10))
	}

	var out []ChainTransfer
	if err := s.client.get(ctx, "/api/exchange/chain/tx/list", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
