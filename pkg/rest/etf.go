package rest

import (
	"context"

	"github.com/shopspring/decimal"
)

// ETFService covers the Bitcoin and Ethereum spot ETF endpoints.
type ETFService struct {
	client *Client
}

// ETFAssetInfo holds per-fund NAV and holding details.
type ETFAssetInfo struct {
	NAV                float64 `json:"nav"`
	PremiumDiscount    float64 `json:"premiumDiscount"`
	BTCHolding         float64 `json:"btcHolding"`
	BTCChange1d        float64 `json:"btcChange1d"`
	BTCChangePercent1d float64 `json:"btcChangePercent1d"`
	Date               string  `json:"date"`
}

// ETFInfo is one fund in the ETF list. Several monetary fields arrive as
// strings on the wire.
type ETFInfo struct {
	Ticker             string          `json:"ticker"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	PrimaryExchange    string          `json:"primaryExchange"`
	MarketCap          decimal.Decimal `json:"marketCap"`
	AUM                decimal.Decimal `json:"aum"`
	Fee                decimal.Decimal `json:"fee"`
	Price              float64         `json:"price"`
	PriceChangePercent float64         `json:"priceChangePercent"`
	Volume             float64         `json:"volume"`
	VolumeUSD          float64         `json:"volumeUsd"`
	AssetInfo          ETFAssetInfo    `json:"assetInfo"`
	UpdateTime         int64           `json:"updateTime"`
}

// BitcoinETFList returns the Bitcoin spot ETFs tracked by the API.
func (s *ETFService) BitcoinETFList(ctx context.Context) ([]ETFInfo, error) {
	var out []ETFInfo
	if err := s.client.get(ctx, "/api/bitcoin/etf/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ETFFlow is one fund's net flow for a day.
type ETFFlow struct {
	Date        string  `json:"date"`
	Name        string  `json:"name"`
	FlowUSD     float64 `json:"flow"`
	BitcoinFlow float64 `json:"bitcoinFlow"`
}

// BitcoinETFFlowHistory returns the daily net flow history per Bitcoin ETF.
func (s *ETFService) BitcoinETFFlowHistory(ctx context.Context) ([]ETFFlow, error) {
	var out []ETFFlow
	if err := s.client.get(ctx, "/api/bitcoin/etf/flow-history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ETFNetAssets is one day of combined ETF net assets.
type ETFNetAssets struct {
	Date      string  `json:"date"`
	NetAssets float64 `json:"netAssets"`
	Change    float64 `json:"change"`
	Price     float64 `json:"price"`
}

// BitcoinETFNetAssetsHistory returns the combined net assets history of the
// Bitcoin spot ETFs.
func (s *ETFService) BitcoinETFNetAssetsHistory(ctx context.Context) ([]ETFNetAssets, error) {
	var out []ETFNetAssets
	if err := s.client.get(ctx, "/api/bitcoin/etf/netAssets/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EthereumETFList returns the Ethereum spot ETFs tracked by the API.
func (s *ETFService) EthereumETFList(ctx context.Context) ([]ETFInfo, error) {
	var out []ETFInfo
	if err := s.client.get(ctx, "/api/ethereum/etf/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EthereumETFFlowHistory returns the daily net flow history per Ethereum ETF.
func (s *ETFService) EthereumETFFlowHistory(ctx context.Context) ([]ETFFlow, error) {
	var out []ETFFlow
	if err := s.client.get(ctx, "/api/ethereum/etf/flow-history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EthereumETFNetAssetsHistory returns the combined net assets history of the
// Ethereum spot ETFs.
func (s *ETFService) EthereumETFNetAssetsHistory(ctx context.Context) ([]ETFNetAssets, error) {
	var out []ETFNetAssets
	if err := s.client.get(ctx, "/api/ethereum/etf/netAssets/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
