package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureHandler records the request path and query, then serves data inside
// a success envelope.
func captureHandler(data string, got *url.URL) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = *r.URL
		fmt.Fprint(w, envelopeJSON(data))
	})
}

func TestLiquidationHistoryParamsAndDecode(t *testing.T) {
	var got url.URL
	client := newTestClient(t, captureHandler(
		`[{"t":1700000000,"longLiquidationUsd":"12345.67","shortLiquidationUsd":890.12}]`, &got))

	liqs, err := client.Futures.LiquidationHistory(context.Background(), HistoryParams{
		Symbol:   "ETHUSDT",
		Interval: "4H",
		Limit:    100,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/futures/liquidation/v2/history", got.Path)
	q := got.Query()
	assert.Equal(t, "Binance", q.Get("exchange"), "exchange defaults to Binance")
	assert.Equal(t, "ETHUSDT", q.Get("symbol"))
	assert.Equal(t, "4h", q.Get("interval"), "interval is lowercased")
	assert.Equal(t, "100", q.Get("limit"))

	// USD values decode whether the API sends strings or numbers.
	require.Len(t, liqs, 1)
	assert.Equal(t, int64(1700000000), liqs[0].Time)
	assert.True(t, liqs[0].LongUSD.Equal(decimal.RequireFromString("12345.67")))
	assert.True(t, liqs[0].ShortUSD.Equal(decimal.RequireFromString("890.12")))
}

func TestLiquidationAggregatedHistoryUsesExchangesParam(t *testing.T) {
	var got url.URL
	client := newTestClient(t, captureHandler(`[]`, &got))

	_, err := client.Futures.LiquidationAggregatedHistory(context.Background(), HistoryParams{
		Exchange: "Binance,OKX",
		Symbol:   "BTC",
	})
	require.NoError(t, err)

	q := got.Query()
	assert.Equal(t, "Binance,OKX", q.Get("exchanges"))
	assert.Empty(t, q.Get("exchange"))
}

func TestInvalidIntervalFailsBeforeRequest(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid interval")
	}))

	_, err := client.Futures.OpenInterestOHLCHistory(context.Background(), HistoryParams{Interval: "2y"})
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestLiquidationHeatmapReshape(t *testing.T) {
	payload := `{
		"y": [25000, 26000, 27000],
		"liq": [[0, 1, 1500000.5], [2, 0, 300000]],
		"prices": [[1700000000, 26000, 26500, 25900, 26400]]
	}`
	var got url.URL
	client := newTestClient(t, captureHandler(payload, &got))

	hm, err := client.Futures.LiquidationAggregatedHeatmap(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "/api/futures/liquidation/aggregated-heatmap", got.Path)
	assert.Equal(t, "BTC", got.Query().Get("symbol"))
	assert.Equal(t, "3d", got.Query().Get("range"))

	assert.Equal(t, []float64{25000, 26000, 27000}, hm.PriceLevels)
	require.Len(t, hm.Cells, 2)
	assert.Equal(t, HeatmapCell{TimeIndex: 0, PriceIndex: 1, VolumeUSD: 1500000.5}, hm.Cells[0])
	require.Len(t, hm.Candles, 1)
	assert.Equal(t, OHLC{Time: 1700000000, Open: 26000, High: 26500, Low: 25900, Close: 26400}, hm.Candles[0])
}

func TestLiquidationHeatmapMalformedCell(t *testing.T) {
	client := newTestClient(t, captureHandler(`{"y":[1],"liq":[[0,1]],"prices":[]}`, new(url.URL)))

	_, err := client.Futures.LiquidationAggregatedHeatmap(context.Background(), "BTC", "12h")
	require.Error(t, err)
}

func TestPriceOHLCHistoryFlattensArrays(t *testing.T) {
	var got url.URL
	client := newTestClient(t, captureHandler(
		`[[1700000000, "42000.5", 42500, 41900, "42300", 1234.5]]`, &got))

	candles, err := client.Price.OHLCHistory(context.Background(), PriceOHLCParams{
		Type:     MarketSpot,
		Interval: "1M",
	})
	require.NoError(t, err)

	q := got.Query()
	assert.Equal(t, "spot", q.Get("type"))
	assert.Equal(t, "1M", q.Get("interval"), "1M must not be lowercased")

	require.Len(t, candles, 1)
	assert.Equal(t, OHLC{
		Time: 1700000000, Open: 42000.5, High: 42500, Low: 41900, Close: 42300, Volume: 1234.5,
	}, candles[0])
}

func TestPriceOHLCHistoryAcceptsKeyedCandles(t *testing.T) {
	client := newTestClient(t, captureHandler(
		`[{"t":1700000000,"o":1,"h":2,"l":0.5,"c":1.5,"v":10}]`, new(url.URL)))

	candles, err := client.Price.OHLCHistory(context.Background(), PriceOHLCParams{})
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, OHLC{Time: 1700000000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}, candles[0])
}

func TestPriceOHLCHistoryRejectsBadMarketType(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid market type")
	}))

	_, err := client.Price.OHLCHistory(context.Background(), PriceOHLCParams{Type: "margin"})
	require.ErrorIs(t, err, ErrInvalidMarketType)
}

func TestExchangeTransfersDefaultsAndCaps(t *testing.T) {
	var got url.URL
	client := newTestClient(t, captureHandler(
		`[{"txHash":"0xabc","symbol":"ETH","usd":"1000000","amount":250,"exName":"Binance","side":1,"from":"0x1","to":"0x2","time":1700000000000}]`, &got))

	transfers, err := client.OnChain.ExchangeTransfers(context.Background(), TransferParams{
		PageSize: 500,
	})
	require.NoError(t, err)

	q := got.Query()
	assert.Equal(t, "ETH", q.Get("symbol"))
	assert.Equal(t, "1", q.Get("pageNum"))
	assert.Equal(t, "100", q.Get("pageSize"), "page size is capped at 100")

	require.Len(t, transfers, 1)
	assert.Equal(t, "Binance", transfers[0].Exchange)
	assert.Equal(t, TransferIn, transfers[0].Side)
	assert.True(t, transfers[0].AmountUSD.Equal(decimal.NewFromInt(1000000)))
}

func TestSupportedExchangePairs(t *testing.T) {
	client := newTestClient(t, captureHandler(
		`{"Binance":[{"instrumentId":"BTCUSDT","baseAsset":"BTC","quoteAsset":"USDT"}]}`, new(url.URL)))

	pairs, err := client.Futures.SupportedExchangePairs(context.Background())
	require.NoError(t, err)
	require.Contains(t, pairs, "Binance")
	assert.Equal(t, ExchangePair{
		InstrumentID: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT",
	}, pairs["Binance"][0])
}

func TestMaxPainDecodesStringPrice(t *testing.T) {
	var got url.URL
	client := newTestClient(t, captureHandler(
		`[{"time":"240830","maxPain":"59000","callOi":1200.5,"putOi":900.25}]`, &got))

	points, err := client.Options.MaxPain(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "BTC", got.Query().Get("symbol"))
	assert.Equal(t, "Deribit", got.Query().Get("exName"))

	require.Len(t, points, 1)
	assert.True(t, points[0].MaxPain.Equal(decimal.NewFromInt(59000)))
	assert.Equal(t, 1200.5, points[0].CallOpenInterest)
}
