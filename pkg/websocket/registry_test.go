package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddParamsReturnsDelta(t *testing.T) {
	r := newRegistry()

	delta := r.addParams("liquidation", []string{"BTC", "ETH"})
	assert.Equal(t, []string{"BTC", "ETH"}, delta)

	delta = r.addParams("liquidation", []string{"ETH", "SOL"})
	assert.Equal(t, []string{"SOL"}, delta)

	delta = r.addParams("liquidation", []string{"BTC", "ETH", "SOL"})
	assert.Empty(t, delta)

	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, r.paramsFor("liquidation"))
}

func TestRegistryAddParamsDeduplicatesWithinCall(t *testing.T) {
	r := newRegistry()

	delta := r.addParams("trade", []string{"BTCUSDT:Binance", "BTCUSDT:Binance"})
	assert.Equal(t, []string{"BTCUSDT:Binance"}, delta)
	assert.Equal(t, []string{"BTCUSDT:Binance"}, r.paramsFor("trade"))
}

func TestRegistryRemoveParamsIntersectionOnly(t *testing.T) {
	r := newRegistry()
	r.addParams("liquidation", []string{"BTC", "ETH", "SOL"})

	removed, remaining, known := r.removeParams("liquidation", []string{"ETH", "XRP"})
	require.True(t, known)
	assert.Equal(t, []string{"ETH"}, removed)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, []string{"BTC", "SOL"}, r.paramsFor("liquidation"))
}

func TestRegistryRemoveParamsUnknownChannel(t *testing.T) {
	r := newRegistry()

	_, _, known := r.removeParams("funding", []string{"BTC"})
	assert.False(t, known)
}

func TestRegistryRemoveLastParamDeletesChannel(t *testing.T) {
	r := newRegistry()
	r.addParams("liquidation", []string{"BTC"})

	removed, remaining, known := r.removeParams("liquidation", []string{"BTC"})
	require.True(t, known)
	assert.Equal(t, []string{"BTC"}, removed)
	assert.Zero(t, remaining)

	_, _, known = r.removeParams("liquidation", []string{"BTC"})
	assert.False(t, known, "empty channel must be deleted entirely")
}

func TestRegistryHandlerDeduplication(t *testing.T) {
	r := newRegistry()
	h := func(json.RawMessage) {}

	assert.True(t, r.addHandler("liquidation", h))
	assert.False(t, r.addHandler("liquidation", h))
	assert.Len(t, r.handlersFor("liquidation"), 1)

	// A distinct function value is a distinct handler.
	assert.True(t, r.addHandler("liquidation", func(json.RawMessage) {}))
	assert.Len(t, r.handlersFor("liquidation"), 2)
}

func TestRegistryRemoveHandler(t *testing.T) {
	r := newRegistry()
	first := func(json.RawMessage) {}
	second := func(json.RawMessage) {}
	r.addHandler("trade", first)
	r.addHandler("trade", second)

	assert.True(t, r.removeHandler("trade", first))
	assert.Len(t, r.handlersFor("trade"), 1)

	assert.False(t, r.removeHandler("trade", first))
}

func TestRegistryReplayBundlesPerChannel(t *testing.T) {
	r := newRegistry()
	r.addParams("liquidation", []string{"BTC", "ETH"})
	r.addParams("trade", []string{"BTCUSDT:Binance"})

	frames := r.replayFrames()
	require.Len(t, frames, 2)

	byArgs := make(map[string][]string)
	for _, f := range frames {
		assert.Equal(t, opSubscribe, f.Op)
		byArgs[f.Args[0]] = f.Args
	}
	assert.Equal(t, []string{"liquidation:BTC", "liquidation:ETH"},
		byArgs["liquidation:BTC"])
	assert.Equal(t, []string{"trade:BTCUSDT:Binance"},
		byArgs["trade:BTCUSDT:Binance"])
}

func TestRegistryReplayEqualsPreDisconnectState(t *testing.T) {
	r := newRegistry()
	r.addParams("liquidation", []string{"BTC", "ETH"})
	r.addParams("funding", []string{"BTC"})
	r.removeParams("funding", []string{"BTC"})
	r.addParams("liquidation", []string{"SOL"})
	r.removeParams("liquidation", []string{"ETH"})

	frames := r.replayFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, []string{"liquidation:BTC", "liquidation:SOL"}, frames[0].Args)
}
