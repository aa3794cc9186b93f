package websocket

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreward/coinglass-connector/pkg/logging"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func newTestClient(t *testing.T, url string, mutate func(*Config)) *Client {
	t.Helper()

	logger := logging.NewLogger()
	logger.SetOutput(io.Discard)

	cfg := Config{
		URL:                  url,
		APIKey:               "test-key",
		HeartbeatInterval:    50 * time.Millisecond,
		ReconnectInterval:    50 * time.Millisecond,
		MaxReconnectAttempts: 3,
		Logger:               logger,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	c := NewClient(cfg)
	t.Cleanup(func() {
		if c.IsRunning() {
			c.Disconnect()
		}
	})
	return c
}

func waitForStatus(t *testing.T, c *Client, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Status() == want
	}, waitFor, tick, "status never reached %s", want)
}

func TestConnectAuthenticates(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	auths := srv.FramesByOp(opAuth)
	require.Len(t, auths, 1)
	var args []map[string]string
	require.NoError(t, json.Unmarshal(auths[0].Args, &args))
	require.Len(t, args, 1)
	assert.Equal(t, "test-key", args[0]["apiKey"])
}

func TestConnectWhileRunningIsNoop(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	require.NoError(t, c.Connect(context.Background()))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, srv.OpenCount())
}

func TestConnectDialFailure(t *testing.T) {
	srv := setupMockServer(t)
	srv.SetReject(true)
	c := newTestClient(t, srv.URL(), nil)

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, c.IsRunning())
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestSubscribeSendsSingleBundledFrame(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	c.Subscribe("liquidation", []string{"BTC", "ETH"}, func(json.RawMessage) {})

	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opSubscribe)) == 1
	}, waitFor, tick)

	frames := srv.FramesByOp(opSubscribe)
	assert.Equal(t, []string{"liquidation:BTC", "liquidation:ETH"}, frames[0].argStrings())
}

func TestSubscribeIsIdempotentOnTheWire(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	handler := func(json.RawMessage) {}
	c.Subscribe("liquidation", []string{"BTC", "ETH"}, handler)
	c.Subscribe("liquidation", []string{"BTC", "ETH"}, handler)

	time.Sleep(200 * time.Millisecond)
	assert.Len(t, srv.FramesByOp(opSubscribe), 1)
}

func TestSubscribePartialOverlapSendsOnlyDelta(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	c.Subscribe("liquidation", []string{"BTC", "ETH"}, func(json.RawMessage) {})
	c.Subscribe("liquidation", []string{"ETH", "SOL"}, func(json.RawMessage) {})

	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opSubscribe)) == 2
	}, waitFor, tick)

	frames := srv.FramesByOp(opSubscribe)
	assert.Equal(t, []string{"liquidation:BTC", "liquidation:ETH"}, frames[0].argStrings())
	assert.Equal(t, []string{"liquidation:SOL"}, frames[1].argStrings())
}

func TestSubscribeEmptyArgumentsRejected(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	c.Subscribe("", []string{"BTC"}, func(json.RawMessage) {})
	c.Subscribe("liquidation", nil, func(json.RawMessage) {})

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, srv.FramesByOp(opSubscribe))
}

func TestSubscribeBeforeConnectIsReplayedAfterAuth(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	c.Subscribe("trade", []string{"BTCUSDT:Binance"}, func(json.RawMessage) {})
	assert.Empty(t, srv.Frames())

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opSubscribe)) == 1
	}, waitFor, tick)
	frames := srv.FramesByOp(opSubscribe)
	assert.Equal(t, []string{"trade:BTCUSDT:Binance"}, frames[0].argStrings())
}

func TestReplayAfterReconnect(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	c.Subscribe("liquidation", []string{"BTC", "ETH"}, func(json.RawMessage) {})
	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opSubscribe)) == 1
	}, waitFor, tick)

	srv.ClearFrames()
	srv.DropConnections()

	require.Eventually(t, func() bool {
		return srv.OpenCount() == 2 && c.Status() == StatusAuthenticated
	}, waitFor, tick)

	// Exactly one bundled subscribe frame after the post-reconnect auth.
	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opSubscribe)) == 1
	}, waitFor, tick)
	frames := srv.FramesByOp(opSubscribe)
	assert.Equal(t, []string{"liquidation:BTC", "liquidation:ETH"}, frames[0].argStrings())
}

func TestAuthFailureLeavesClientConnected(t *testing.T) {
	srv := setupMockServer(t)
	srv.SetAuthResult(false, "bad key")
	c := newTestClient(t, srv.URL(), nil)

	c.Subscribe("liquidation", []string{"BTC"}, func(json.RawMessage) {})

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusConnected)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, StatusConnected, c.Status())
	assert.Empty(t, srv.FramesByOp(opSubscribe))
	assert.True(t, c.IsRunning())
}

func TestUnsubscribeRemovesOnlyIntersection(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	c.Subscribe("liquidation", []string{"BTC", "ETH"}, func(json.RawMessage) {})
	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opSubscribe)) == 1
	}, waitFor, tick)

	c.Unsubscribe("liquidation", []string{"ETH", "XRP"}, nil)

	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opUnsubscribe)) == 1
	}, waitFor, tick)
	frames := srv.FramesByOp(opUnsubscribe)
	assert.Equal(t, []string{"liquidation:ETH"}, frames[0].argStrings())

	// BTC is still desired: a reconnect replays it.
	srv.ClearFrames()
	srv.DropConnections()
	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opSubscribe)) == 1
	}, waitFor, tick)
	assert.Equal(t, []string{"liquidation:BTC"},
		srv.FramesByOp(opSubscribe)[0].argStrings())
}

func TestUnsubscribeUnknownChannelSendsNothing(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	c.Unsubscribe("funding", []string{"BTC"}, nil)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, srv.FramesByOp(opUnsubscribe))
}

func TestDispatchInvokesHandlersInOrder(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	var mu sync.Mutex
	var order []string
	c.Subscribe("trade", []string{"BTCUSDT:Binance"}, func(json.RawMessage) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	c.Subscribe("trade", []string{"BTCUSDT:Binance"}, func(json.RawMessage) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	})

	srv.Push("trade", map[string]any{"price": 50000})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	var mu sync.Mutex
	var delivered int
	c.Subscribe("liquidation", []string{"BTC"}, func(json.RawMessage) {
		panic("handler exploded")
	})
	c.Subscribe("liquidation", []string{"BTC"}, func(json.RawMessage) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	srv.Push("liquidation", map[string]any{"volUsd": 1})
	srv.Push("liquidation", map[string]any{"volUsd": 2})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered == 2
	}, waitFor, tick)
}

func TestDispatchPassesInnerPayloadOnly(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	payloads := make(chan json.RawMessage, 1)
	c.Subscribe("liquidation", []string{"BTC"}, func(data json.RawMessage) {
		payloads <- data
	})

	srv.Push("liquidation", map[string]any{"symbol": "BTC", "volUsd": 12345.6})

	select {
	case data := <-payloads:
		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "BTC", got["symbol"])
		assert.NotContains(t, got, "channel")
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for payload")
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	received := make(chan struct{}, 1)
	c.Subscribe("trade", []string{"BTCUSDT:Binance"}, func(json.RawMessage) {
		received <- struct{}{}
	})

	srv.PushRaw([]byte(`{not json`))
	srv.PushRaw([]byte(`{"unexpected":"shape"}`))
	srv.Push("trade", map[string]any{"price": 1})

	select {
	case <-received:
	case <-time.After(waitFor):
		t.Fatal("valid frame after garbage was not dispatched")
	}
	assert.Equal(t, StatusAuthenticated, c.Status())
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), func(cfg *Config) {
		cfg.ReconnectInterval = 20 * time.Millisecond
		cfg.MaxReconnectAttempts = 2
	})

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	srv.SetReject(true)
	srv.DropConnections()

	require.Eventually(t, func() bool {
		return !c.IsRunning()
	}, waitFor, tick, "client never gave up")

	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Equal(t, 1, srv.OpenCount(), "no reconnect should have succeeded")

	// Terminal state persists until an explicit Connect.
	time.Sleep(200 * time.Millisecond)
	assert.False(t, c.IsRunning())

	srv.SetReject(false)
	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)
	assert.Equal(t, 2, srv.OpenCount())
}

func TestDisconnectDuringBackoffAbortsReconnect(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), func(cfg *Config) {
		cfg.ReconnectInterval = 500 * time.Millisecond
	})

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	srv.DropConnections()
	require.Eventually(t, func() bool {
		return c.Status() == StatusDisconnected
	}, waitFor, tick)

	// The supervisor is now sleeping through its first backoff.
	c.Disconnect()
	assert.False(t, c.IsRunning())

	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, 1, srv.OpenCount(), "no reconnect may happen after Disconnect")
}

func TestDisconnectWhileNotRunningIsNoop(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	c.Disconnect()
	assert.False(t, c.IsRunning())
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestHeartbeatSendsPings(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), func(cfg *Config) {
		cfg.HeartbeatInterval = 30 * time.Millisecond
	})

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	require.Eventually(t, func() bool {
		return len(srv.FramesByOp(opPing)) >= 2
	}, waitFor, tick)

	c.Disconnect()
	srv.ClearFrames()
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, srv.FramesByOp(opPing), "heartbeat must stop after Disconnect")
}

func TestServerErrorFrameIsNonFatal(t *testing.T) {
	srv := setupMockServer(t)
	c := newTestClient(t, srv.URL(), nil)

	require.NoError(t, c.Connect(context.Background()))
	waitForStatus(t, c, StatusAuthenticated)

	srv.PushRaw([]byte(`{"event":"error","message":"subscription limit reached"}`))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StatusAuthenticated, c.Status())
	assert.True(t, c.IsRunning())
}
