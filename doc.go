// Package coinglass provides a Go client for the Coinglass v3 crypto market
// data API, covering both the REST endpoints and the real-time WebSocket
// stream.
//
// Core Features:
//
//   - Typed REST access to futures, spot, options, ETF, on-chain, indicator,
//     orderbook and price history endpoints
//   - WebSocket subscriptions for real-time data with automatic
//     reconnection and subscription replay
//   - Request rate limiting and retry with backoff
//   - Structured logging throughout
//
// A single API key authenticates everything. Create a client and use the
// domain services for historical data, or the streaming client for live
// updates.
//
// # REST Examples
//
// Fetching liquidation history:
//
//	client, err := coinglass.New("your-api-key")
//	if err != nil {
//	    log.Fatalf("Failed to create client: %v", err)
//	}
//
//	ctx := context.Background()
//	liqs, err := client.Futures().LiquidationHistory(ctx, rest.HistoryParams{
//	    Symbol:   "BTCUSDT",
//	    Interval: "1h",
//	    Limit:    100,
//	})
//	if err != nil {
//	    var apiErr *rest.APIError
//	    if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
//	        log.Fatal("rate limit exceeded, slow down or upgrade the plan")
//	    }
//	    log.Fatalf("Failed to fetch liquidations: %v", err)
//	}
//
//	for _, liq := range liqs {
//	    fmt.Printf("%s long=%s short=%s\n",
//	        time.Unix(liq.Time, 0).Format("15:04"), liq.LongUSD, liq.ShortUSD)
//	}
//
// # Streaming Examples
//
// Subscribing to live liquidation orders:
//
//	stream := client.Stream()
//	stream.Subscribe("liquidationOrders", []string{"BTC", "ETH"}, func(data json.RawMessage) {
//	    fmt.Printf("liquidation: %s\n", data)
//	})
//
//	if err := stream.Connect(ctx); err != nil {
//	    log.Fatalf("Failed to connect: %v", err)
//	}
//	defer stream.Disconnect()
//
// Subscriptions registered before Connect are sent once the server accepts
// the key, and replayed automatically after every reconnect.
package coinglass
