package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	coinglass "github.com/coreward/coinglass-connector"
	"github.com/coreward/coinglass-connector/pkg/logging"
	"github.com/coreward/coinglass-connector/pkg/rest"
)

func main() {
	// Create logger
	logger := logging.NewLogger()
	logger.SetLevel(logging.DEBUG)

	apiKey := os.Getenv("COINGLASS_API_KEY")
	if apiKey == "" {
		logger.Error("COINGLASS_API_KEY is not set")
		os.Exit(1)
	}

	client, err := coinglass.New(apiKey,
		coinglass.WithLogger(logger),
		coinglass.WithReconnectPolicy(5*time.Second, 5),
	)
	if err != nil {
		logger.Error("failed to create client", logging.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fetch recent liquidation history over REST
	logger.Info("fetching liquidation history")
	liqs, err := client.Futures().LiquidationHistory(ctx, rest.HistoryParams{
		Symbol:   "BTCUSDT",
		Interval: "1h",
		Limit:    24,
	})
	if err != nil {
		logger.Error("failed to get liquidation history", logging.Error(err))
		os.Exit(1)
	}
	for _, liq := range liqs {
		logger.Info("liquidation interval",
			logging.String("time", time.Unix(liq.Time, 0).Format(time.RFC3339)),
			logging.String("long_usd", liq.LongUSD.String()),
			logging.String("short_usd", liq.ShortUSD.String()),
		)
	}

	// Subscribe to real-time liquidation orders
	logger.Info("subscribing to liquidation orders")
	stream := client.Stream()
	stream.Subscribe("liquidationOrders", []string{"BTC", "ETH"}, func(data json.RawMessage) {
		logger.Info("liquidation order", logging.String("data", string(data)))
	})

	if err := stream.Connect(ctx); err != nil {
		logger.Error("failed to connect stream", logging.Error(err))
		os.Exit(1)
	}
	defer stream.Disconnect()

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
}
