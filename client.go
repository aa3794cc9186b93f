package coinglass

import (
	"time"

	"github.com/coreward/coinglass-connector/pkg/config"
	"github.com/coreward/coinglass-connector/pkg/logging"
	"github.com/coreward/coinglass-connector/pkg/ratelimit"
	"github.com/coreward/coinglass-connector/pkg/rest"
	"github.com/coreward/coinglass-connector/pkg/websocket"
)

// Client bundles the REST domain services and the streaming client behind a
// single API key.
type Client struct {
	rest   *rest.Client
	stream *websocket.Client
}

// Option customizes the client.
type Option func(*settings)

type settings struct {
	logger logging.Logger
	rest   rest.Config
	ws     websocket.Config
}

// WithLogger sets the logger used by both clients.
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithBaseURL overrides the REST endpoint.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.rest.BaseURL = u }
}

// WithWebSocketURL overrides the streaming endpoint.
func WithWebSocketURL(u string) Option {
	return func(s *settings) { s.ws.URL = u }
}

// WithRateLimit sets the REST request pacing.
func WithRateLimit(rate ratelimit.Rate) Option {
	return func(s *settings) { s.rest.RateLimit = rate }
}

// WithRetryPolicy sets the REST retry attempt cap and base delay.
func WithRetryPolicy(maxRetries uint, delay time.Duration) Option {
	return func(s *settings) {
		s.rest.MaxRetries = maxRetries
		s.rest.RetryDelay = delay
	}
}

// WithHeartbeatInterval sets the streaming keepalive period.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *settings) { s.ws.HeartbeatInterval = d }
}

// WithReconnectPolicy sets the streaming reconnect base delay and attempt
// cap.
func WithReconnectPolicy(interval time.Duration, maxAttempts int) Option {
	return func(s *settings) {
		s.ws.ReconnectInterval = interval
		s.ws.MaxReconnectAttempts = maxAttempts
	}
}

// New creates a client authenticated by apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	s.rest.APIKey = apiKey
	s.ws.APIKey = apiKey
	if s.logger != nil {
		s.rest.Logger = s.logger
		s.ws.Logger = s.logger
	}

	restClient, err := rest.NewClient(s.rest)
	if err != nil {
		return nil, err
	}
	return &Client{
		rest:   restClient,
		stream: websocket.NewClient(s.ws),
	}, nil
}

// NewFromConfig creates a client from a loaded configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	base := []Option{
		WithBaseURL(cfg.REST.BaseURL),
		WithWebSocketURL(cfg.WebSocket.URL),
		WithRetryPolicy(cfg.REST.MaxRetries, cfg.REST.RetryDelay),
		WithHeartbeatInterval(cfg.WebSocket.HeartbeatInterval),
		WithReconnectPolicy(cfg.WebSocket.ReconnectInterval, cfg.WebSocket.MaxReconnectAttempts),
	}
	if cfg.REST.RateLimitPerSec > 0 {
		base = append(base, WithRateLimit(ratelimit.Rate{
			Limit:    cfg.REST.RateLimitPerSec,
			Interval: time.Second,
		}))
	}
	return New(cfg.APIKey, append(base, opts...)...)
}

// REST returns the underlying REST client.
func (c *Client) REST() *rest.Client { return c.rest }

// Stream returns the streaming client. Subscriptions may be registered
// before Connect.
func (c *Client) Stream() *websocket.Client { return c.stream }

// Futures returns the futures market service.
func (c *Client) Futures() *rest.FuturesService { return c.rest.Futures }

// Spot returns the spot market service.
func (c *Client) Spot() *rest.SpotService { return c.rest.Spot }

// Options returns the options market service.
func (c *Client) Options() *rest.OptionsService { return c.rest.Options }

// ETF returns the Bitcoin and Ethereum ETF service.
func (c *Client) ETF() *rest.ETFService { return c.rest.ETF }

// OnChain returns the exchange on-chain flow service.
func (c *Client) OnChain() *rest.OnChainService { return c.rest.OnChain }

// Indicator returns the market cycle indicator service.
func (c *Client) Indicator() *rest.IndicatorService { return c.rest.Indicator }

// Orderbook returns the orderbook depth service.
func (c *Client) Orderbook() *rest.OrderbookService { return c.rest.Orderbook }

// Price returns the price history service.
func (c *Client) Price() *rest.PriceService { return c.rest.Price }
