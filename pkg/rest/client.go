// Package rest provides typed access to the Coinglass v3 REST API. Each
// market domain (futures, spot, options, ETF, on-chain, indicators,
// orderbook, price history) is exposed as a service on the Client; every
// method builds one GET request and unwraps the standard response envelope.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"

	"github.com/coreward/coinglass-connector/pkg/logging"
	"github.com/coreward/coinglass-connector/pkg/ratelimit"
)

// DefaultBaseURL is the Coinglass v3 REST endpoint.
const DefaultBaseURL = "https://open-api-v3.coinglass.com"

const apiKeyHeader = "CG-API-KEY"

// Config holds REST client configuration. Zero values fall back to the
// package defaults.
type Config struct {
	// BaseURL of the API. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is sent with every request in the CG-API-KEY header. Required.
	APIKey string

	// Timeout applies to each HTTP request. Defaults to 30s.
	Timeout time.Duration

	// RateLimit paces outbound requests. Defaults to 10/s.
	RateLimit ratelimit.Rate

	// MaxRetries bounds attempts per request; 5xx and 429 responses are
	// retried with backoff, everything else fails immediately. Defaults to 3.
	MaxRetries uint

	// RetryDelay is the base delay between attempts. Defaults to 1s.
	RetryDelay time.Duration

	// Logger receives request logging. Defaults to logging.NewLogger().
	Logger logging.Logger

	// HTTPClient overrides the underlying HTTP client, mainly for tests.
	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Interval <= 0 {
		c.RateLimit = ratelimit.Rate{Limit: 10, Interval: time.Second}
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = logging.NewLogger()
	}
	return c
}

// Client is the Coinglass REST client. Access endpoints through the domain
// services, e.g. client.Futures.LiquidationHistory(ctx, params).
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	limiter    ratelimit.RateLimiter
	logger     logging.Logger

	Futures   *FuturesService
	Spot      *SpotService
	Options   *OptionsService
	ETF       *ETFService
	OnChain   *OnChainService
	Indicator *IndicatorService
	Orderbook *OrderbookService
	Price     *PriceService
}

// NewClient creates a REST client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg = cfg.withDefaults()

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: httpClient,
		limiter:    ratelimit.NewTokenBucketLimiter(cfg.RateLimit),
		logger:     cfg.Logger,
	}
	c.Futures = &FuturesService{client: c}
	c.Spot = &SpotService{client: c}
	c.Options = &OptionsService{client: c}
	c.ETF = &ETFService{client: c}
	c.OnChain = &OnChainService{client: c}
	c.Indicator = &IndicatorService{client: c}
	c.Orderbook = &OrderbookService{client: c}
	c.Price = &PriceService{client: c}
	return c, nil
}

// SetRateLimit adjusts request pacing at runtime.
func (c *Client) SetRateLimit(rate ratelimit.Rate) error {
	return c.limiter.SetLimit(rate)
}

// envelope is the standard Coinglass response wrapper. A code other than "0"
// is an API-level error even on HTTP 200.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// get executes a GET request against path and decodes the envelope data into
// out. Retries are limited to transient failures (transport errors, 5xx,
// 429); API-level errors surface as *APIError.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	data, err := c.getRaw(ctx, path, params)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// getRaw is get without the final decode, for endpoints whose payload needs
// reshaping before it fits a typed record.
func (c *Client) getRaw(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := *c.baseURL
	u.Path = path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	log := c.logger.WithFields(
		logging.String("request_id", uuid.NewString()),
		logging.String("path", path),
	)

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
			}
			req.Header.Set(apiKeyHeader, c.cfg.APIKey)
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("http request: %w", err)
			}
			defer resp.Body.Close()

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response body: %w", err)
			}

			if resp.StatusCode >= http.StatusInternalServerError ||
				resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("retryable status %d", resp.StatusCode)
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return retry.Unrecoverable(&APIError{
					HTTPStatus: resp.StatusCode,
					Message:    http.StatusText(resp.StatusCode),
				})
			}

			body = b
			return nil
		},
		retry.Attempts(c.cfg.MaxRetries),
		retry.Delay(c.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retrying request",
				logging.Int("attempt", int(n+1)),
				logging.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if env.Code != "0" {
		return nil, &APIError{Code: env.Code, Message: env.Msg}
	}

	log.Debug("request completed")
	return env.Data, nil
}
