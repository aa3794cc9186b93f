package rest

import (
	"errors"
	"fmt"
)

// Validation sentinels returned before any request is made.
var (
	// ErrMissingAPIKey is returned by NewClient when no API key is set.
	ErrMissingAPIKey = errors.New("coinglass: API key is required")

	// ErrInvalidInterval is returned when a candle interval is not one the
	// API accepts.
	ErrInvalidInterval = errors.New("coinglass: invalid interval")

	// ErrInvalidMarketType is returned when a market type is neither
	// "futures" nor "spot".
	ErrInvalidMarketType = errors.New("coinglass: invalid market type")
)

// API-level error codes carried in the response envelope.
const (
	codeAPIKeyMissing = "30001"
	codeRateLimited   = "50001"
)

// APIError is an error reported by the Coinglass API, either as a non-zero
// envelope code on HTTP 200 or as a non-retryable HTTP status.
type APIError struct {
	// Code is the envelope error code, empty for plain HTTP failures.
	Code string

	// Message is the server-provided description.
	Message string

	// HTTPStatus is set when the failure was an HTTP status rather than an
	// envelope code.
	HTTPStatus int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("coinglass api error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("coinglass http error %d: %s", e.HTTPStatus, e.Message)
}

// IsRateLimited reports whether the API rejected the request for exceeding
// the plan's rate limit.
func (e *APIError) IsRateLimited() bool {
	return e.Code == codeRateLimited
}

// IsAuthError reports whether the API rejected the request for a missing or
// invalid key.
func (e *APIError) IsAuthError() bool {
	return e.Code == codeAPIKeyMissing || e.HTTPStatus == 401 || e.HTTPStatus == 403
}
