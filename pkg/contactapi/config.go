// Package contactapi is the client for the remote contacts and identity API.
// Every operation performs exactly one logical HTTP call; the bearer token is
// attached per request and never stored on shared state.
package contactapi

import "time"

// DefaultBaseURL is the development address of the remote API.
const DefaultBaseURL = "https://localhost:7037"

// Default client settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 0
	DefaultRetryDelay = 500 * time.Millisecond
)

// Config holds all configuration for the API client.
type Config struct {
	// BaseURL is the scheme and host of the remote API, without the /api/values prefix.
	BaseURL string

	// Token is the bearer token sent with every request. Usually set per
	// request through Client.WithToken rather than here.
	Token string

	// Timeout is the HTTP client timeout for each request.
	Timeout time.Duration

	// MaxRetries applies to idempotent GET requests only.
	MaxRetries int

	// RetryDelay is the initial delay between retries (exponential backoff applied).
	RetryDelay time.Duration

	// InsecureSkipVerify disables TLS certificate checks, for development
	// certificates on localhost.
	InsecureSkipVerify bool
}

// DefaultConfig returns a Config with development defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// WithBaseURL returns a copy of the config pointing at baseURL.
func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = baseURL
	return c
}

// WithToken returns a copy of the config with the specified token.
func (c Config) WithToken(token string) Config {
	c.Token = token
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithRetries returns a copy of the config with the specified retry settings.
func (c Config) WithRetries(maxRetries int, retryDelay time.Duration) Config {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
	return c
}
