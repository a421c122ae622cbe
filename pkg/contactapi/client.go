package contactapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

// apiPrefix is the path every remote operation lives under.
const apiPrefix = "/api/values"

// Observer is notified once per logical API call. status is 0 when no
// response was received.
type Observer interface {
	ObserveCall(op string, status int, err error, elapsed time.Duration)
}

// Client provides methods to interact with the remote contacts API.
// A Client is safe for concurrent use; WithToken derives per-request copies
// that share the underlying HTTP client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
	observer   Observer
}

// NewClient creates a new API client with the given configuration.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // development certificates
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		config: config,
		logger: logger.With("component", "contactapi-client"),
	}
}

// SetObserver installs a call observer. It must be called before the client
// is shared between goroutines.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// WithToken returns a copy of the client that sends token as its bearer
// credential. The receiver is not modified.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.config = c.config.WithToken(token)
	return &cp
}

// Token returns the bearer token this client sends.
func (c *Client) Token() string {
	return c.config.Token
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// response is a raw HTTP response body with its status.
type response struct {
	Status int
	Body   []byte
}

func (r *response) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// asError converts a non-2xx response into an *HTTPError.
func (r *response) asError() error {
	if r.ok() {
		return nil
	}
	return &HTTPError{StatusCode: r.Status, Body: strings.TrimSpace(string(r.Body))}
}

// send performs one logical call. Only GET requests are retried, and only
// when MaxRetries is set. The returned error covers transport failures;
// non-2xx statuses are left for the caller to interpret.
func (c *Client) send(ctx context.Context, op, method, path string, payload any) (*response, error) {
	started := time.Now()
	resp, err := c.sendWithRetry(ctx, op, method, path, payload)

	if c.observer != nil {
		status := 0
		if resp != nil {
			status = resp.Status
		}
		obsErr := err
		if obsErr == nil && resp != nil {
			obsErr = resp.asError()
		}
		c.observer.ObserveCall(op, status, obsErr, time.Since(started))
	}
	return resp, err
}

func (c *Client) sendWithRetry(ctx context.Context, op, method, path string, payload any) (*response, error) {
	logger := c.logger.With("op", op, "method", method, "path", path)

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, WrapError(op, fmt.Errorf("marshaling request: %w", err))
		}
	}

	retries := 0
	if method == http.MethodGet {
		retries = c.config.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			logger.Debug("retrying after delay", "attempt", attempt, "delay", delay)

			select {
			case <-ctx.Done():
				return nil, WrapError(op, ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := c.doRequest(ctx, method, path, body)
		if err == nil {
			if httpErr := resp.asError(); httpErr != nil && IsRetryable(httpErr) && attempt < retries {
				lastErr = httpErr
				logger.Debug("retryable status, will retry", "status", resp.Status, "attempt", attempt)
				continue
			}
			logger.Debug("request complete", "status", resp.Status)
			return resp, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, WrapError(op, err)
		}
		logger.Debug("request failed, will retry", "error", err, "attempt", attempt)
	}

	if retries == 0 {
		return nil, WrapError(op, lastErr)
	}
	return nil, WrapError(op, fmt.Errorf("all retries exhausted: %w", lastErr))
}

// doRequest performs a single HTTP request and reads the whole body.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (*response, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + apiPrefix + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transportError{err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("reading response: %w", err)}
	}

	return &response{Status: httpResp.StatusCode, Body: respBody}, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into T.
func getJSON[T any](ctx context.Context, c *Client, op, path string) (T, error) {
	var result T
	resp, err := c.send(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return result, err
	}
	if err := resp.asError(); err != nil {
		return result, WrapError(op, err)
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return result, WrapError(op, fmt.Errorf("unmarshaling response: %w", err))
	}
	return result, nil
}

// call performs a request and fails on any non-2xx status.
func (c *Client) call(ctx context.Context, op, method, path string, payload any) (*response, error) {
	resp, err := c.send(ctx, op, method, path, payload)
	if err != nil {
		return nil, err
	}
	if err := resp.asError(); err != nil {
		return nil, WrapError(op, err)
	}
	return resp, nil
}

// requireToken guards operations the remote API only accepts with a bearer token.
func (c *Client) requireToken(op string) error {
	if c.config.Token == "" {
		return WrapError(op, ErrNotAuthenticated)
	}
	return nil
}
