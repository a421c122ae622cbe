package contactapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/me/contactbook/pkg/model"
)

// Authenticate exchanges credentials for a bearer token.
// An empty token in the reply is reported as ErrEmptyToken.
func (c *Client) Authenticate(ctx context.Context, creds model.Credentials) (string, error) {
	return c.tokenCall(ctx, "Authenticate", "/Authenticate/", creds)
}

// Register creates an ordinary user account and returns its bearer token.
func (c *Client) Register(ctx context.Context, reg model.Registration) (string, error) {
	return c.tokenCall(ctx, "Register", "/Registration/", reg)
}

// AdminRegister creates an administrator account. It succeeds iff the API
// answers with a 2xx status; the caller's session is left untouched.
func (c *Client) AdminRegister(ctx context.Context, reg model.Registration) error {
	const op = "AdminRegister"
	if err := c.requireToken(op); err != nil {
		return err
	}
	_, err := c.call(ctx, op, http.MethodPost, "/AdminRegistration/", reg)
	return err
}

func (c *Client) tokenCall(ctx context.Context, op, path string, payload any) (string, error) {
	resp, err := c.call(ctx, op, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}

	var tr model.TokenResponse
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, &tr); err != nil {
			return "", WrapError(op, fmt.Errorf("unmarshaling token response: %w", err))
		}
	}
	if tr.AccessToken == "" {
		return "", WrapError(op, ErrEmptyToken)
	}
	return tr.AccessToken, nil
}

// CheckToken asks the API whether the client's token is still valid.
// Any failure (no token, transport error, non-2xx, unexpected body) yields
// false. It never retries.
func (c *Client) CheckToken(ctx context.Context) bool {
	const op = "CheckToken"
	if c.config.Token == "" {
		return false
	}

	// Validation is a one-shot probe regardless of the configured retries.
	probe := *c
	probe.config.MaxRetries = 0

	resp, err := probe.send(ctx, op, http.MethodGet, "/CheckToken", nil)
	if err != nil {
		c.logger.Debug("token check failed", "error", err)
		return false
	}
	if !resp.ok() {
		return false
	}
	return strings.EqualFold(unquote(resp.Body), "true")
}

// unquote trims the body and strips one layer of JSON string quoting.
func unquote(body []byte) string {
	text := strings.TrimSpace(string(body))
	var s string
	if strings.HasPrefix(text, `"`) && json.Unmarshal([]byte(text), &s) == nil {
		return strings.TrimSpace(s)
	}
	return text
}

// Ping reports whether the API answers at all. Any HTTP status counts as
// reachable; only transport failures are returned.
func (c *Client) Ping(ctx context.Context) error {
	probe := *c
	probe.config.MaxRetries = 0
	probe.config.Token = ""
	_, err := probe.send(ctx, "Ping", http.MethodGet, "/CheckToken", nil)
	return err
}
