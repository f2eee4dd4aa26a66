// Package backend is the bot's client for the inventory REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/techretail/retailbot/internal/auth"
	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/domain"
	"github.com/techretail/retailbot/internal/logger"
)

// ErrUnavailable is returned when the API cannot be reached or fails with a
// server error. Callers degrade instead of failing the turn.
var ErrUnavailable = errors.New("inventory backend unavailable")

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

// Client calls the inventory API. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  *auth.TokenIssuer
	logger  *slog.Logger
}

// NewClient creates a client from the backend configuration.
func NewClient(cfg config.BackendConfig, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}
	if log == nil {
		log = logger.Discard()
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  log.With("component", "backend"),
	}
	if cfg.AuthSecret != "" {
		c.tokens = auth.NewTokenIssuer(cfg.AuthSecret, "bot", auth.MaxTTL)
	}
	return c, nil
}

// errorBody mirrors the API's error shape.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do sends a request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.TurnID(ctx); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WarnContext(ctx, "Backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.statusError(ctx, method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response from %s %s: %v", ErrUnavailable, method, path, err)
	}
	return nil
}

// statusError maps an error response to a domain error.
func (c *Client) statusError(ctx context.Context, method, path string, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Error == "" {
		eb.Error = strings.TrimSpace(string(raw))
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = domain.ErrNotFound
	case resp.StatusCode == http.StatusConflict && eb.Code == "insufficient_stock":
		kind = domain.ErrInsufficientStock
	case resp.StatusCode == http.StatusConflict && eb.Code == "invalid_transition":
		kind = domain.ErrInvalidTransition
	case resp.StatusCode == http.StatusBadRequest:
		kind = domain.ErrValidation
	default:
		c.logger.ErrorContext(ctx, "Backend returned an error",
			"method", method, "path", path, "status", resp.StatusCode, "body", eb.Error)
		kind = ErrUnavailable
	}
	return fmt.Errorf("%w: %s %s: %d %s", kind, method, path, resp.StatusCode, eb.Error)
}
