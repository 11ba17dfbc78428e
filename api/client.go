// Package api is the authenticated JSON client for the PayBot facilitator API.
//
// Every request carries the bot's API key and id. Non-2xx responses are returned
// as *APIError; transport failures wrap paybot.ErrFacilitatorUnavailable.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	paybot "github.com/RBKunnela/paybot-sdk"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the facilitator.
type APIError struct {
	// Message is the server-supplied error message, if any.
	Message string

	// Code is the server-supplied machine-readable code, if any.
	Code string

	// StatusCode is the HTTP status.
	StatusCode int

	// Details is the server-supplied structured context, if any.
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("paybot api: status %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("paybot api: status %d: %s", e.StatusCode, msg)
}

// errorBody is the {error, code, details} envelope of failed requests.
type errorBody struct {
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

// Client performs authenticated requests against the facilitator.
type Client struct {
	// BaseURL is the facilitator service URL (e.g., "https://api.paybot.dev").
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// BotID is sent in the X-Bot-Id header and used by account endpoints.
	BotID string

	// HTTPClient is the HTTP client to use for requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	// Logger receives debug logs of each request. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// NewClient creates a Client from a bot configuration.
func NewClient(cfg paybot.Config) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(cfg.FacilitatorURL, "/"),
		APIKey:     cfg.APIKey,
		BotID:      cfg.BotID,
		HTTPClient: &http.Client{Timeout: cfg.Timeouts.RequestTimeout},
	}
}

// RequestOption customizes an outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithIdempotencyKey sets the Idempotency-Key header.
func WithIdempotencyKey(key string) RequestOption {
	return WithHeader("Idempotency-Key", key)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Do sends a JSON request and decodes a JSON response into out.
// in and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}, opts ...RequestOption) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.BotID != "" {
		req.Header.Set("X-Bot-Id", c.BotID)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", paybot.ErrFacilitatorUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger().Debug("paybot api request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse extracts error details from a non-2xx HTTP response.
func parseErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errBody errorBody
	if err := json.Unmarshal(bodyBytes, &errBody); err == nil {
		apiErr.Message = errBody.Error
		apiErr.Code = errBody.Code
		if len(errBody.Details) > 0 {
			var details map[string]interface{}
			if err := json.Unmarshal(errBody.Details, &details); err == nil {
				apiErr.Details = details
			} else {
				apiErr.Details = map[string]interface{}{"value": errBody.Details}
			}
		}
	}

	return apiErr
}

// AsAPIError reports whether err is or wraps an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
