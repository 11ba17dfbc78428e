package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	paybot "github.com/RBKunnela/paybot-sdk"
	"github.com/RBKunnela/paybot-sdk/facilitator"
)

// Client is an HTTP client that automatically pays PayBot 402 challenges.
// It wraps a standard http.Client and adds payment handling via a custom RoundTripper.
type Client struct {
	*http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// NewClient creates a new auto-paying HTTP client.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		Client: &http.Client{},
	}

	if client.Transport == nil {
		client.Transport = http.DefaultTransport
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// NewClientFromConfig creates a client that pays through the facilitator in cfg.
// signer may be nil for trust-based payments.
func NewClientFromConfig(cfg paybot.Config, signer paybot.TypedDataSigner, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []ClientOption{
		WithFacilitator(NewFacilitatorClient(cfg, signer)),
		WithMaxAutoPay(cfg.MaxAutoPay),
		WithNetwork(cfg.Network),
		WithRequestTimeout(cfg.Timeouts.RequestTimeout),
	}
	return NewClient(append(base, opts...)...)
}

// WithHTTPClient sets a custom underlying HTTP client.
// Apply it before any other option; it replaces the client they configure.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		c.Client = httpClient
		if c.Transport == nil {
			c.Transport = http.DefaultTransport
		}
		return nil
	}
}

// WithFacilitator sets the facilitator that executes payments.
func WithFacilitator(f facilitator.Interface) ClientOption {
	return func(c *Client) error {
		if f == nil {
			return fmt.Errorf("facilitator cannot be nil")
		}
		getOrCreateTransport(c).Facilitator = f
		return nil
	}
}

// WithMaxAutoPay sets the largest decimal amount paid automatically.
func WithMaxAutoPay(amount string) ClientOption {
	return func(c *Client) error {
		if _, err := paybot.DecimalToBaseUnits(amount); err != nil {
			return fmt.Errorf("invalid auto-pay limit: %w", err)
		}
		getOrCreateTransport(c).MaxAutoPay = amount
		return nil
	}
}

// WithNetwork sets the CAIP-2 network payments are made on.
func WithNetwork(network string) ClientOption {
	return func(c *Client) error {
		if _, ok := paybot.LookupChain(network); !ok {
			return fmt.Errorf("%w: %s", paybot.ErrInvalidNetwork, network)
		}
		getOrCreateTransport(c).Network = network
		return nil
	}
}

// WithPaymentRateLimit allows at most r payments per second with the given burst.
func WithPaymentRateLimit(r rate.Limit, burst int) ClientOption {
	return func(c *Client) error {
		if burst < 1 {
			return fmt.Errorf("rate limit burst must be at least 1, got %d", burst)
		}
		getOrCreateTransport(c).Limiter = rate.NewLimiter(r, burst)
		return nil
	}
}

// WithLogger sets the logger of the payment transport.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		getOrCreateTransport(c).Logger = logger
		return nil
	}
}

// WithRequestTimeout bounds each call, including payment and replay.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("request timeout cannot be negative: %v", d)
		}
		c.Timeout = d
		return nil
	}
}

// WithPaymentCallback sets a callback for a specific payment event type.
func WithPaymentCallback(eventType paybot.PaymentEventType, callback paybot.PaymentCallback) ClientOption {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)

		switch eventType {
		case paybot.PaymentEventAttempt:
			transport.OnPaymentAttempt = callback
		case paybot.PaymentEventSuccess:
			transport.OnPaymentSuccess = callback
		case paybot.PaymentEventFailure:
			transport.OnPaymentFailure = callback
		default:
			return fmt.Errorf("unknown payment event type: %s", eventType)
		}

		return nil
	}
}

// WithPaymentCallbacks sets all payment callbacks at once.
// Pass nil for any callback you don't want to set.
func WithPaymentCallbacks(onAttempt, onSuccess, onFailure paybot.PaymentCallback) ClientOption {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)

		if onAttempt != nil {
			transport.OnPaymentAttempt = onAttempt
		}
		if onSuccess != nil {
			transport.OnPaymentSuccess = onSuccess
		}
		if onFailure != nil {
			transport.OnPaymentFailure = onFailure
		}

		return nil
	}
}

// getOrCreateTransport gets the PayBotTransport or creates one if it doesn't exist.
func getOrCreateTransport(c *Client) *PayBotTransport {
	transport, ok := c.Transport.(*PayBotTransport)
	if !ok {
		transport = &PayBotTransport{
			Base: c.Transport,
		}
		c.Transport = transport
	}
	return transport
}
