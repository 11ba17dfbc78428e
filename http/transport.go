package http

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	paybot "github.com/RBKunnela/paybot-sdk"
	"github.com/RBKunnela/paybot-sdk/facilitator"
	"github.com/RBKunnela/paybot-sdk/http/internal/helpers"
	"github.com/RBKunnela/paybot-sdk/validation"
)

// PayBotTransport is a custom RoundTripper that pays 402 Payment Required challenges.
// It wraps an existing http.RoundTripper, pays through Facilitator when the
// challenge is within MaxAutoPay, and replays the request exactly once.
type PayBotTransport struct {
	// Base is the underlying RoundTripper (typically http.DefaultTransport).
	Base http.RoundTripper

	// Facilitator executes payments.
	Facilitator facilitator.Interface

	// MaxAutoPay is the decimal ceiling for automatic payments. Defaults to paybot.DefaultMaxAutoPay.
	MaxAutoPay string

	// Network is the CAIP-2 network to pay on. Defaults to paybot.DefaultNetwork.
	Network string

	// Limiter throttles payments when set.
	Limiter *rate.Limiter

	// Logger receives transport logs. If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnPaymentAttempt is called when a payment attempt is made.
	OnPaymentAttempt paybot.PaymentCallback

	// OnPaymentSuccess is called when a payment succeeds.
	OnPaymentSuccess paybot.PaymentCallback

	// OnPaymentFailure is called when a payment fails.
	OnPaymentFailure paybot.PaymentCallback
}

func (t *PayBotTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *PayBotTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// RoundTrip implements http.RoundTripper.
func (t *PayBotTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	// Clone the request to avoid modifying the original
	reqCopy, err := cloneRequest(req, getBody)
	if err != nil {
		return nil, err
	}

	resp, err := t.base().RoundTrip(reqCopy)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	logger := t.logger().With("url", req.URL.String())

	body, err := helpers.BufferBody(resp)
	if err != nil {
		logger.Warn("failed to read payment challenge, returning it unpaid", "error", err)
		return resp, nil
	}

	challenge, ok := helpers.ParseChallenge(resp.Header, body)
	if !ok {
		logger.Warn("unrecognized payment challenge, returning it unpaid")
		return resp, nil
	}

	logger.Debug("payment challenge", "source", challenge.Source, "amount", challenge.Amount, "payTo", challenge.PayTo)

	if err := validation.ValidateBaseUnits(challenge.Amount); err != nil {
		logger.Warn("invalid challenge amount, returning it unpaid", "source", challenge.Source, "error", err)
		return resp, nil
	}
	units, _ := paybot.ParseBaseUnits(challenge.Amount)
	amount := paybot.FormatBaseUnits(units)

	ceiling := t.MaxAutoPay
	if ceiling == "" {
		ceiling = paybot.DefaultMaxAutoPay
	}
	ceilingUnits, err := paybot.DecimalToBaseUnits(ceiling)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("invalid auto-pay limit %q: %w", ceiling, err)
	}
	limit, _ := paybot.ParseBaseUnits(ceilingUnits)

	if units.Cmp(limit) > 0 {
		resp.Body.Close()
		logger.Warn("payment exceeds auto-pay limit", "amount", amount, "limit", ceiling)
		return nil, paybot.NewPaymentError(paybot.ErrCodeAmountExceeded,
			fmt.Sprintf("payment of %s exceeds auto-pay limit of %s", amount, ceiling),
			paybot.ErrAmountExceeded).
			WithDetails("amount", amount).
			WithDetails("limit", ceiling)
	}

	if t.Facilitator == nil {
		resp.Body.Close()
		return nil, paybot.NewPaymentError(paybot.ErrCodePaymentFailed, "no facilitator configured", paybot.ErrPaymentFailed)
	}

	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("payment rate limit: %w", err)
		}
	}

	network := t.Network
	if network == "" {
		network = paybot.DefaultNetwork
	}
	paymentReq := paybot.PaymentRequest{
		Resource: req.URL.String(),
		Amount:   amount,
		PayTo:    challenge.PayTo,
		Network:  network,
	}

	startTime := time.Now()
	t.emit(t.OnPaymentAttempt, paybot.PaymentEvent{
		Type:      paybot.PaymentEventAttempt,
		Timestamp: startTime,
		URL:       paymentReq.Resource,
		Amount:    amount,
		Network:   network,
		Recipient: challenge.PayTo,
	})

	outcome := t.Facilitator.Pay(req.Context(), paymentReq)
	duration := time.Since(startTime)

	if !outcome.Success {
		resp.Body.Close()
		payErr := paybot.NewPaymentError(paybot.ErrCodePaymentFailed,
			fmt.Sprintf("payment failed: %s", outcome.Error),
			paybot.ErrPaymentFailed).
			WithDetails("code", outcome.ErrorCode)
		for k, v := range outcome.ErrorDetails {
			payErr.WithDetails(k, v)
		}
		t.emit(t.OnPaymentFailure, paybot.PaymentEvent{
			Type:      paybot.PaymentEventFailure,
			Timestamp: time.Now(),
			URL:       paymentReq.Resource,
			Amount:    amount,
			Network:   network,
			Recipient: challenge.PayTo,
			Outcome:   &outcome,
			Error:     payErr,
			Duration:  duration,
		})
		return nil, payErr
	}

	t.emit(t.OnPaymentSuccess, paybot.PaymentEvent{
		Type:        paybot.PaymentEventSuccess,
		Timestamp:   time.Now(),
		URL:         paymentReq.Resource,
		Amount:      amount,
		Network:     outcome.Network,
		Recipient:   challenge.PayTo,
		Transaction: outcome.Transaction,
		Outcome:     &outcome,
		Duration:    duration,
	})

	resp.Body.Close()

	// Clone the request again for the retry
	reqRetry, err := cloneRequest(req, getBody)
	if err != nil {
		return nil, err
	}
	reqRetry.Header.Set(helpers.HeaderPaymentProof, outcome.Transaction)
	reqRetry.Header.Set(helpers.HeaderPaymentFacilitator, paybot.FacilitatorName)

	logger.Debug("retrying request with payment proof", "transaction", outcome.Transaction)
	return t.base().RoundTrip(reqRetry)
}

func (t *PayBotTransport) emit(cb paybot.PaymentCallback, event paybot.PaymentEvent) {
	if cb != nil {
		cb(event)
	}
}

// replayableBody returns a function producing fresh copies of the request body,
// buffering the body when the request cannot replay it itself.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func cloneRequest(req *http.Request, getBody func() (io.ReadCloser, error)) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		clone.Body = body
		clone.GetBody = getBody
	}
	return clone, nil
}
