// Package http provides the auto-pay HTTP transport and facilitator client for PayBot.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	paybot "github.com/RBKunnela/paybot-sdk"
	"github.com/RBKunnela/paybot-sdk/api"
	"github.com/RBKunnela/paybot-sdk/authorization"
	"github.com/RBKunnela/paybot-sdk/facilitator"
	"github.com/RBKunnela/paybot-sdk/validation"
)

const tracerName = "github.com/RBKunnela/paybot-sdk/http"

// FacilitatorClient executes two-phase payments against the PayBot facilitator.
//
// Pay never returns an error. Every failure, including transport failures, is
// reported as a PaymentOutcome with Success false.
type FacilitatorClient struct {
	// API performs the authenticated requests.
	API *api.Client

	// Signer signs EIP-3009 authorizations. If nil, payments use the bot's trust token.
	Signer paybot.TypedDataSigner

	// Builder creates proofs. If nil, a default builder for API.BotID is used.
	Builder *authorization.Builder

	// Timeouts contains per-phase deadlines applied when the context has none.
	Timeouts paybot.TimeoutConfig

	// Logger receives payment logs. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Verify that FacilitatorClient implements facilitator.Interface.
var _ facilitator.Interface = (*FacilitatorClient)(nil)

// NewFacilitatorClient creates a FacilitatorClient from a bot configuration.
// signer may be nil for trust-based payments.
func NewFacilitatorClient(cfg paybot.Config, signer paybot.TypedDataSigner) *FacilitatorClient {
	return &FacilitatorClient{
		API:      api.NewClient(cfg),
		Signer:   signer,
		Builder:  authorization.NewBuilder(cfg.BotID),
		Timeouts: cfg.Timeouts,
	}
}

func (c *FacilitatorClient) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *FacilitatorClient) builder() *authorization.Builder {
	if c.Builder != nil {
		return c.Builder
	}
	return authorization.NewBuilder(c.API.BotID)
}

// Pay verifies and settles a payment.
func (c *FacilitatorClient) Pay(ctx context.Context, req paybot.PaymentRequest) paybot.PaymentOutcome {
	attemptID := uuid.NewString()
	start := time.Now()
	logger := c.logger().With("attempt", attemptID, "resource", req.Resource)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "paybot.pay",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("paybot.attempt", attemptID),
			attribute.String("paybot.amount", req.Amount),
			attribute.String("paybot.network", req.Network),
		),
	)
	defer span.End()

	outcome := c.pay(ctx, attemptID, req, logger)

	if outcome.Success {
		logger.Info("payment settled",
			"transaction", outcome.Transaction,
			"network", outcome.Network,
			"gross", outcome.GrossAmount,
			"duration", time.Since(start))
		span.SetAttributes(attribute.String("paybot.transaction", outcome.Transaction))
	} else {
		logger.Warn("payment failed", "error", outcome.Error, "code", outcome.ErrorCode, "duration", time.Since(start))
		span.SetStatus(codes.Error, outcome.Error)
	}
	return outcome
}

func (c *FacilitatorClient) pay(ctx context.Context, attemptID string, req paybot.PaymentRequest, logger *slog.Logger) paybot.PaymentOutcome {
	req, err := resolveRequest(req)
	if err != nil {
		return paybot.FailedOutcome(err.Error(), paybot.ErrCodeInvalidRequest)
	}

	value, err := paybot.DecimalToBaseUnits(req.Amount)
	if err != nil {
		return paybot.FailedOutcome(err.Error(), paybot.ErrCodeInvalidRequest)
	}

	proof, err := c.builder().Build(ctx, req.PayTo, value, req.Network, c.Signer)
	if err != nil {
		if errors.Is(err, paybot.ErrUnknownSigningDomain) {
			return paybot.FailedOutcome(err.Error(), paybot.ErrCodeUnknownSigningDomain)
		}
		return paybot.FailedOutcome(err.Error(), paybot.ErrCodeSigningFailed)
	}

	payload := facilitator.Payload{
		X402Version: paybot.X402Version,
		Resource:    req.Resource,
		Accepted:    true,
		Payload:     proof,
	}
	requirements := facilitator.Requirements{
		Scheme:            paybot.SchemeExact,
		Network:           req.Network,
		Asset:             paybot.AssetReference(req.Network, req.Asset),
		Amount:            value,
		PayTo:             req.PayTo,
		MaxTimeoutSeconds: paybot.DefaultMaxTimeoutSeconds,
	}

	// VERIFY_SENT
	logger.Debug("sending verify", "proof", proof.Kind(), "amount", value)
	verifyResp, err := c.verify(ctx, attemptID, facilitator.VerifyRequest{
		BotID:        c.API.BotID,
		Payload:      payload,
		Requirements: requirements,
	})
	if err != nil {
		return failedFromError(err, "verification failed", paybot.ErrCodeVerificationFailed)
	}
	if verifyResp.SettlementToken == "" {
		return paybot.FailedOutcome("verification failed: no settlement token returned", paybot.ErrCodeVerificationFailed)
	}

	// VERIFIED
	commission, err := verifyResp.DecodeCommission()
	if err != nil {
		return paybot.FailedOutcome(fmt.Sprintf("payment failed: failed to decode commission: %v", err), paybot.ErrCodeVerificationFailed)
	}

	settleRequirements := verifyResp.ModifiedRequirements
	if !verifyResp.HasModifiedRequirements() {
		settleRequirements, err = json.Marshal(requirements)
		if err != nil {
			return paybot.FailedOutcome(fmt.Sprintf("payment failed: %v", err), paybot.ErrCodeInvalidRequest)
		}
	}

	// SETTLE_SENT
	logger.Debug("sending settle", "modifiedRequirements", verifyResp.HasModifiedRequirements())
	settleResp, err := c.settle(ctx, attemptID, facilitator.SettleRequest{
		BotID:           c.API.BotID,
		SettlementToken: verifyResp.SettlementToken,
		Payload:         payload,
		Requirements:    settleRequirements,
		Commission:      verifyResp.Commission,
	})
	if err != nil {
		return failedFromError(err, "settlement failed", paybot.ErrCodeSettlementFailed)
	}

	// SETTLED
	return settledOutcome(req, settleResp, commission)
}

func (c *FacilitatorClient) verify(ctx context.Context, attemptID string, body facilitator.VerifyRequest) (*facilitator.VerifyResponse, error) {
	ctx, cancel := withPhaseTimeout(ctx, c.Timeouts.VerifyTimeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "paybot.verify")
	defer span.End()

	var resp facilitator.VerifyResponse
	if err := c.API.Do(ctx, http.MethodPost, "/verify", body, &resp, api.WithIdempotencyKey(attemptID)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &resp, nil
}

func (c *FacilitatorClient) settle(ctx context.Context, attemptID string, body facilitator.SettleRequest) (*facilitator.SettleResponse, error) {
	ctx, cancel := withPhaseTimeout(ctx, c.Timeouts.SettleTimeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "paybot.settle")
	defer span.End()

	var resp facilitator.SettleResponse
	if err := c.API.Do(ctx, http.MethodPost, "/settle", body, &resp, api.WithIdempotencyKey(attemptID)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &resp, nil
}

// Supported queries the facilitator for the networks it settles on.
func (c *FacilitatorClient) Supported(ctx context.Context) (*facilitator.SupportedResponse, error) {
	ctx, cancel := withPhaseTimeout(ctx, c.Timeouts.VerifyTimeout)
	defer cancel()

	var resp facilitator.SupportedResponse
	if err := c.API.Do(ctx, http.MethodGet, "/supported", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// withPhaseTimeout applies timeout only if ctx has no deadline already.
func withPhaseTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// resolveRequest fills in the default network and asset and validates the request.
func resolveRequest(req paybot.PaymentRequest) (paybot.PaymentRequest, error) {
	if req.Network == "" {
		req.Network = paybot.DefaultNetwork
	}
	if req.Asset == "" {
		chain, err := paybot.GetChainConfig(req.Network)
		if err != nil {
			return req, err
		}
		req.Asset = chain.USDCAddress
	}
	if err := validation.ValidatePaymentRequest(req); err != nil {
		return req, err
	}
	return req, nil
}

// failedFromError converts a verify or settle error into a failed outcome.
func failedFromError(err error, phase string, fallback paybot.ErrorCode) paybot.PaymentOutcome {
	apiErr, ok := api.AsAPIError(err)
	if !ok {
		return paybot.FailedOutcome(fmt.Sprintf("payment failed: %v", err), paybot.ErrCodeNetworkError)
	}

	message := apiErr.Message
	if message == "" {
		message = fmt.Sprintf("%s: HTTP %d", phase, apiErr.StatusCode)
	}
	code := paybot.ErrorCode(apiErr.Code)
	if code == "" {
		code = fallback
	}

	outcome := paybot.FailedOutcome(message, code)
	outcome.ErrorDetails = apiErr.Details
	return outcome
}

func settledOutcome(req paybot.PaymentRequest, settle *facilitator.SettleResponse, commission *paybot.Commission) paybot.PaymentOutcome {
	outcome := paybot.PaymentOutcome{
		Success:          true,
		Transaction:      settle.Transaction,
		Network:          settle.Network,
		GrossAmount:      req.Amount,
		NetAmount:        req.Amount,
		CommissionAmount: "0",
	}
	if outcome.Network == "" {
		outcome.Network = req.Network
	}
	if commission == nil {
		return outcome
	}

	if commission.GrossAmount != "" {
		outcome.GrossAmount = commission.GrossAmount.String()
	}
	if commission.NetAmount != "" {
		outcome.NetAmount = commission.NetAmount.String()
	}
	if commission.CommissionAmount != "" {
		outcome.CommissionAmount = commission.CommissionAmount.String()
	}
	if commission.CommissionRate != "" {
		if rate, err := strconv.ParseFloat(commission.CommissionRate.String(), 64); err == nil {
			outcome.CommissionRate = rate
		}
	}
	return outcome
}
