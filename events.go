package paybot

import "time"

// PaymentEventType represents the type of payment event.
type PaymentEventType string

const (
	// PaymentEventAttempt indicates a payment is being attempted.
	PaymentEventAttempt PaymentEventType = "attempt"

	// PaymentEventSuccess indicates a payment succeeded.
	PaymentEventSuccess PaymentEventType = "success"

	// PaymentEventFailure indicates a payment failed.
	PaymentEventFailure PaymentEventType = "failure"
)

// PaymentEvent represents a payment lifecycle event emitted by the auto-pay transport.
type PaymentEvent struct {
	// Type is the event type (attempt, success, failure).
	Type PaymentEventType

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// URL is the HTTP URL being accessed.
	URL string

	// Amount is the decimal payment amount.
	Amount string

	// Network is the blockchain network identifier (CAIP-2 format).
	Network string

	// Recipient is the payment recipient address.
	Recipient string

	// Transaction is the blockchain transaction hash (available on success).
	Transaction string

	// Outcome is the facilitator outcome (success and failure events).
	Outcome *PaymentOutcome

	// Error contains error details (available on failure).
	Error error

	// Duration is the time taken for the payment operation.
	Duration time.Duration
}

// PaymentCallback is a function that handles payment events.
// Callbacks are invoked synchronously during payment processing, so they
// should be fast to avoid blocking the payment flow.
type PaymentCallback func(PaymentEvent)
