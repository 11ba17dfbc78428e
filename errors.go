package paybot

import "errors"

// Sentinel errors for PayBot payment operations.
var (
	// ErrAmountExceeded indicates the requested payment exceeds the auto-pay ceiling.
	ErrAmountExceeded = errors.New("paybot: payment amount exceeds auto-pay limit")

	// ErrPaymentFailed indicates the facilitator declined or failed to settle a payment.
	ErrPaymentFailed = errors.New("paybot: payment failed")

	// ErrInvalidAmount indicates an invalid amount string.
	ErrInvalidAmount = errors.New("paybot: invalid amount")

	// ErrInvalidKey indicates an invalid private key.
	ErrInvalidKey = errors.New("paybot: invalid private key")

	// ErrInvalidNetwork indicates an unsupported network.
	ErrInvalidNetwork = errors.New("paybot: invalid or unsupported network")

	// ErrInvalidAddress indicates a malformed payee or token address.
	ErrInvalidAddress = errors.New("paybot: invalid address")

	// ErrUnknownSigningDomain indicates no EIP-712 signing domain is registered for a network.
	ErrUnknownSigningDomain = errors.New("paybot: unknown signing domain")

	// ErrSigningFailed indicates the payment signing operation failed.
	ErrSigningFailed = errors.New("paybot: payment signing failed")

	// ErrFacilitatorUnavailable indicates the facilitator could not be reached.
	ErrFacilitatorUnavailable = errors.New("paybot: facilitator service unavailable")

	// ErrInvalidConfig indicates a configuration value is missing or malformed.
	ErrInvalidConfig = errors.New("paybot: invalid configuration")
)

// ErrorCode represents payment error codes for programmatic handling.
type ErrorCode string

const (
	// ErrCodeAmountExceeded indicates payment exceeds the local ceiling.
	ErrCodeAmountExceeded ErrorCode = "AMOUNT_EXCEEDED"

	// ErrCodePaymentFailed indicates the facilitator did not settle the payment.
	ErrCodePaymentFailed ErrorCode = "PAYMENT_FAILED"

	// ErrCodeInvalidRequest indicates the payment request could not be built.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrCodeUnknownSigningDomain indicates no signing domain exists for the network.
	ErrCodeUnknownSigningDomain ErrorCode = "UNKNOWN_SIGNING_DOMAIN"

	// ErrCodeSigningFailed indicates signing operation failed.
	ErrCodeSigningFailed ErrorCode = "SIGNING_FAILED"

	// ErrCodeNetworkError indicates network communication error.
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"

	// ErrCodeVerificationFailed indicates /verify rejected the payment without a code.
	ErrCodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"

	// ErrCodeSettlementFailed indicates /settle rejected the payment without a code.
	ErrCodeSettlementFailed ErrorCode = "SETTLEMENT_FAILED"
)

// PaymentError provides structured error information.
type PaymentError struct {
	// Code is the error code for programmatic handling.
	Code ErrorCode

	// Message is the human-readable error message.
	Message string

	// Details contains additional error context.
	Details map[string]interface{}

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given code and message.
func NewPaymentError(code ErrorCode, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// WithDetails adds additional context to the error.
// Lazily initializes the Details map if nil.
func (e *PaymentError) WithDetails(key string, value interface{}) *PaymentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
