// Package paybot lets an automated client pay for HTTP resources guarded by a
// 402 Payment Required challenge.
//
// A payment is made in two phases against the PayBot facilitator:
//   - /verify checks an authorization proof and returns a settlement token
//   - /settle redeems the token and reports the on-chain transaction
//
// The proof is either a trust token (the facilitator authenticates the bot by its
// API key) or an EIP-3009 transferWithAuthorization signed under EIP-712.
//
// Import path: github.com/RBKunnela/paybot-sdk
package paybot

import "encoding/json"

// X402Version is the protocol version sent in payment payload wrappers.
const X402Version = 1

// SchemeExact is the only payment scheme the facilitator accepts.
const SchemeExact = "exact"

// DefaultMaxTimeoutSeconds is the settlement timeout advertised in requirements.
const DefaultMaxTimeoutSeconds = 300

// FacilitatorName identifies this payment system in the X-Payment-Facilitator header.
const FacilitatorName = "paybot"

// PaymentRequest describes a single payment the caller wants to make.
type PaymentRequest struct {
	// Resource is the URL of the resource being paid for.
	Resource string `json:"resource"`

	// Amount is the human-readable decimal amount (e.g., "0.01").
	Amount string `json:"amount"`

	// PayTo is the recipient address.
	PayTo string `json:"payTo"`

	// Asset is the token contract address. Defaults to the chain's USDC.
	Asset string `json:"asset,omitempty"`

	// Network is the CAIP-2 network identifier. Defaults to DefaultNetwork.
	Network string `json:"network,omitempty"`
}

// Commission is the fee breakdown returned by /verify and echoed to /settle.
type Commission struct {
	GrossAmount      json.Number `json:"grossAmount"`
	NetAmount        json.Number `json:"netAmount"`
	CommissionAmount json.Number `json:"commissionAmount"`
	CommissionRate   json.Number `json:"commissionRate"`
}

// PaymentOutcome is the terminal result of a payment attempt.
// The amount fields are always populated; they are "0" when Success is false.
type PaymentOutcome struct {
	// Success reports whether the payment was settled.
	Success bool `json:"success"`

	// Transaction is the on-chain transaction reference (success only).
	Transaction string `json:"transaction,omitempty"`

	// Network is the chain the payment settled on (success only).
	Network string `json:"network,omitempty"`

	GrossAmount      string  `json:"grossAmount"`
	NetAmount        string  `json:"netAmount"`
	CommissionAmount string  `json:"commissionAmount"`
	CommissionRate   float64 `json:"commissionRate"`

	// Error is a human-readable failure description.
	Error string `json:"error,omitempty"`

	// ErrorCode is the machine-readable failure code, passed through from the
	// facilitator when it supplies one.
	ErrorCode string `json:"code,omitempty"`

	// ErrorDetails carries structured failure context from the facilitator.
	ErrorDetails map[string]interface{} `json:"details,omitempty"`
}

// FailedOutcome returns a zeroed, unsuccessful outcome with the given message and code.
func FailedOutcome(message string, code ErrorCode) PaymentOutcome {
	return PaymentOutcome{
		Success:          false,
		GrossAmount:      "0",
		NetAmount:        "0",
		CommissionAmount: "0",
		Error:            message,
		ErrorCode:        string(code),
	}
}

// ProofKind tags the variant of a Proof.
type ProofKind string

const (
	// ProofKindTrust is a trust token; the facilitator authenticates the bot by API key.
	ProofKindTrust ProofKind = "trust"

	// ProofKindSigned is an EIP-3009 authorization signed by the payer.
	ProofKindSigned ProofKind = "signed"
)

// Proof is a payment authorization: a TrustToken or a SignedAuthorization.
type Proof interface {
	Kind() ProofKind
}

// TrustToken is an opaque token identifying the paying bot.
type TrustToken string

// Kind implements Proof.
func (TrustToken) Kind() ProofKind { return ProofKindTrust }

// NewTrustToken returns the trust token for a bot id.
func NewTrustToken(botID string) TrustToken {
	return TrustToken("paybot-trust:" + botID)
}

// SignedAuthorization is an EIP-3009 transferWithAuthorization and its signature.
// Integer fields are decimal strings.
type SignedAuthorization struct {
	// From is the payer's address.
	From string `json:"from"`

	// To is the recipient's address.
	To string `json:"to"`

	// Value is the payment amount in base units.
	Value string `json:"value"`

	// ValidAfter is the unix timestamp after which the authorization is valid.
	ValidAfter string `json:"validAfter"`

	// ValidBefore is the unix timestamp before which the authorization is valid.
	ValidBefore string `json:"validBefore"`

	// Nonce is a unique 32-byte hex string to prevent replay attacks.
	Nonce string `json:"nonce"`

	// Signature is the hex-encoded 65-byte ECDSA signature.
	Signature string `json:"signature"`
}

// Kind implements Proof.
func (SignedAuthorization) Kind() ProofKind { return ProofKindSigned }
