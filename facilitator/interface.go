// Package facilitator defines the PayBot facilitator contract and its wire envelopes.
//
// A facilitator verifies payment authorizations and settles them on chain. Payment
// execution never fails with an error: a declined payment is reported as a
// paybot.PaymentOutcome with Success false.
package facilitator

import (
	"context"
	"encoding/json"

	paybot "github.com/RBKunnela/paybot-sdk"
)

// Interface executes payments. The HTTP FacilitatorClient satisfies it.
type Interface interface {
	// Pay runs verify then settle for req and reports the outcome.
	Pay(ctx context.Context, req paybot.PaymentRequest) paybot.PaymentOutcome
}

// Payload wraps a proof together with the resource it pays for.
type Payload struct {
	X402Version int          `json:"x402Version"`
	Resource    string       `json:"resource"`
	Accepted    bool         `json:"accepted"`
	Payload     paybot.Proof `json:"payload"`
}

// Requirements is the payment option the client accepted.
type Requirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	Asset             string `json:"asset"`
	Amount            string `json:"amount"`
	PayTo             string `json:"payTo"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
}

// VerifyRequest is the request payload sent to POST /verify.
type VerifyRequest struct {
	BotID        string       `json:"botId"`
	Payload      Payload      `json:"payload"`
	Requirements Requirements `json:"requirements"`
}

// VerifyResponse is returned by POST /verify.
// Commission and ModifiedRequirements are kept raw so settle can echo them verbatim.
type VerifyResponse struct {
	SettlementToken      string          `json:"settlementToken"`
	Commission           json.RawMessage `json:"commission,omitempty"`
	ModifiedRequirements json.RawMessage `json:"modifiedRequirements,omitempty"`
}

// SettleRequest is the request payload sent to POST /settle.
type SettleRequest struct {
	BotID           string          `json:"botId"`
	SettlementToken string          `json:"settlementToken"`
	Payload         Payload         `json:"payload"`
	Requirements    json.RawMessage `json:"requirements"`
	Commission      json.RawMessage `json:"commission,omitempty"`
}

// SettleResponse is returned by POST /settle.
type SettleResponse struct {
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
}

// SupportedResponse is returned by GET /supported.
type SupportedResponse struct {
	Networks []string `json:"networks"`
	Schemes  []string `json:"schemes,omitempty"`
}

// HasModifiedRequirements reports whether the facilitator replaced the requirements.
func (r *VerifyResponse) HasModifiedRequirements() bool {
	raw := r.ModifiedRequirements
	return len(raw) > 0 && string(raw) != "null"
}

// DecodeCommission parses the commission breakdown, if any.
func (r *VerifyResponse) DecodeCommission() (*paybot.Commission, error) {
	if len(r.Commission) == 0 || string(r.Commission) == "null" {
		return nil, nil
	}
	var c paybot.Commission
	if err := json.Unmarshal(r.Commission, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
