// Package helpers provides internal HTTP utilities for PayBot 402 handling.
package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Header names used in payment challenges and paid retries.
const (
	HeaderPaymentAmount      = "X-Payment-Amount"
	HeaderPaymentAddress     = "X-Payment-Address"
	HeaderPaymentProof       = "X-Payment-Proof"
	HeaderPaymentFacilitator = "X-Payment-Facilitator"
)

// maxChallengeBody bounds how much of a 402 body is buffered.
const maxChallengeBody = 1 << 20

// ChallengeSource records which format a challenge was read from.
type ChallengeSource string

const (
	SourceRequirements ChallengeSource = "paymentRequirements"
	SourceBody         ChallengeSource = "body"
	SourceHeaders      ChallengeSource = "headers"
)

// Challenge is the payment terms extracted from a 402 response.
type Challenge struct {
	// Amount is in base units of a 6-decimal token.
	Amount string

	// PayTo is the recipient address.
	PayTo string

	Source ChallengeSource
}

// BufferBody reads up to maxChallengeBody bytes of resp.Body for parsing and
// replaces resp.Body with a reader that yields those bytes followed by the
// unread remainder, so the caller still sees the complete body.
func BufferBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxChallengeBody))
	resp.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(data), resp.Body),
		Closer: resp.Body,
	}
	return data, err
}

type replayBody struct {
	io.Reader
	io.Closer
}

// ParseChallenge extracts payment terms from a 402 response, trying in order a
// nested paymentRequirements object, top-level amount/payTo fields, and the
// X-Payment-Amount/X-Payment-Address headers. It reports false when none match.
func ParseChallenge(header http.Header, body []byte) (*Challenge, bool) {
	var fields map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &fields) == nil {
		if raw, ok := fields["paymentRequirements"]; ok {
			var nested map[string]json.RawMessage
			if json.Unmarshal(raw, &nested) == nil {
				if c, ok := termsFrom(nested, SourceRequirements); ok {
					return c, true
				}
			}
		}
		if c, ok := termsFrom(fields, SourceBody); ok {
			return c, true
		}
	}

	amount := strings.TrimSpace(header.Get(HeaderPaymentAmount))
	payTo := strings.TrimSpace(header.Get(HeaderPaymentAddress))
	if amount != "" && payTo != "" {
		return &Challenge{Amount: amount, PayTo: payTo, Source: SourceHeaders}, true
	}
	return nil, false
}

func termsFrom(fields map[string]json.RawMessage, source ChallengeSource) (*Challenge, bool) {
	amount, ok := scalar(fields["amount"])
	if !ok {
		return nil, false
	}
	payTo, ok := scalar(fields["payTo"])
	if !ok {
		return nil, false
	}
	return &Challenge{Amount: amount, PayTo: payTo, Source: source}, true
}

// scalar reads a non-empty JSON string or number as text.
func scalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
