// Package authorization builds payment proofs: trust tokens for bots that pay
// on API-key trust, and EIP-3009 authorizations for bots holding a signing key.
package authorization

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	paybot "github.com/RBKunnela/paybot-sdk"
	"github.com/RBKunnela/paybot-sdk/internal/eip3009"
)

// ValidityWindow is the lifetime of a signed authorization.
const ValidityWindow = 3600 * time.Second

// Builder creates proofs for a single bot.
type Builder struct {
	botID        string
	now          func() time.Time
	nonceSource  io.Reader
	validFromNow bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the time source used for the validity window.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithNonceSource sets the reader nonces are drawn from. Defaults to crypto/rand.
func WithNonceSource(r io.Reader) Option {
	return func(b *Builder) {
		b.nonceSource = r
	}
}

// WithValidFromNow sets validAfter to the signing time instead of 0.
func WithValidFromNow() Option {
	return func(b *Builder) {
		b.validFromNow = true
	}
}

// NewBuilder creates a Builder for botID.
func NewBuilder(botID string, opts ...Option) *Builder {
	b := &Builder{
		botID: botID,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns a proof paying value base units to payTo on network.
//
// With a nil signer the proof is the bot's trust token. Otherwise the signing
// domain of network is resolved first; an unknown network fails with
// paybot.ErrUnknownSigningDomain before anything is signed.
func (b *Builder) Build(ctx context.Context, payTo, value, network string, signer paybot.TypedDataSigner) (paybot.Proof, error) {
	if signer == nil {
		return paybot.NewTrustToken(b.botID), nil
	}

	domain, ok := paybot.LookupSigningDomain(network)
	if !ok {
		return nil, fmt.Errorf("%w: %s", paybot.ErrUnknownSigningDomain, network)
	}

	amount, err := paybot.ParseBaseUnits(value)
	if err != nil {
		return nil, err
	}

	nonce, err := eip3009.GenerateNonce(b.nonceSource)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := b.now().Unix()
	validAfter := big.NewInt(0)
	if b.validFromNow {
		validAfter = big.NewInt(now)
	}

	auth := &eip3009.Authorization{
		From:        common.HexToAddress(signer.Address()),
		To:          common.HexToAddress(payTo),
		Value:       amount,
		ValidAfter:  validAfter,
		ValidBefore: big.NewInt(now + int64(ValidityWindow/time.Second)),
		Nonce:       nonce,
	}

	signature, err := signer.SignTypedData(ctx, eip3009.TypedData(domain, auth))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", paybot.ErrSigningFailed, err)
	}

	return paybot.SignedAuthorization{
		From:        auth.From.Hex(),
		To:          auth.To.Hex(),
		Value:       auth.Value.String(),
		ValidAfter:  auth.ValidAfter.String(),
		ValidBefore: auth.ValidBefore.String(),
		Nonce:       eip3009.NonceHex(auth.Nonce),
		Signature:   signature,
	}, nil
}

// VerifySignature reports whether a signed authorization was produced by its From
// address under network's signing domain.
func VerifySignature(network string, proof paybot.SignedAuthorization) (bool, error) {
	domain, ok := paybot.LookupSigningDomain(network)
	if !ok {
		return false, fmt.Errorf("%w: %s", paybot.ErrUnknownSigningDomain, network)
	}

	auth, err := decode(proof)
	if err != nil {
		return false, err
	}

	signer, err := eip3009.Recover(eip3009.TypedData(domain, auth), proof.Signature)
	if err != nil {
		return false, err
	}
	return signer == auth.From, nil
}

func decode(proof paybot.SignedAuthorization) (*eip3009.Authorization, error) {
	value, err := paybot.ParseBaseUnits(proof.Value)
	if err != nil {
		return nil, err
	}
	validAfter, ok := new(big.Int).SetString(proof.ValidAfter, 10)
	if !ok {
		return nil, fmt.Errorf("invalid validAfter: %q", proof.ValidAfter)
	}
	validBefore, ok := new(big.Int).SetString(proof.ValidBefore, 10)
	if !ok {
		return nil, fmt.Errorf("invalid validBefore: %q", proof.ValidBefore)
	}

	nonce := common.HexToHash(proof.Nonce)
	return &eip3009.Authorization{
		From:        common.HexToAddress(proof.From),
		To:          common.HexToAddress(proof.To),
		Value:       value,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Nonce:       nonce,
	}, nil
}
