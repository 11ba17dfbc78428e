// Package eip3009 builds and signs EIP-712 typed data for USDC
// transferWithAuthorization.
package eip3009

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	paybot "github.com/RBKunnela/paybot-sdk"
)

// PrimaryType is the EIP-712 primary type of an authorization.
const PrimaryType = "TransferWithAuthorization"

// Types is the EIP-712 schema of a transferWithAuthorization message.
var Types = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	PrimaryType: []apitypes.Type{
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

type Authorization struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}

// GenerateNonce reads a 32-byte nonce from r, or crypto/rand when r is nil.
func GenerateNonce(r io.Reader) ([32]byte, error) {
	var nonce [32]byte
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, nonce[:]); err != nil {
		return nonce, err
	}
	return nonce, nil
}

// NonceHex formats a nonce as 0x-prefixed hex.
func NonceHex(nonce [32]byte) string {
	return common.BytesToHash(nonce[:]).Hex()
}

// TypedData returns the EIP-712 typed data of auth under domain.
func TypedData(domain paybot.SigningDomain, auth *Authorization) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       Types,
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           math.NewHexOrDecimal256(domain.ChainID),
			VerifyingContract: common.HexToAddress(domain.VerifyingContract).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"from":        auth.From.Hex(),
			"to":          auth.To.Hex(),
			"value":       (*math.HexOrDecimal256)(auth.Value),
			"validAfter":  (*math.HexOrDecimal256)(auth.ValidAfter),
			"validBefore": (*math.HexOrDecimal256)(auth.ValidBefore),
			"nonce":       NonceHex(auth.Nonce),
		},
	}
}

// Digest returns keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func Digest(typedData apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := append([]byte{0x19, 0x01}, append(domainSeparator, messageHash...)...)
	return crypto.Keccak256(rawData), nil
}

// Sign signs typed data with a local private key.
func Sign(privateKey *ecdsa.PrivateKey, typedData apitypes.TypedData) (string, error) {
	digest, err := Digest(typedData)
	if err != nil {
		return "", err
	}

	signature, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign authorization: %w", err)
	}

	signature[64] += 27

	return "0x" + hex.EncodeToString(signature), nil
}

// Recover returns the address that produced signature over typed data.
func Recover(typedData apitypes.TypedData, signature string) (common.Address, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.New("invalid signature length")
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	digest, err := Digest(typedData)
	if err != nil {
		return common.Address{}, err
	}

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
