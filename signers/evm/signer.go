// Package evm provides a TypedDataSigner backed by a local secp256k1 key.
package evm

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	paybot "github.com/RBKunnela/paybot-sdk"
	"github.com/RBKunnela/paybot-sdk/internal/eip3009"
)

type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

var _ paybot.TypedDataSigner = (*Signer)(nil)

func NewSigner(privateKeyHex string) (*Signer, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, paybot.ErrInvalidKey
	}
	return NewSignerFromKey(privateKey)
}

func NewSignerFromKey(key *ecdsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, paybot.ErrInvalidKey
	}
	return &Signer{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *Signer) Address() string {
	return s.address.Hex()
}

func (s *Signer) SignTypedData(ctx context.Context, data apitypes.TypedData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return eip3009.Sign(s.privateKey, data)
}
