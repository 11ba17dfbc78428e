package paybot

import (
	"context"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TypedDataSigner produces EIP-712 signatures for payment authorizations.
// Implementations may hold a local key, delegate to a hardware device, or call a
// remote signer; the payment protocol only depends on this interface.
type TypedDataSigner interface {
	// Address returns the 0x-prefixed checksummed address of the signing key.
	Address() string

	// SignTypedData signs the EIP-712 digest of data and returns the
	// 0x-prefixed 65-byte signature with v in {27, 28}.
	SignTypedData(ctx context.Context, data apitypes.TypedData) (string, error)
}
