// Package signer abstracts the "sign typed structured data" capability
// the payment authorizer depends on. Any provider able to produce an
// EIP-712 signature for a given payer can satisfy it: a local private
// key, a remote wallet service, or a hardware signer.
package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TypedDataSigner signs EIP-712 typed structured data on behalf of a
// single payer address.
type TypedDataSigner interface {
	// Address returns the payer address signatures verify against.
	Address() common.Address

	// SignTypedData returns a 65-byte (r||s||v) signature over the
	// EIP-712 digest of the given typed data, with v in {27, 28}.
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
}
