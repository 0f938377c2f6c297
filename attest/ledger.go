// Package attest submits proof commitments to an external attestation
// ledger and queries their validation status. The ledger itself is an
// external capability; this package only reads and writes through the
// Ledger interface.
package attest

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/agentpay/payproof/types"
)

// Ledger is the attestation ledger capability: an append-only record
// of submitted proof commitments and their validation status.
type Ledger interface {
	// Submit records a validation request keyed by requestHash and
	// returns the ledger transaction hash.
	Submit(ctx context.Context, validator common.Address, agentID, requestURI string, requestHash, tagHash common.Hash, meta *types.ProofMetadata) (string, error)

	// GetStatus returns the record for a request hash. Absence is a
	// zero-sentinel record (Exists() == false), not an error.
	GetStatus(ctx context.Context, requestHash common.Hash) (*types.ValidationRecord, error)

	// IsValid reports whether the ledger has marked the request valid.
	IsValid(ctx context.Context, requestHash common.Hash) (bool, error)

	// ListForAgent returns every request hash submitted for an agent.
	ListForAgent(ctx context.Context, agentID string) ([]common.Hash, error)

	Close()
}

// TagHash maps a proof tag to its fixed-width ledger domain identifier.
// The hash is one-way; display paths must resolve it through the
// forward table, never attempt inversion.
func TagHash(tag types.ProofTag) common.Hash {
	return crypto.Keccak256Hash([]byte(tag))
}

// tagByHash is the explicit forward table over the closed tag set.
var tagByHash = func() map[common.Hash]types.ProofTag {
	m := make(map[common.Hash]types.ProofTag, len(types.ProofTags))
	for _, tag := range types.ProofTags {
		m[TagHash(tag)] = tag
	}
	return m
}()

// ResolveTag returns the plain tag for a tag hash. An unmapped hash
// yields the empty tag; callers must not substitute a default, since
// mislabeling a proof is worse than labeling it unknown.
func ResolveTag(h common.Hash) types.ProofTag {
	return tagByHash[h]
}
