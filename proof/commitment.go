// Package proof implements the proof-commitment lifecycle: generating
// a content-addressed commitment over a model/input/output triple,
// validating it structurally, and verifying it through a three-tier
// fallback strategy.
package proof

import (
	"bytes"

	"github.com/agentpay/payproof/types"
	"github.com/agentpay/payproof/utils"
)

// Commitment buffer layout. Fixed 256 bytes: a versioned header tag,
// the three content hashes and the proof tag at fixed offsets, then
// deterministic padding derived by hashing the filled prefix. The
// padding defends against trivial truncation, not against forgery.
const (
	CommitmentSize = 256

	// HeaderTag marks a commitment produced by the simulation path.
	// Buffers with a different header are treated as opaque external
	// proofs.
	HeaderTag = "ZKPCMT01"

	offsetHeader     = 0
	offsetModelHash  = 8
	offsetInputHash  = 40
	offsetOutputHash = 72
	offsetTag        = 104
	offsetPadding    = 136

	tagFieldSize = 32
)

// buildCommitment packs the hashes and tag into the fixed layout and
// fills the tail with chained keccak padding over the growing prefix.
func buildCommitment(modelHash, inputHash, outputHash []byte, tag types.ProofTag) []byte {
	buf := make([]byte, CommitmentSize)
	copy(buf[offsetHeader:], HeaderTag)
	copy(buf[offsetModelHash:], modelHash)
	copy(buf[offsetInputHash:], inputHash)
	copy(buf[offsetOutputHash:], outputHash)
	copy(buf[offsetTag:offsetTag+tagFieldSize], tag)

	// Each 32-byte padding block hashes everything before it, so any
	// truncation or splice breaks the chain.
	for off := offsetPadding; off < CommitmentSize; off += utils.HashSize {
		block := utils.Keccak256(buf[:off])
		copy(buf[off:], block)
	}
	return buf
}

// IsSimulationFormat reports whether the buffer carries the known
// simulation header and length.
func IsSimulationFormat(buf []byte) bool {
	return len(buf) == CommitmentSize &&
		bytes.Equal(buf[offsetHeader:offsetHeader+len(HeaderTag)], []byte(HeaderTag))
}

// embeddedHashes re-extracts the three hash copies at their fixed
// offsets. Callers must check IsSimulationFormat first.
func embeddedHashes(buf []byte) (model, input, output []byte) {
	model = buf[offsetModelHash : offsetModelHash+utils.HashSize]
	input = buf[offsetInputHash : offsetInputHash+utils.HashSize]
	output = buf[offsetOutputHash : offsetOutputHash+utils.HashSize]
	return
}

// EmbeddedInputHashOffset is the byte offset of the embedded input
// hash, exposed for tamper tests.
const EmbeddedInputHashOffset = offsetInputHash
