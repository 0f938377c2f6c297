package proof

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/agentpay/payproof/logger"
	"github.com/agentpay/payproof/types"
	"github.com/agentpay/payproof/utils"
)

// Verification methods reported by Verify.
const (
	MethodRemote          = "remote"
	MethodLocalCommitment = "local-commitment"
	MethodStructureOnly   = "structure-only"
)

// StructureResult reports structural validation.
type StructureResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// VerifyResult reports a verification attempt and which tier decided.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Method    string `json:"method"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// ProgramIO is the input/output trace a caller supplies to enable
// remote (tier-1) verification.
type ProgramIO struct {
	Input  interface{} `json:"input"`
	Output interface{} `json:"output"`
}

// Validator checks proofs structurally and verifies them through a
// three-tier fallback: remote service, local commitment re-derivation,
// then structure-only acceptance for opaque external proofs.
type Validator struct {
	verifier *VerifierClient
	log      logger.Logger
}

// NewValidator wires a validator. verifier may be nil, in which case
// verification starts at the local-commitment tier.
func NewValidator(verifier *VerifierClient, log logger.Logger) *Validator {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Validator{verifier: verifier, log: log}
}

// ValidateStructure checks encoding, lengths, metadata presence and
// tag membership. It collects every problem rather than stopping at
// the first.
func (v *Validator) ValidateStructure(p *types.ZkProof) StructureResult {
	var errs []string

	if p == nil {
		return StructureResult{Valid: false, Errors: []string{"Missing proof"}}
	}

	if !utils.IsHexBytes(p.Proof, CommitmentSize) {
		errs = append(errs, "Proof must be 0x-prefixed hex of exactly 256 bytes")
	}
	if !utils.IsHexHash(p.ProofHash) {
		errs = append(errs, "Proof hash must be a 0x-prefixed 32-byte hash")
	}

	if p.Metadata == nil {
		errs = append(errs, "Missing proof metadata")
	} else {
		if !utils.IsHexHash(p.Metadata.ModelHash) {
			errs = append(errs, "Metadata model hash must be a 0x-prefixed 32-byte hash")
		}
		if !utils.IsHexHash(p.Metadata.InputHash) {
			errs = append(errs, "Metadata input hash must be a 0x-prefixed 32-byte hash")
		}
		if !utils.IsHexHash(p.Metadata.OutputHash) {
			errs = append(errs, "Metadata output hash must be a 0x-prefixed 32-byte hash")
		}
		if p.Metadata.ProofSize <= 0 {
			errs = append(errs, "Metadata proof size must be positive")
		}
		if p.Metadata.ProverVersion == "" {
			errs = append(errs, "Metadata prover version must not be empty")
		}
	}

	if !p.Tag.IsValid() {
		errs = append(errs, "Unknown proof tag: "+string(p.Tag))
	}

	return StructureResult{Valid: len(errs) == 0, Errors: errs}
}

// Verify attempts the three tiers in order, falling through on
// unavailability only, never on a negative verdict.
//
// The structure-only tier is a deliberate trust boundary: for opaque
// commitment formats it can catch a malformed proof but never a forged
// one.
func (v *Validator) Verify(ctx context.Context, p *types.ZkProof, modelID, expectedModelHash string, programIO *ProgramIO) VerifyResult {
	start := time.Now()

	// Tier 1: remote verification service, when configured and the
	// caller supplied a program trace. A verdict from the service is
	// final; a service failure falls through.
	if v.verifier != nil && programIO != nil {
		verdict, err := v.verifier.Verify(ctx, p, modelID, expectedModelHash, programIO)
		if err == nil {
			return VerifyResult{
				Valid:     verdict.Valid,
				Method:    MethodRemote,
				Error:     verdict.Error,
				ElapsedMs: time.Since(start).Milliseconds(),
			}
		}
		v.log.Warn("remote verifier unavailable, falling back", map[string]any{"error": err.Error()})
	}

	structure := v.ValidateStructure(p)
	if !structure.Valid {
		return VerifyResult{
			Valid:     false,
			Method:    MethodStructureOnly,
			Error:     strings.Join(structure.Errors, "; "),
			ElapsedMs: time.Since(start).Milliseconds(),
		}
	}

	raw, err := hexutil.Decode(p.Proof)
	if err != nil {
		return VerifyResult{
			Valid:     false,
			Method:    MethodStructureOnly,
			Error:     "proof bytes are not decodable hex",
			ElapsedMs: time.Since(start).Milliseconds(),
		}
	}

	// Tier 3: buffers this validator cannot interpret are accepted on
	// structure alone.
	if !IsSimulationFormat(raw) {
		return VerifyResult{
			Valid:     true,
			Method:    MethodStructureOnly,
			ElapsedMs: time.Since(start).Milliseconds(),
		}
	}

	// Tier 2: local commitment checks for the known simulation format.
	return v.verifyCommitment(p, raw, expectedModelHash, start)
}

// verifyCommitment requires the declared model hash to match the
// expected one and the embedded hash copies to equal the declared
// metadata byte for byte. A mismatch is tampering: a hard negative,
// never transient.
func (v *Validator) verifyCommitment(p *types.ZkProof, raw []byte, expectedModelHash string, start time.Time) VerifyResult {
	result := func(valid bool, msg string) VerifyResult {
		return VerifyResult{
			Valid:     valid,
			Method:    MethodLocalCommitment,
			Error:     msg,
			ElapsedMs: time.Since(start).Milliseconds(),
		}
	}

	if !strings.EqualFold(p.Metadata.ModelHash, expectedModelHash) {
		return result(false, "model hash does not match expected model hash")
	}

	declaredModel, err := utils.DecodeHash(p.Metadata.ModelHash)
	if err != nil {
		return result(false, "declared model hash undecodable: "+err.Error())
	}
	declaredInput, err := utils.DecodeHash(p.Metadata.InputHash)
	if err != nil {
		return result(false, "declared input hash undecodable: "+err.Error())
	}
	declaredOutput, err := utils.DecodeHash(p.Metadata.OutputHash)
	if err != nil {
		return result(false, "declared output hash undecodable: "+err.Error())
	}

	embModel, embInput, embOutput := embeddedHashes(raw)
	if !bytes.Equal(embModel, declaredModel) {
		return result(false, "embedded model hash does not match declared metadata")
	}
	if !bytes.Equal(embInput, declaredInput) {
		return result(false, "embedded input hash does not match declared metadata")
	}
	if !bytes.Equal(embOutput, declaredOutput) {
		return result(false, "embedded output hash does not match declared metadata")
	}

	return result(true, "")
}
