package proof

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/agentpay/payproof/logger"
	"github.com/agentpay/payproof/metrics"
	"github.com/agentpay/payproof/types"
	"github.com/agentpay/payproof/utils"
)

// Prover-version tags recorded in metadata so verification tiers can
// tell which path produced the proof.
const (
	SimulatedProverVersion = "simulated-v1"
	DelegatedProverVersion = "delegated-v1"
)

// Generator derives content hashes over a model/input/output triple
// and packs them into a fixed-layout commitment. With a delegated
// prover configured it asks the prover for the output hash first and
// falls back to the simulation path on any prover failure: for
// non-production tiers, availability wins over strict correctness.
type Generator struct {
	prover  Prover
	log     logger.Logger
	metrics metrics.Recorder
}

func NewGenerator(prover Prover, log logger.Logger, rec metrics.Recorder) *Generator {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Generator{prover: prover, log: log, metrics: rec}
}

// Generate produces a proof commitment for the given model bytes and
// inputs. The model hash is content-addressed, independent of modelID;
// the input hash is over the canonical (key-sorted) serialization so
// equivalent input objects hash identically.
//
// Generate only fails on internal or backend error: a proof that will
// later fail verification is still successfully generated.
func (g *Generator) Generate(ctx context.Context, modelID string, model []byte, inputs map[string]interface{}, tag types.ProofTag) (*types.ZkProof, error) {
	if !tag.IsValid() {
		return nil, &types.Error{
			Code:    types.ErrGeneration,
			Message: fmt.Sprintf("unknown proof tag %q", tag),
		}
	}
	if len(model) == 0 {
		return nil, &types.Error{
			Code:    types.ErrGeneration,
			Message: "model bytes are required",
		}
	}

	start := time.Now()

	modelHash := utils.Keccak256(model)

	canonical, err := utils.CanonicalJSON(inputs)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrGeneration,
			Message: "canonical input serialization failed: " + err.Error(),
		}
	}
	inputHash := utils.Keccak256(canonical)

	outputHash, proverVersion := g.outputHash(ctx, modelID, modelHash, inputHash, inputs, tag)

	buf := buildCommitment(modelHash, inputHash, outputHash, tag)
	proofHash := utils.Keccak256Hex(buf)
	elapsed := time.Since(start)

	g.metrics.IncCounter("proof_generated", map[string]string{"prover": proverVersion})
	g.metrics.ObserveLatency("proof_generation", elapsed, map[string]string{"prover": proverVersion})

	return &types.ZkProof{
		Proof:     hexutil.Encode(buf),
		ProofHash: proofHash,
		Tag:       tag,
		Metadata: &types.ProofMetadata{
			ModelHash:      hexutil.Encode(modelHash),
			InputHash:      hexutil.Encode(inputHash),
			OutputHash:     hexutil.Encode(outputHash),
			ProofSize:      CommitmentSize,
			GenerationTime: elapsed.Milliseconds(),
			ProverVersion:  proverVersion,
		},
	}, nil
}

// outputHash asks the delegated prover when one is configured and
// degrades to the simulated hash on any prover error or timeout.
// Zero prover-level retries: degrading is the retry policy.
func (g *Generator) outputHash(ctx context.Context, modelID string, modelHash, inputHash []byte, inputs map[string]interface{}, tag types.ProofTag) ([]byte, string) {
	if g.prover != nil {
		result, err := g.prover.Prove(ctx, ProveRequest{ModelID: modelID, Inputs: inputs, Tag: tag})
		if err == nil {
			if decoded, derr := utils.DecodeHash(result.OutputHash); derr == nil {
				version := DelegatedProverVersion
				if result.ProverVersion != "" {
					version = result.ProverVersion
				}
				return decoded, version
			}
			g.log.Warn("prover returned malformed output hash, simulating", map[string]any{
				"outputHash": result.OutputHash,
			})
		} else {
			g.log.Warn("prover unavailable, simulating", map[string]any{"error": err.Error()})
		}
	}
	return simulatedOutputHash(modelHash, inputHash, tag), SimulatedProverVersion
}

// simulatedOutputHash mixes the wall clock into the hash on purpose:
// two otherwise-identical calls yield distinct output hashes. The
// simulation trades reproducibility for uniqueness; model and input
// hashes stay stable across calls.
func simulatedOutputHash(modelHash, inputHash []byte, tag types.ProofTag) []byte {
	var now [8]byte
	binary.BigEndian.PutUint64(now[:], uint64(time.Now().UnixNano()))
	return utils.Keccak256(modelHash, inputHash, []byte(tag), now[:])
}
