package attest

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agentpay/payproof/logger"
	"github.com/agentpay/payproof/metrics"
	"github.com/agentpay/payproof/types"
)

// Submitter pushes proof commitments to the ledger and projects ledger
// records into library types.
type Submitter struct {
	ledger    Ledger
	validator common.Address
	log       logger.Logger
	metrics   metrics.Recorder
}

func NewSubmitter(ledger Ledger, validator common.Address, log logger.Logger, rec metrics.Recorder) *Submitter {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Submitter{ledger: ledger, validator: validator, log: log, metrics: rec}
}

// Submit records the proof on the ledger, keyed by its proof hash.
// Because the key is content-addressed, resubmitting an identical
// proof is assumed to deduplicate on the ledger side; that assumption
// is on the ledger's semantics and is not verified here.
func (s *Submitter) Submit(ctx context.Context, p *types.ZkProof, agentID, requestURI string) *types.SubmitResult {
	if s.ledger == nil {
		return &types.SubmitResult{Success: false, Error: "no attestation ledger configured"}
	}
	if p == nil || p.Metadata == nil {
		return &types.SubmitResult{Success: false, Error: "proof and metadata are required"}
	}
	if requestURI == "" {
		requestURI = p.RequestURI
	}

	requestHash := common.HexToHash(p.ProofHash)
	txHash, err := s.ledger.Submit(ctx, s.validator, agentID, requestURI, requestHash, TagHash(p.Tag), p.Metadata)
	if err != nil {
		s.metrics.IncCounter("attestation_failed", nil)
		return &types.SubmitResult{
			Success:     false,
			RequestHash: requestHash.Hex(),
			Error:       fmt.Sprintf("ledger submission failed: %v", err),
		}
	}

	s.metrics.IncCounter("attestation_submitted", nil)
	s.log.Info("proof attested", map[string]any{
		"agent":       agentID,
		"requestHash": requestHash.Hex(),
		"tag":         p.Tag.String(),
	})
	return &types.SubmitResult{
		Success:     true,
		TxHash:      txHash,
		RequestHash: requestHash.Hex(),
	}
}

// GetStatus fetches the ledger record for a request hash. A record
// that does not exist is reported through Exists() == false.
func (s *Submitter) GetStatus(ctx context.Context, requestHash string) (*types.ValidationRecord, error) {
	if s.ledger == nil {
		return nil, &types.Error{Code: types.ErrSubmission, Message: "no attestation ledger configured"}
	}
	return s.ledger.GetStatus(ctx, common.HexToHash(requestHash))
}

// IsValid reports the ledger's verdict for a request hash.
func (s *Submitter) IsValid(ctx context.Context, requestHash string) (bool, error) {
	if s.ledger == nil {
		return false, &types.Error{Code: types.ErrSubmission, Message: "no attestation ledger configured"}
	}
	return s.ledger.IsValid(ctx, common.HexToHash(requestHash))
}

// ListForAgent scans the agent's full hash list, fetches status per
// item, and filters client-side. Cost is O(n) ledger round trips, so
// this is only suitable for modest per-agent proof counts.
func (s *Submitter) ListForAgent(ctx context.Context, agentID string, filter types.ListFilter) ([]types.ProofListItem, error) {
	if s.ledger == nil {
		return nil, &types.Error{Code: types.ErrSubmission, Message: "no attestation ledger configured"}
	}

	hashes, err := s.ledger.ListForAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	items := make([]types.ProofListItem, 0, len(hashes))
	for _, h := range hashes {
		record, err := s.ledger.GetStatus(ctx, h)
		if err != nil {
			return nil, err
		}
		if !record.Exists() {
			continue
		}
		if filter.Tag != "" && record.Tag != filter.Tag {
			continue
		}
		if filter.Response != nil && record.Response != *filter.Response {
			continue
		}
		items = append(items, types.ProofListItem{
			RequestHash: h.Hex(),
			Tag:         record.Tag,
			Response:    record.Response,
			RequestURI:  record.RequestURI,
			RequestedAt: record.RequestedAt,
			HasResponse: record.HasResponse,
		})
		if filter.Limit > 0 && len(items) >= filter.Limit {
			break
		}
	}
	return items, nil
}
