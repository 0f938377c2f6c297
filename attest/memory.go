package attest

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/agentpay/payproof/types"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger is an in-process Ledger for tests and local
// development. Content-addressed keys deduplicate naturally:
// resubmitting an identical proof is a no-op.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[common.Hash]*types.ValidationRecord
	byAgent map[string][]common.Hash
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[common.Hash]*types.ValidationRecord),
		byAgent: make(map[string][]common.Hash),
	}
}

func (m *MemoryLedger) Submit(_ context.Context, validator common.Address, agentID, requestURI string, requestHash, tagHash common.Hash, meta *types.ProofMetadata) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txHash := crypto.Keccak256Hash(requestHash[:], []byte(agentID)).Hex()
	if _, exists := m.records[requestHash]; exists {
		return txHash, nil
	}

	metaCopy := *meta
	m.records[requestHash] = &types.ValidationRecord{
		Validator:   validator.Hex(),
		AgentID:     agentID,
		RequestHash: requestHash.Hex(),
		Response:    types.ResponsePending,
		Tag:         ResolveTag(tagHash),
		RequestURI:  requestURI,
		RequestedAt: time.Now().Unix(),
		Metadata:    &metaCopy,
	}
	m.byAgent[agentID] = append(m.byAgent[agentID], requestHash)
	return txHash, nil
}

func (m *MemoryLedger) GetStatus(_ context.Context, requestHash common.Hash) (*types.ValidationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[requestHash]
	if !ok {
		// Zero sentinel: absence is not an error.
		return &types.ValidationRecord{RequestHash: requestHash.Hex()}, nil
	}
	copied := *record
	return &copied, nil
}

func (m *MemoryLedger) IsValid(_ context.Context, requestHash common.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[requestHash]
	return ok && record.Response == types.ResponseValid, nil
}

func (m *MemoryLedger) ListForAgent(_ context.Context, agentID string) ([]common.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hashes := m.byAgent[agentID]
	out := make([]common.Hash, len(hashes))
	copy(out, hashes)
	return out, nil
}

// Respond records a validator verdict; test helper mirroring the
// ledger's response path.
func (m *MemoryLedger) Respond(requestHash common.Hash, response types.ValidationResponse, responseURI string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[requestHash]
	if !ok {
		return
	}
	record.Response = response
	record.ResponseURI = responseURI
	record.RespondedAt = time.Now().Unix()
	record.HasResponse = true
}

func (m *MemoryLedger) Close() {}
