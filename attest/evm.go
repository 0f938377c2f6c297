package attest

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/agentpay/payproof/types"
)

// ledgerABI is the attestation ledger contract surface this client
// uses: one write and three reads.
const ledgerABI = `[
	{"inputs":[{"name":"validator","type":"address"},{"name":"agentId","type":"string"},{"name":"requestUri","type":"string"},{"name":"requestHash","type":"bytes32"},{"name":"tagHash","type":"bytes32"},{"components":[{"name":"modelHash","type":"bytes32"},{"name":"inputHash","type":"bytes32"},{"name":"outputHash","type":"bytes32"},{"name":"proofSize","type":"uint256"},{"name":"generationTime","type":"uint256"},{"name":"proverVersion","type":"string"}],"name":"metadata","type":"tuple"}],"name":"submitValidationRequest","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"requestHash","type":"bytes32"}],"name":"getStatus","outputs":[{"name":"validator","type":"address"},{"name":"agentId","type":"string"},{"name":"response","type":"uint8"},{"name":"tagHash","type":"bytes32"},{"name":"requestUri","type":"string"},{"name":"responseUri","type":"string"},{"name":"responseHash","type":"bytes32"},{"name":"requestedAt","type":"uint256"},{"name":"respondedAt","type":"uint256"},{"name":"hasResponse","type":"bool"},{"components":[{"name":"modelHash","type":"bytes32"},{"name":"inputHash","type":"bytes32"},{"name":"outputHash","type":"bytes32"},{"name":"proofSize","type":"uint256"},{"name":"generationTime","type":"uint256"},{"name":"proverVersion","type":"string"}],"name":"metadata","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"requestHash","type":"bytes32"}],"name":"isValid","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"agentId","type":"string"}],"name":"getAgentRequests","outputs":[{"name":"","type":"bytes32[]"}],"stateMutability":"view","type":"function"}
]`

// metadataTuple mirrors the contract's metadata struct layout.
type metadataTuple struct {
	ModelHash      [32]byte
	InputHash      [32]byte
	OutputHash     [32]byte
	ProofSize      *big.Int
	GenerationTime *big.Int
	ProverVersion  string
}

var _ Ledger = (*EVMLedger)(nil)

// EVMLedger talks to an attestation ledger contract over JSON-RPC.
type EVMLedger struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
}

// NewEVMLedger dials the RPC endpoint and binds the ledger contract.
// The key may be empty for read-only use.
func NewEVMLedger(rpcURL, contractAddr, hexKey string, chainID int64) (*EVMLedger, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(ledgerABI))
	if err != nil {
		return nil, fmt.Errorf("parse ledger abi: %w", err)
	}

	l := &EVMLedger{
		eth:      eth,
		contract: bind.NewBoundContract(common.HexToAddress(contractAddr), parsed, eth, eth, eth),
		chainID:  big.NewInt(chainID),
	}

	if hexKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse ledger key: %w", err)
		}
		l.key = key
	}
	return l, nil
}

func (l *EVMLedger) Submit(ctx context.Context, validator common.Address, agentID, requestURI string, requestHash, tagHash common.Hash, meta *types.ProofMetadata) (string, error) {
	if l.key == nil {
		return "", &types.Error{
			Code:    types.ErrSubmission,
			Message: "no signing key configured for ledger writes",
		}
	}

	tuple, err := toMetadataTuple(meta)
	if err != nil {
		return "", err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(l.key, l.chainID)
	if err != nil {
		return "", fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := l.contract.Transact(opts, "submitValidationRequest",
		validator, agentID, requestURI, [32]byte(requestHash), [32]byte(tagHash), tuple)
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrSubmission,
			Message: "submitValidationRequest failed: " + err.Error(),
		}
	}

	receipt, err := bind.WaitMined(ctx, l.eth, tx)
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: fmt.Sprintf("wait for submission %s: %v", tx.Hash().Hex(), err),
		}
	}
	if receipt.Status != 1 {
		return "", &types.Error{
			Code:    types.ErrSubmission,
			Message: fmt.Sprintf("submission %s reverted", tx.Hash().Hex()),
		}
	}
	return tx.Hash().Hex(), nil
}

func (l *EVMLedger) GetStatus(ctx context.Context, requestHash common.Hash) (*types.ValidationRecord, error) {
	var out []interface{}
	err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getStatus", [32]byte(requestHash))
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: "getStatus failed: " + err.Error(),
		}
	}

	validator := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	agentID := *abi.ConvertType(out[1], new(string)).(*string)
	response := *abi.ConvertType(out[2], new(uint8)).(*uint8)
	tagHash := *abi.ConvertType(out[3], new([32]byte)).(*[32]byte)
	requestURI := *abi.ConvertType(out[4], new(string)).(*string)
	responseURI := *abi.ConvertType(out[5], new(string)).(*string)
	responseHash := *abi.ConvertType(out[6], new([32]byte)).(*[32]byte)
	requestedAt := *abi.ConvertType(out[7], new(*big.Int)).(**big.Int)
	respondedAt := *abi.ConvertType(out[8], new(*big.Int)).(**big.Int)
	hasResponse := *abi.ConvertType(out[9], new(bool)).(*bool)
	meta := *abi.ConvertType(out[10], new(metadataTuple)).(*metadataTuple)

	record := &types.ValidationRecord{
		Validator:   validator.Hex(),
		AgentID:     agentID,
		RequestHash: requestHash.Hex(),
		Response:    types.ValidationResponse(response),
		Tag:         ResolveTag(common.Hash(tagHash)),
		RequestURI:  requestURI,
		ResponseURI: responseURI,
		RequestedAt: requestedAt.Int64(),
		RespondedAt: respondedAt.Int64(),
		HasResponse: hasResponse,
	}
	if responseHash != ([32]byte{}) {
		record.ResponseHash = common.Hash(responseHash).Hex()
	}
	// Absent records come back with a zeroed tuple.
	if meta.ProverVersion != "" {
		record.Metadata = fromMetadataTuple(meta)
	}
	return record, nil
}

func (l *EVMLedger) IsValid(ctx context.Context, requestHash common.Hash) (bool, error) {
	var out []interface{}
	err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isValid", [32]byte(requestHash))
	if err != nil {
		return false, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: "isValid failed: " + err.Error(),
		}
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (l *EVMLedger) ListForAgent(ctx context.Context, agentID string) ([]common.Hash, error) {
	var out []interface{}
	err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAgentRequests", agentID)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: "getAgentRequests failed: " + err.Error(),
		}
	}

	raw := *abi.ConvertType(out[0], new([][32]byte)).(*[][32]byte)
	hashes := make([]common.Hash, len(raw))
	for i, h := range raw {
		hashes[i] = common.Hash(h)
	}
	return hashes, nil
}

func (l *EVMLedger) Close() {
	l.eth.Close()
}

func fromMetadataTuple(t metadataTuple) *types.ProofMetadata {
	return &types.ProofMetadata{
		ModelHash:      hexutil.Encode(t.ModelHash[:]),
		InputHash:      hexutil.Encode(t.InputHash[:]),
		OutputHash:     hexutil.Encode(t.OutputHash[:]),
		ProofSize:      int(t.ProofSize.Int64()),
		GenerationTime: t.GenerationTime.Int64(),
		ProverVersion:  t.ProverVersion,
	}
}

func toMetadataTuple(meta *types.ProofMetadata) (metadataTuple, error) {
	var tuple metadataTuple
	for _, field := range []struct {
		src string
		dst *[32]byte
	}{
		{meta.ModelHash, &tuple.ModelHash},
		{meta.InputHash, &tuple.InputHash},
		{meta.OutputHash, &tuple.OutputHash},
	} {
		h := common.HexToHash(field.src)
		copy(field.dst[:], h[:])
	}
	tuple.ProofSize = big.NewInt(int64(meta.ProofSize))
	tuple.GenerationTime = big.NewInt(meta.GenerationTime)
	tuple.ProverVersion = meta.ProverVersion
	return tuple, nil
}
