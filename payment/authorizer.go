package payment

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/agentpay/payproof/clients"
	"github.com/agentpay/payproof/logger"
	"github.com/agentpay/payproof/signer"
	"github.com/agentpay/payproof/types"
)

// AuthorizationValidity is the fixed window during which a signed
// authorization may be redeemed.
const AuthorizationValidity = 300 * time.Second

// EIP-712 domain under which every payment authorization is signed.
const (
	domainName    = "x402"
	domainVersion = "1"
)

// Authorizer builds signed, time-bounded payment authorizations and,
// in execute-on-chain mode, performs the transfer before emitting the
// payload.
type Authorizer struct {
	signer         signer.TypedDataSigner
	chain          clients.ChainClient
	agentID        string
	supported      []types.Network
	executeOnChain bool
	log            logger.Logger
}

// NewAuthorizer wires an authorizer. The chain client may be nil when
// executeOnChain is false.
func NewAuthorizer(s signer.TypedDataSigner, chain clients.ChainClient, agentID string, supported []types.Network, executeOnChain bool, log logger.Logger) *Authorizer {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if len(supported) == 0 {
		supported = types.DefaultNetworks
	}
	return &Authorizer{
		signer:         s,
		chain:          chain,
		agentID:        agentID,
		supported:      supported,
		executeOnChain: executeOnChain,
		log:            log,
	}
}

// Authorize constructs and signs a payment authorization for the given
// requirement. Authorization failures are always surfaced, never
// silently retried.
func (a *Authorizer) Authorize(ctx context.Context, req *types.PaymentRequirement) (*types.PaymentAuthorization, error) {
	if err := req.Validate(a.supported); err != nil {
		return nil, err
	}
	if a.signer == nil {
		return nil, &types.Error{
			Code:    types.ErrAuthorization,
			Message: "no signing account available for payment authorization",
		}
	}

	chainID, ok := types.Network(req.Network).ChainID()
	if !ok {
		return nil, &types.Error{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("no chain id known for network %s", req.Network),
		}
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, fmt.Errorf("derive nonce: %w", err)
	}
	validUntil := time.Now().Add(AuthorizationValidity).Unix()

	typedData := BuildTypedData(req, nonce, validUntil, chainID)
	sig, err := a.signer.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrAuthorization,
			Message: fmt.Sprintf("typed data signing failed: %v", err),
		}
	}

	auth := &types.PaymentAuthorization{
		Scheme:      req.Scheme,
		Network:     req.Network,
		Asset:       req.Asset,
		PayTo:       req.PayTo,
		Amount:      req.MaxAmount,
		Resource:    req.Resource,
		Description: req.Description,
		Nonce:       nonce,
		ValidUntil:  validUntil,
		Signature:   hexutil.Encode(sig),
		Payer:       a.signer.Address().Hex(),
		AgentID:     a.agentID,
	}

	if a.executeOnChain {
		txHash, err := a.executeTransfer(ctx, req)
		if err != nil {
			return nil, err
		}
		auth.TxHash = txHash
	}

	a.log.Debug("payment authorized", map[string]any{
		"network":    req.Network,
		"amount":     req.MaxAmount,
		"payTo":      req.PayTo,
		"validUntil": validUntil,
	})
	return auth, nil
}

// executeTransfer checks the payer's balance and performs the on-chain
// transfer. The returned hash always refers to a finalized transfer.
func (a *Authorizer) executeTransfer(ctx context.Context, req *types.PaymentRequirement) (string, error) {
	if a.chain == nil {
		return "", &types.Error{
			Code:    types.ErrAuthorization,
			Message: "execute-on-chain mode requires a chain client",
		}
	}

	amount, ok := new(big.Int).SetString(req.MaxAmount, 10)
	if !ok {
		return "", &types.Error{
			Code:    types.ErrProtocol,
			Message: fmt.Sprintf("invalid amount %q", req.MaxAmount),
		}
	}

	asset := common.HexToAddress(req.Asset)
	balance, err := a.chain.BalanceOf(ctx, asset, a.chain.From())
	if err != nil {
		return "", err
	}
	if balance.Cmp(amount) < 0 {
		return "", &types.Error{
			Code: types.ErrInsufficientFunds,
			Message: fmt.Sprintf("balance %s is below required amount %s on %s",
				balance.String(), amount.String(), req.Network),
		}
	}

	return a.chain.Transfer(ctx, asset, common.HexToAddress(req.PayTo), amount)
}

// newNonce returns 32 random bytes, 0x-prefixed. Random rather than
// wall-clock derived so concurrent authorizations cannot collide.
func newNonce() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hexutil.Encode(b[:]), nil
}

// BuildTypedData assembles the EIP-712 message the payer signs.
// Exposed so verifiers can reconstruct the exact message.
func BuildTypedData(req *types.PaymentRequirement, nonce string, validUntil int64, chainID int64) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"PaymentAuthorization": []apitypes.Type{
				{Name: "scheme", Type: "string"},
				{Name: "network", Type: "string"},
				{Name: "asset", Type: "address"},
				{Name: "payTo", Type: "address"},
				{Name: "amount", Type: "uint256"},
				{Name: "resource", Type: "string"},
				{Name: "nonce", Type: "bytes32"},
				{Name: "validUntil", Type: "uint256"},
			},
		},
		PrimaryType: "PaymentAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:    domainName,
			Version: domainVersion,
			ChainId: math.NewHexOrDecimal256(chainID),
		},
		Message: apitypes.TypedDataMessage{
			"scheme":     req.Scheme,
			"network":    req.Network,
			"asset":      req.Asset,
			"payTo":      req.PayTo,
			"amount":     req.MaxAmount,
			"resource":   req.Resource,
			"nonce":      nonce,
			"validUntil": new(big.Int).SetInt64(validUntil).String(),
		},
	}
}

// EncodePayload serializes an authorization for header transport.
func EncodePayload(auth *types.PaymentAuthorization) (string, error) {
	data, err := json.Marshal(auth)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(raw string) (*types.PaymentAuthorization, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, &types.Error{Code: types.ErrProtocol, Message: "payment payload is not valid base64"}
	}
	var auth types.PaymentAuthorization
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, &types.Error{Code: types.ErrProtocol, Message: "payment payload is not valid JSON"}
	}
	return &auth, nil
}
