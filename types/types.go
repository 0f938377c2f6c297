package types

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// PaymentScheme represents different payment schemes
type PaymentScheme string

const (
	SchemeExact PaymentScheme = "exact"
)

// ProofTag identifies the decision category a proof commitment attests to.
// The set is closed; anything else fails structural validation.
type ProofTag string

const (
	TagAuthorization     ProofTag = "authorization"
	TagCompliance        ProofTag = "compliance"
	TagCollisionSeverity ProofTag = "collision_severity"
	TagDecision          ProofTag = "decision"
	TagSpending          ProofTag = "spending"
)

// ProofTags lists every valid tag.
var ProofTags = []ProofTag{
	TagAuthorization,
	TagCompliance,
	TagCollisionSeverity,
	TagDecision,
	TagSpending,
}

// IsValid reports whether the tag is a member of the closed set.
func (t ProofTag) IsValid() bool {
	for _, known := range ProofTags {
		if t == known {
			return true
		}
	}
	return false
}

func (t ProofTag) String() string { return string(t) }

// PaymentRequirement describes the payment a resource server demands
// in a 402 response. Created per response; never persisted.
type PaymentRequirement struct {
	// Scheme of the payment protocol (e.g. "exact").
	Scheme string `json:"scheme" validate:"required"`

	// Network of the blockchain to send payment on (e.g. "base").
	Network string `json:"network" validate:"required"`

	// Address of the ERC-20 asset contract the payment is denominated in.
	Asset string `json:"asset" validate:"required"`

	// Address to which the payment must be sent.
	PayTo string `json:"payTo" validate:"required"`

	// Maximum amount required, in atomic units of the asset.
	// Represented as a string because Go does not support uint256.
	MaxAmount string `json:"maxAmount" validate:"required"`

	// URL of the resource being paid for.
	Resource string `json:"resource,omitempty"`

	// Description of the resource being purchased.
	Description string `json:"description,omitempty"`
}

// Validate checks requirement invariants: amount must be a positive
// integer and the network must be in the configured supported set.
func (r *PaymentRequirement) Validate(supported []Network) error {
	if r.Scheme == "" {
		return &Error{Code: ErrProtocol, Message: "paymentRequirement.scheme is required"}
	}
	amount, ok := new(big.Int).SetString(r.MaxAmount, 10)
	if !ok {
		return &Error{Code: ErrProtocol, Message: fmt.Sprintf("paymentRequirement.maxAmount is not an integer: %q", r.MaxAmount)}
	}
	if amount.Sign() <= 0 {
		return &Error{Code: ErrProtocol, Message: "paymentRequirement.maxAmount must be greater than 0"}
	}
	if r.PayTo == "" {
		return &Error{Code: ErrProtocol, Message: "paymentRequirement.payTo is required"}
	}
	if r.Asset == "" {
		return &Error{Code: ErrProtocol, Message: "paymentRequirement.asset is required"}
	}
	for _, n := range supported {
		if n.String() == r.Network {
			return nil
		}
	}
	return &Error{
		Code:    ErrUnsupportedNetwork,
		Message: fmt.Sprintf("network %q is not in the configured supported set", r.Network),
	}
}

// PaymentAuthorization is the signed, time-bounded payload attached to
// the retried request. ValidUntil must be strictly after issue time and
// Signature must verify against the exact typed message for Payer.
type PaymentAuthorization struct {
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
	Asset       string `json:"asset"`
	PayTo       string `json:"payTo"`
	Amount      string `json:"amount"`
	Resource    string `json:"resource,omitempty"`
	Description string `json:"description,omitempty"`

	// Nonce is a 0x-prefixed 32-byte value unique per authorization.
	Nonce string `json:"nonce"`

	// ValidUntil is an epoch-seconds deadline after which the
	// authorization must be rejected.
	ValidUntil int64 `json:"validUntil"`

	Signature string `json:"signature"`
	Payer     string `json:"payer"`
	AgentID   string `json:"agentId,omitempty"`

	// TxHash is set in execute-on-chain mode and always refers to a
	// finalized transfer.
	TxHash string `json:"txHash,omitempty"`
}

// PaymentSettlement is the on-chain transfer record confirming a
// payment, either reported by the paid service or reconstructed locally.
type PaymentSettlement struct {
	TxHash  string `json:"txHash"`
	Network string `json:"network"`
	Amount  string `json:"amount"`
	Success bool   `json:"success"`
}

// ProofMetadata carries the content hashes and provenance of a proof
// commitment. ProverVersion records which code path produced the proof
// (simulated vs delegated) so verification can apply appropriate trust.
type ProofMetadata struct {
	ModelHash  string `json:"modelHash" validate:"required"`
	InputHash  string `json:"inputHash" validate:"required"`
	OutputHash string `json:"outputHash" validate:"required"`

	// ProofSize is the commitment length in bytes.
	ProofSize int `json:"proofSize" validate:"required"`

	// GenerationTime is wall-clock generation duration in milliseconds.
	GenerationTime int64 `json:"generationTime"`

	ProverVersion string `json:"proverVersion" validate:"required"`
}

// ZkProof is a commitment artifact asserting a model/input/output
// relationship. Immutable once returned by the generator.
type ZkProof struct {
	// Proof is the 0x-prefixed hex encoding of the commitment bytes.
	Proof string `json:"proof"`

	// ProofHash is keccak256 of the raw commitment bytes.
	ProofHash string `json:"proofHash"`

	Tag        ProofTag       `json:"tag"`
	Metadata   *ProofMetadata `json:"metadata"`
	RequestURI string         `json:"requestUri,omitempty"`
}

// ValidationResponse mirrors the ledger's response enum.
type ValidationResponse uint8

const (
	ResponsePending ValidationResponse = iota
	ResponseValid
	ResponseInvalid
	ResponseInconclusive
)

func (v ValidationResponse) String() string {
	switch v {
	case ResponsePending:
		return "PENDING"
	case ResponseValid:
		return "VALID"
	case ResponseInvalid:
		return "INVALID"
	case ResponseInconclusive:
		return "INCONCLUSIVE"
	default:
		return "UNKNOWN"
	}
}

// ValidationRecord is the ledger's view of a submitted proof. The
// ledger owns it; this library only reads and writes through the
// attestation interface.
type ValidationRecord struct {
	Validator    string             `json:"validator"`
	AgentID      string             `json:"agentId"`
	RequestHash  string             `json:"requestHash"`
	Response     ValidationResponse `json:"response"`
	RequestURI   string             `json:"requestUri,omitempty"`
	ResponseURI  string             `json:"responseUri,omitempty"`
	ResponseHash string             `json:"responseHash,omitempty"`
	RequestedAt  int64              `json:"requestedAt"`
	RespondedAt  int64              `json:"respondedAt,omitempty"`
	HasResponse  bool               `json:"hasResponse"`
	Metadata     *ProofMetadata     `json:"metadata,omitempty"`

	// Tag is the plain tag string resolved from the ledger's tag hash
	// through the forward table; empty when the hash is unmapped.
	Tag ProofTag `json:"tag,omitempty"`
}

// Exists reports whether the record refers to an actual submission.
// The ledger signals absence with a zero-timestamp/zero-address
// sentinel rather than an error.
func (r *ValidationRecord) Exists() bool {
	if r == nil {
		return false
	}
	zeroAddr := r.Validator == "" ||
		strings.EqualFold(r.Validator, "0x0000000000000000000000000000000000000000")
	return !(r.RequestedAt == 0 && zeroAddr)
}

// ProofListItem is one row of an agent's proof listing.
type ProofListItem struct {
	RequestHash string             `json:"requestHash"`
	Tag         ProofTag           `json:"tag,omitempty"`
	Response    ValidationResponse `json:"response"`
	RequestURI  string             `json:"requestUri,omitempty"`
	RequestedAt int64              `json:"requestedAt"`
	HasResponse bool               `json:"hasResponse"`
}

// ListFilter narrows ListForAgent results. Filtering happens
// client-side after per-item status fetches.
type ListFilter struct {
	Tag      ProofTag
	Response *ValidationResponse
	Limit    int
}

// SubmitResult is the outcome of pushing a proof to the ledger.
type SubmitResult struct {
	Success     bool   `json:"success"`
	TxHash      string `json:"txHash,omitempty"`
	RequestHash string `json:"requestHash,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Config contains global configuration for the payproof library.
type Config struct {
	// AgentID identifies the paying agent in authorizations and
	// ledger submissions.
	AgentID string `json:"agentId,omitempty"`

	// SupportedNetworks restricts which 402 demands will be honored.
	SupportedNetworks []Network `json:"supportedNetworks,omitempty"`

	// DefaultTimeout bounds every remote call.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty"`

	// ProverURL, when set, enables delegated proof generation.
	ProverURL string `json:"proverUrl,omitempty"`

	// VerifierURL, when set, enables remote (tier-1) verification.
	VerifierURL string `json:"verifierUrl,omitempty"`

	// ExecuteOnChain makes the authorizer check balance and execute
	// the transfer before emitting the payload.
	ExecuteOnChain bool `json:"executeOnChain,omitempty"`

	LogLevel      string `json:"logLevel,omitempty"`
	EnableMetrics bool   `json:"enableMetrics,omitempty"`
}

// Error is the library's typed error.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes. Payment-path failures are never swallowed;
// proof generation may degrade but records which path produced the
// result.
const (
	ErrProtocol           = "PROTOCOL_ERROR"
	ErrAuthorization      = "AUTHORIZATION_ERROR"
	ErrInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrNetworkFailure     = "NETWORK_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrTamper             = "TAMPER_ERROR"
	ErrGeneration         = "GENERATION_ERROR"
	ErrSubmission         = "SUBMISSION_ERROR"
	ErrUnsupportedNetwork = "UNSUPPORTED_NETWORK"
	ErrConfig             = "CONFIG_ERROR"
)
