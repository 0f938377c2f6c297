// Package payproof lets autonomous agents pay per HTTP call using the
// x402 micropayment convention and attach verifiable proof commitments
// to the decisions that triggered those payments.
//
// Two pipelines share no mutable state: the payment pipeline (parse a
// 402 demand, authorize, retry once) and the proof pipeline (generate
// a commitment, validate and verify it, attest it on a ledger). In
// agent use a decision proof is generated and attested before a
// payment is authorized.
package payproof

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agentpay/payproof/attest"
	"github.com/agentpay/payproof/clients"
	"github.com/agentpay/payproof/logger"
	"github.com/agentpay/payproof/metrics"
	"github.com/agentpay/payproof/payment"
	"github.com/agentpay/payproof/proof"
	"github.com/agentpay/payproof/signer"
	"github.com/agentpay/payproof/types"
)

// Version information
const (
	Version         = "1.0.0"
	ProtocolVersion = 1
)

// Client is the main entry point wiring both pipelines.
type Client struct {
	config     *types.Config
	log        logger.Logger
	metrics    metrics.Recorder
	timeout    time.Duration
	httpClient *http.Client

	signer    signer.TypedDataSigner
	chain     clients.ChainClient
	prover    proof.Prover
	verifier  *proof.VerifierClient
	ledger    attest.Ledger
	validator common.Address

	orchestrator *payment.Orchestrator
	generator    *proof.Generator
	validatorSvc *proof.Validator
	submitter    *attest.Submitter
}

// New creates a Client with the given configuration and options.
func New(cfg *types.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = &types.Config{}
	}

	c := &Client{
		config:  cfg,
		timeout: 30 * time.Second,
	}
	if cfg.DefaultTimeout > 0 {
		c.timeout = cfg.DefaultTimeout
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		if cfg.LogLevel != "" {
			c.log = logger.NewZapLogger(cfg.LogLevel)
		} else {
			c.log = logger.NoopLogger{}
		}
	}
	if c.metrics == nil {
		if cfg.EnableMetrics {
			c.metrics = metrics.NewPrometheusRecorder()
		} else {
			c.metrics = metrics.NoopRecorder{}
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.prover == nil && cfg.ProverURL != "" {
		c.prover = proof.NewHTTPProver(cfg.ProverURL, c.httpClient, c.timeout)
	}
	if c.verifier == nil && cfg.VerifierURL != "" {
		c.verifier = proof.NewVerifierClient(cfg.VerifierURL, c.httpClient, c.timeout)
	}

	authorizer := payment.NewAuthorizer(
		c.signer, c.chain, cfg.AgentID, cfg.SupportedNetworks, cfg.ExecuteOnChain, c.log)
	c.orchestrator = payment.NewOrchestrator(c.httpClient, authorizer, c.log, c.metrics)
	c.generator = proof.NewGenerator(c.prover, c.log, c.metrics)
	c.validatorSvc = proof.NewValidator(c.verifier, c.log)
	c.submitter = attest.NewSubmitter(c.ledger, c.validator, c.log, c.metrics)

	return c, nil
}

// Pay sends the request, satisfying a single 402 payment challenge if
// one occurs. Invoking Pay twice for the same logical request pays
// twice.
func (c *Client) Pay(req *http.Request) (*http.Response, *types.PaymentSettlement, error) {
	return c.orchestrator.Do(req)
}

// GenerateProof produces a commitment over the model bytes and inputs.
func (c *Client) GenerateProof(ctx context.Context, modelID string, model []byte, inputs map[string]interface{}, tag types.ProofTag) (*types.ZkProof, error) {
	return c.generator.Generate(ctx, modelID, model, inputs, tag)
}

// ValidateProof performs structural checks only.
func (c *Client) ValidateProof(p *types.ZkProof) proof.StructureResult {
	return c.validatorSvc.ValidateStructure(p)
}

// VerifyProof runs the three-tier verification strategy.
func (c *Client) VerifyProof(ctx context.Context, p *types.ZkProof, modelID, expectedModelHash string, programIO *proof.ProgramIO) proof.VerifyResult {
	return c.validatorSvc.Verify(ctx, p, modelID, expectedModelHash, programIO)
}

// SubmitProof attests the proof on the configured ledger under this
// client's agent id.
func (c *Client) SubmitProof(ctx context.Context, p *types.ZkProof, requestURI string) *types.SubmitResult {
	return c.submitter.Submit(ctx, p, c.config.AgentID, requestURI)
}

// ProofStatus fetches the ledger record for a request hash.
func (c *Client) ProofStatus(ctx context.Context, requestHash string) (*types.ValidationRecord, error) {
	return c.submitter.GetStatus(ctx, requestHash)
}

// IsProofValid reports the ledger's verdict for a request hash.
func (c *Client) IsProofValid(ctx context.Context, requestHash string) (bool, error) {
	return c.submitter.IsValid(ctx, requestHash)
}

// ListProofs lists this agent's attested proofs, filtered client-side.
func (c *Client) ListProofs(ctx context.Context, filter types.ListFilter) ([]types.ProofListItem, error) {
	return c.submitter.ListForAgent(ctx, c.config.AgentID, filter)
}

// Supported reports the payment kinds this client can honor.
func (c *Client) Supported() *types.SupportedResponse {
	networks := c.config.SupportedNetworks
	if len(networks) == 0 {
		networks = types.DefaultNetworks
	}
	kinds := make([]types.SupportedItem, 0, len(networks))
	for _, n := range networks {
		kinds = append(kinds, types.SupportedItem{
			X402Version: ProtocolVersion,
			Scheme:      string(types.SchemeExact),
			Network:     n.String(),
		})
	}
	return &types.SupportedResponse{Kinds: kinds}
}

// Close releases chain and ledger connections.
func (c *Client) Close() {
	if c.chain != nil {
		c.chain.Close()
	}
	if c.ledger != nil {
		c.ledger.Close()
	}
}
