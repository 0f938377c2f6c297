package payproof

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agentpay/payproof/attest"
	"github.com/agentpay/payproof/clients"
	"github.com/agentpay/payproof/logger"
	"github.com/agentpay/payproof/metrics"
	"github.com/agentpay/payproof/proof"
	"github.com/agentpay/payproof/signer"
)

type Option func(*Client)

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.timeout = t
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithSigner sets the typed-data signing capability payments are
// authorized with.
func WithSigner(s signer.TypedDataSigner) Option {
	return func(c *Client) {
		c.signer = s
	}
}

// WithChainClient enables execute-on-chain payments.
func WithChainClient(cc clients.ChainClient) Option {
	return func(c *Client) {
		c.chain = cc
	}
}

// WithProver sets a delegated proving capability.
func WithProver(p proof.Prover) Option {
	return func(c *Client) {
		c.prover = p
	}
}

// WithVerifier sets the remote verification service client.
func WithVerifier(v *proof.VerifierClient) Option {
	return func(c *Client) {
		c.verifier = v
	}
}

// WithLedger sets the attestation ledger and the validator address
// submissions are recorded under.
func WithLedger(l attest.Ledger, validator common.Address) Option {
	return func(c *Client) {
		c.ledger = l
		c.validator = validator
	}
}
