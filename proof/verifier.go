package proof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/agentpay/payproof/types"
)

// VerifierClient talks to a remote verification service that can check
// a proof against a program input/output trace.
type VerifierClient struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

func NewVerifierClient(endpoint string, client *http.Client, timeout time.Duration) *VerifierClient {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VerifierClient{endpoint: endpoint, client: client, timeout: timeout}
}

type verifyRequestWire struct {
	Proof     string     `json:"proof"`
	ModelID   string     `json:"model_id"`
	ModelHash string     `json:"model_hash"`
	ProgramIO *ProgramIO `json:"program_io"`
}

// RemoteVerdict is the service's answer. Valid=false with no transport
// error is a real negative, not an availability failure.
type RemoteVerdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (c *VerifierClient) Verify(ctx context.Context, p *types.ZkProof, modelID, modelHash string, programIO *ProgramIO) (*RemoteVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(verifyRequestWire{
		Proof:     p.Proof,
		ModelID:   modelID,
		ModelHash: modelHash,
		ProgramIO: programIO,
	})
	if err != nil {
		return nil, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: "verifier unreachable: " + err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: fmt.Sprintf("verifier returned status %d", resp.StatusCode),
		}
	}

	var verdict RemoteVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("decode verifier response: %w", err)
	}
	return &verdict, nil
}
