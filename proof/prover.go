package proof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/agentpay/payproof/types"
)

// ProveRequest is what the generator hands to a delegated prover.
type ProveRequest struct {
	ModelID string                 `json:"model_id"`
	Inputs  map[string]interface{} `json:"inputs"`
	Tag     types.ProofTag         `json:"tag"`
}

// ProveResult is a delegated prover's outcome: the output hash to
// embed in the commitment and the raw model output it derives from.
type ProveResult struct {
	OutputHash    string `json:"output_hash"`
	RawOutput     string `json:"raw_output,omitempty"`
	ProverVersion string `json:"prover_version,omitempty"`
}

// Prover is the external proving capability. Implementations must
// respect context cancellation and release any temporary state on
// every exit path; the generator treats any error as unavailability
// and falls back to the simulation path.
type Prover interface {
	Prove(ctx context.Context, req ProveRequest) (*ProveResult, error)
}

// HTTPProver delegates to a remote proving service.
type HTTPProver struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

func NewHTTPProver(endpoint string, client *http.Client, timeout time.Duration) *HTTPProver {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProver{endpoint: endpoint, client: client, timeout: timeout}
}

// proveResponse mirrors the remote prover's wire format.
type proveResponse struct {
	Success bool `json:"success"`
	Proof   struct {
		Proof    string `json:"proof"`
		Metadata struct {
			OutputHash    string `json:"output_hash"`
			ProverVersion string `json:"prover_version"`
		} `json:"metadata"`
	} `json:"proof"`
	Inference struct {
		RawOutput string `json:"raw_output"`
	} `json:"inference"`
	Error string `json:"error,omitempty"`
}

func (p *HTTPProver) Prove(ctx context.Context, req ProveRequest) (*ProveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode prove request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: "prover unreachable: " + err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: fmt.Sprintf("prover returned status %d", resp.StatusCode),
		}
	}

	var out proveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode prover response: %w", err)
	}
	if !out.Success {
		return nil, &types.Error{
			Code:    types.ErrGeneration,
			Message: "prover reported failure: " + out.Error,
		}
	}
	if out.Proof.Metadata.OutputHash == "" {
		return nil, &types.Error{
			Code:    types.ErrGeneration,
			Message: "prover response missing output hash",
		}
	}

	return &ProveResult{
		OutputHash:    out.Proof.Metadata.OutputHash,
		RawOutput:     out.Inference.RawOutput,
		ProverVersion: out.Proof.Metadata.ProverVersion,
	}, nil
}

// CommandProver delegates to a local proving binary. Each invocation
// gets its own temp directory (unique per call, never derived from a
// coarse timestamp) which is removed on every exit path.
type CommandProver struct {
	path    string
	args    []string
	timeout time.Duration
}

func NewCommandProver(path string, args []string, timeout time.Duration) *CommandProver {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CommandProver{path: path, args: args, timeout: timeout}
}

func (p *CommandProver) Prove(ctx context.Context, req ProveRequest) (*ProveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	workDir, err := os.MkdirTemp("", "payproof-prove-*")
	if err != nil {
		return nil, fmt.Errorf("create prover workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "inputs.json")
	outputPath := filepath.Join(workDir, "result.json")

	inputs, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode prover inputs: %w", err)
	}
	if err := os.WriteFile(inputPath, inputs, 0o600); err != nil {
		return nil, fmt.Errorf("write prover inputs: %w", err)
	}

	args := append(append([]string{}, p.args...), "--input", inputPath, "--output", outputPath)
	cmd := exec.CommandContext(ctx, p.path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &types.Error{
			Code:    types.ErrGeneration,
			Message: fmt.Sprintf("prover command failed: %v: %s", err, out),
		}
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read prover result: %w", err)
	}

	var result ProveResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode prover result: %w", err)
	}
	if result.OutputHash == "" {
		return nil, &types.Error{
			Code:    types.ErrGeneration,
			Message: "prover result missing output hash",
		}
	}
	return &result, nil
}
