package payment

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/agentpay/payproof/logger"
	"github.com/agentpay/payproof/metrics"
	"github.com/agentpay/payproof/types"
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Orchestrator drives the payment state machine:
// send, detect 402, parse, authorize, retry once, return.
//
// The sequence from authorization onward is not idempotent: invoking
// Do twice for the same logical request pays twice.
type Orchestrator struct {
	client  Doer
	parser  *ChallengeParser
	auth    *Authorizer
	log     logger.Logger
	metrics metrics.Recorder
}

func NewOrchestrator(client Doer, auth *Authorizer, log logger.Logger, rec metrics.Recorder) *Orchestrator {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Orchestrator{
		client:  client,
		parser:  NewChallengeParser(),
		auth:    auth,
		log:     log,
		metrics: rec,
	}
}

// Do sends the request and transparently satisfies a single payment
// challenge. Non-402 responses are returned unchanged. A second 402 on
// the retried request is returned as-is: exactly one payment attempt
// is ever made, so a misbehaving service cannot drain the payer.
//
// When a payment happened, the returned settlement is taken from the
// service's settlement header if present, otherwise reconstructed from
// the locally known transaction hash and amount.
func (o *Orchestrator) Do(req *http.Request) (*http.Response, *types.PaymentSettlement, error) {
	if err := ensureReplayable(req); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: "request failed: " + err.Error(),
		}
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil, nil
	}

	requirement := o.parser.Parse(resp)
	if requirement == nil {
		o.metrics.IncCounter("payment_challenge_unparsable", nil)
		return resp, nil, &types.Error{
			Code:    types.ErrProtocol,
			Message: "no payment requirements in 402 response",
		}
	}

	o.log.Info("payment required", map[string]any{
		"resource": requirement.Resource,
		"network":  requirement.Network,
		"amount":   requirement.MaxAmount,
	})

	auth, err := o.auth.Authorize(req.Context(), requirement)
	if err != nil {
		drain(resp)
		return nil, nil, err
	}

	payload, err := EncodePayload(auth)
	if err != nil {
		drain(resp)
		return nil, nil, err
	}
	drain(resp)

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, nil, err
	}
	retry.Header.Set(HeaderPayment, payload)

	retryResp, err := o.client.Do(retry)
	if err != nil {
		return nil, nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: "paid retry failed: " + err.Error(),
		}
	}

	o.metrics.IncCounter("payment_attempt", map[string]string{"network": requirement.Network})
	o.metrics.ObserveLatency("payment_flow", time.Since(start), map[string]string{"network": requirement.Network})

	settlement := o.settlementFor(retryResp, requirement, auth)
	return retryResp, settlement, nil
}

// settlementFor prefers the service-reported settlement header and
// falls back to the locally computed transfer.
func (o *Orchestrator) settlementFor(resp *http.Response, req *types.PaymentRequirement, auth *types.PaymentAuthorization) *types.PaymentSettlement {
	if raw := resp.Header.Get(HeaderPaymentResponse); raw != "" {
		if s := decodeSettlement(raw); s != nil {
			return s
		}
		o.log.Warn("undecodable settlement header, falling back to local record", nil)
	}
	if auth.TxHash == "" {
		return nil
	}
	return &types.PaymentSettlement{
		TxHash:  auth.TxHash,
		Network: req.Network,
		Amount:  req.MaxAmount,
		Success: true,
	}
}

func decodeSettlement(raw string) *types.PaymentSettlement {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var s types.PaymentSettlement
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s.Success = true
	return &s
}

// ensureReplayable buffers the request body so the original request
// can be re-sent after authorization.
func ensureReplayable(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return &types.Error{
			Code:    types.ErrProtocol,
			Message: "request body is not replayable: " + err.Error(),
		}
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}

func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, &types.Error{
				Code:    types.ErrProtocol,
				Message: "reopen request body: " + err.Error(),
			}
		}
		clone.Body = body
	}
	return clone, nil
}

func drain(resp *http.Response) {
	if resp.Body != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
	}
}
