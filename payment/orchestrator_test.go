package payment

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/agentpay/payproof/types"
)

func newOrchestratorForTest(t *testing.T, supported []types.Network) *Orchestrator {
	t.Helper()
	auth := NewAuthorizer(newTestSigner(t), nil, "agent-1", supported, false, nil)
	return NewOrchestrator(http.DefaultClient, auth, nil, nil)
}

func demandHeader(t *testing.T) string {
	t.Helper()
	encoded, err := EncodeRequirement(&types.PaymentRequirement{
		Scheme:    "exact",
		Network:   "base",
		Asset:     "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		PayTo:     "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		MaxAmount: "10000",
		Resource:  "https://api.example.com/v1/quote",
	})
	if err != nil {
		t.Fatal(err)
	}
	return encoded
}

func TestDo_PassThroughWithoutChallenge(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	o := newOrchestratorForTest(t, nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, settlement, err := o.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if settlement != nil {
		t.Fatal("no payment happened, settlement must be nil")
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}
}

func TestDo_UnparsableChallengeIsTerminal(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set(HeaderPaymentRequired, "!!garbage!!")
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	o := newOrchestratorForTest(t, nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, _, err := o.Do(req)
	if err == nil {
		t.Fatal("expected terminal protocol error")
	}
	perr, ok := err.(*types.Error)
	if !ok || perr.Code != types.ErrProtocol {
		t.Fatalf("expected %s, got %v", types.ErrProtocol, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Fatalf("unparsable challenge must trigger zero retries; saw %d requests", got)
	}
}

func TestDo_PaysOnceAndRetriesOnce(t *testing.T) {
	var requests, paid int32
	encoded := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		payload := r.Header.Get(HeaderPayment)
		if payload == "" {
			w.Header().Set(HeaderPaymentRequired, encoded)
			w.WriteHeader(http.StatusPaymentRequired)
			return
		}
		atomic.AddInt32(&paid, 1)

		auth, err := DecodePayload(payload)
		if err != nil {
			t.Errorf("retried request carried undecodable payment payload: %v", err)
		}
		if auth.Amount != "10000" {
			t.Errorf("payment amount %q", auth.Amount)
		}

		settlement, _ := json.Marshal(types.PaymentSettlement{
			TxHash:  "0xabc123",
			Network: "base",
			Amount:  "10000",
		})
		w.Header().Set(HeaderPaymentResponse, base64.StdEncoding.EncodeToString(settlement))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	encoded = demandHeader(t)

	o := newOrchestratorForTest(t, nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, settlement, err := o.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Fatalf("expected exactly 2 requests (send + retry), got %d", got)
	}
	if got := atomic.LoadInt32(&paid); got != 1 {
		t.Fatalf("expected exactly 1 paid retry, got %d", got)
	}
	if settlement == nil {
		t.Fatal("expected settlement from response header")
	}
	if settlement.TxHash != "0xabc123" || !settlement.Success {
		t.Fatalf("unexpected settlement %+v", settlement)
	}
}

func TestDo_SecondChallengeReturnedAsIs(t *testing.T) {
	var requests int32
	encoded := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set(HeaderPaymentRequired, encoded)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()
	encoded = demandHeader(t)

	o := newOrchestratorForTest(t, nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, _, err := o.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("second 402 must be returned unchanged, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Fatalf("exactly one retry allowed, saw %d requests", got)
	}
}

func TestDo_AuthorizationFailureSurfaced(t *testing.T) {
	encoded := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderPaymentRequired, encoded)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()
	encoded = demandHeader(t)

	// Only polygon allowed; the demand asks for base.
	o := newOrchestratorForTest(t, []types.Network{types.NetworkPolygon})
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	_, _, err := o.Do(req)
	if err == nil {
		t.Fatal("authorization failure must surface")
	}
}
