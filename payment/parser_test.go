package payment

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"testing"

	"github.com/agentpay/payproof/types"
)

func challengeResponse(status int, header, value string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Request: &http.Request{
			URL: &url.URL{Scheme: "https", Host: "api.example.com", Path: "/v1/quote"},
		},
	}
	if header != "" {
		resp.Header.Set(header, value)
	}
	return resp
}

func TestParse_RoundTripPreservesFields(t *testing.T) {
	req := &types.PaymentRequirement{
		Scheme:    "exact",
		Network:   "base",
		Asset:     "0xusdc",
		PayTo:     "0xpayee",
		MaxAmount: "10000",
	}

	encoded, err := EncodeRequirement(req)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeRequirement(encoded)
	if err != nil {
		t.Fatal(err)
	}

	if *decoded != *req {
		t.Fatalf("round trip changed fields: got %+v want %+v", decoded, req)
	}
	if decoded.MaxAmount != "10000" {
		t.Fatalf("maxAmount not preserved: %q", decoded.MaxAmount)
	}
}

func TestParse_RequiresExact402(t *testing.T) {
	p := NewChallengeParser()

	encoded, _ := EncodeRequirement(&types.PaymentRequirement{
		Scheme: "exact", Network: "base", Asset: "0xa", PayTo: "0xb", MaxAmount: "1",
	})

	for _, status := range []int{http.StatusOK, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest} {
		if got := p.Parse(challengeResponse(status, HeaderPaymentRequired, encoded)); got != nil {
			t.Fatalf("status %d should not parse as a payment challenge", status)
		}
	}
	if got := p.Parse(challengeResponse(http.StatusPaymentRequired, HeaderPaymentRequired, encoded)); got == nil {
		t.Fatal("402 with valid header should parse")
	}
}

func TestParse_TriesBothHeaders(t *testing.T) {
	p := NewChallengeParser()
	encoded, _ := EncodeRequirement(&types.PaymentRequirement{
		Scheme: "exact", Network: "base", Asset: "0xa", PayTo: "0xb", MaxAmount: "5",
	})

	got := p.Parse(challengeResponse(http.StatusPaymentRequired, HeaderPaymentRequiredLegacy, encoded))
	if got == nil {
		t.Fatal("legacy header should be accepted")
	}
	if got.MaxAmount != "5" {
		t.Fatalf("unexpected amount %q", got.MaxAmount)
	}
}

func TestParse_MissingOrUndecodableYieldsNil(t *testing.T) {
	p := NewChallengeParser()

	if got := p.Parse(challengeResponse(http.StatusPaymentRequired, "", "")); got != nil {
		t.Fatal("missing header should yield nil")
	}
	if got := p.Parse(challengeResponse(http.StatusPaymentRequired, HeaderPaymentRequired, "!!not-base64!!")); got != nil {
		t.Fatal("undecodable base64 should yield nil")
	}

	notJSON := base64.StdEncoding.EncodeToString([]byte("hello"))
	if got := p.Parse(challengeResponse(http.StatusPaymentRequired, HeaderPaymentRequired, notJSON)); got != nil {
		t.Fatal("non-JSON payload should yield nil")
	}
}

func TestParse_AcceptsAmountAlias(t *testing.T) {
	p := NewChallengeParser()
	payload := base64.StdEncoding.EncodeToString([]byte(
		`{"scheme":"exact","network":"base","asset":"0xa","payTo":"0xb","amount":"777"}`))

	got := p.Parse(challengeResponse(http.StatusPaymentRequired, HeaderPaymentRequired, payload))
	if got == nil {
		t.Fatal("amount alias should be accepted")
	}
	if got.MaxAmount != "777" {
		t.Fatalf("amount alias not mapped: %q", got.MaxAmount)
	}
}

func TestParse_DefaultsResourceToRequestURL(t *testing.T) {
	p := NewChallengeParser()
	encoded, _ := EncodeRequirement(&types.PaymentRequirement{
		Scheme: "exact", Network: "base", Asset: "0xa", PayTo: "0xb", MaxAmount: "1",
	})

	got := p.Parse(challengeResponse(http.StatusPaymentRequired, HeaderPaymentRequired, encoded))
	if got == nil {
		t.Fatal("expected requirement")
	}
	if got.Resource != "https://api.example.com/v1/quote" {
		t.Fatalf("resource default wrong: %q", got.Resource)
	}
	if got.Description != "" {
		t.Fatalf("description should default to empty, got %q", got.Description)
	}
}
