package utils

import (
	"testing"

	"github.com/agentpay/payproof/types"
)

func TestParsePaymentRequirement(t *testing.T) {
	req, err := ParsePaymentRequirement([]byte(
		`{"scheme":"exact","network":"base","asset":"0xa","payTo":"0xb","maxAmount":"10000","resource":"https://api.example.com/v1/quote"}`))
	if err != nil {
		t.Fatal(err)
	}
	if req.Scheme != "exact" || req.MaxAmount != "10000" {
		t.Fatalf("fields not parsed: %+v", req)
	}

	for _, bad := range []string{
		`{"scheme":"exact","network":"base","asset":"0xa","payTo":"0xb"}`, // no amount
		`{"network":"base","asset":"0xa","payTo":"0xb","maxAmount":"1"}`,  // no scheme
		`not json`,
	} {
		_, err := ParsePaymentRequirement([]byte(bad))
		if err == nil {
			t.Fatalf("%s must be rejected", bad)
		}
		perr, ok := err.(*types.Error)
		if !ok || perr.Code != types.ErrProtocol {
			t.Fatalf("expected %s, got %v", types.ErrProtocol, err)
		}
	}
}

func TestParseProofMetadata(t *testing.T) {
	meta, err := ParseProofMetadata([]byte(
		`{"modelHash":"0x1","inputHash":"0x2","outputHash":"0x3","proofSize":256,"proverVersion":"simulated-v1"}`))
	if err != nil {
		t.Fatal(err)
	}
	if meta.ProofSize != 256 || meta.ProverVersion != "simulated-v1" {
		t.Fatalf("fields not parsed: %+v", meta)
	}

	for _, bad := range []string{
		`{"modelHash":"0x1","inputHash":"0x2","proofSize":256,"proverVersion":"v1"}`, // no output hash
		`{"modelHash":"0x1","inputHash":"0x2","outputHash":"0x3","proverVersion":"v1"}`, // no size
		`{"modelHash":"0x1","inputHash":"0x2","outputHash":"0x3","proofSize":256}`,      // no version
		`{broken`,
	} {
		_, err := ParseProofMetadata([]byte(bad))
		if err == nil {
			t.Fatalf("%s must be rejected", bad)
		}
		perr, ok := err.(*types.Error)
		if !ok || perr.Code != types.ErrValidation {
			t.Fatalf("expected %s, got %v", types.ErrValidation, err)
		}
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(
		`{"agentId":"agent-1","supportedNetworks":["base"],"logLevel":"debug","enableMetrics":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AgentID != "agent-1" || !cfg.EnableMetrics || cfg.LogLevel != "debug" {
		t.Fatalf("fields not parsed: %+v", cfg)
	}
	if len(cfg.SupportedNetworks) != 1 || cfg.SupportedNetworks[0] != types.NetworkBase {
		t.Fatalf("networks not parsed: %v", cfg.SupportedNetworks)
	}

	_, err = ParseConfig([]byte(`{broken`))
	if err == nil {
		t.Fatal("broken JSON must be rejected")
	}
	perr, ok := err.(*types.Error)
	if !ok || perr.Code != types.ErrConfig {
		t.Fatalf("expected %s, got %v", types.ErrConfig, err)
	}
}
