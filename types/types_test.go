package types

import "testing"

func TestProofTag_IsValid(t *testing.T) {
	for _, tag := range ProofTags {
		if !tag.IsValid() {
			t.Fatalf("tag %q must be valid", tag)
		}
	}
	for _, tag := range []ProofTag{"", "Authorization", "decision ", "unknown"} {
		if tag.IsValid() {
			t.Fatalf("tag %q must be invalid", tag)
		}
	}
}

func TestPaymentRequirement_Validate(t *testing.T) {
	base := func() *PaymentRequirement {
		return &PaymentRequirement{
			Scheme:    "exact",
			Network:   "base",
			Asset:     "0xusdc",
			PayTo:     "0xpayee",
			MaxAmount: "10000",
		}
	}

	if err := base().Validate(DefaultNetworks); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		mutate func(*PaymentRequirement)
		code   string
	}{
		{"missing scheme", func(r *PaymentRequirement) { r.Scheme = "" }, ErrProtocol},
		{"zero amount", func(r *PaymentRequirement) { r.MaxAmount = "0" }, ErrProtocol},
		{"negative amount", func(r *PaymentRequirement) { r.MaxAmount = "-1" }, ErrProtocol},
		{"fractional amount", func(r *PaymentRequirement) { r.MaxAmount = "1.5" }, ErrProtocol},
		{"non-numeric amount", func(r *PaymentRequirement) { r.MaxAmount = "lots" }, ErrProtocol},
		{"missing payTo", func(r *PaymentRequirement) { r.PayTo = "" }, ErrProtocol},
		{"missing asset", func(r *PaymentRequirement) { r.Asset = "" }, ErrProtocol},
		{"unknown network", func(r *PaymentRequirement) { r.Network = "solana" }, ErrUnsupportedNetwork},
	}

	for _, tc := range cases {
		req := base()
		tc.mutate(req)
		err := req.Validate(DefaultNetworks)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		perr, ok := err.(*Error)
		if !ok || perr.Code != tc.code {
			t.Fatalf("%s: expected code %s, got %v", tc.name, tc.code, err)
		}
	}

	if err := base().Validate([]Network{NetworkPolygon}); err == nil {
		t.Fatal("network outside the supported set must be rejected")
	}
}

func TestNetwork_ChainID(t *testing.T) {
	cases := map[Network]int64{
		NetworkBase:        8453,
		NetworkBaseSepolia: 84532,
		NetworkPolygon:     137,
		NetworkPolygonAmoy: 80002,
	}
	for n, want := range cases {
		got, ok := n.ChainID()
		if !ok || got != want {
			t.Fatalf("%s: got %d %v", n, got, ok)
		}
	}
	if _, ok := Network("solana").ChainID(); ok {
		t.Fatal("unknown network must have no chain id")
	}
}

func TestValidationResponse_String(t *testing.T) {
	cases := map[ValidationResponse]string{
		ResponsePending:        "PENDING",
		ResponseValid:          "VALID",
		ResponseInvalid:        "INVALID",
		ResponseInconclusive:   "INCONCLUSIVE",
		ValidationResponse(99): "UNKNOWN",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Fatalf("%d: got %s want %s", v, got, want)
		}
	}
}

func TestValidationRecord_Exists(t *testing.T) {
	var nilRecord *ValidationRecord
	if nilRecord.Exists() {
		t.Fatal("nil record must not exist")
	}
	if (&ValidationRecord{RequestHash: "0xabc"}).Exists() {
		t.Fatal("zero sentinel must not exist")
	}
	if (&ValidationRecord{Validator: "0x0000000000000000000000000000000000000000"}).Exists() {
		t.Fatal("zero-address sentinel must not exist")
	}
	record := &ValidationRecord{
		Validator:   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		RequestedAt: 1700000000,
	}
	if !record.Exists() {
		t.Fatal("populated record must exist")
	}
}
