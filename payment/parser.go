// Package payment implements the client side of the x402 micropayment
// convention: parsing a 402 payment demand, building a signed
// authorization, and retrying the original request exactly once.
package payment

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/agentpay/payproof/types"
)

// Header names used by the x402 challenge/response exchange.
const (
	// HeaderPaymentRequired carries the base64 JSON payment demand on
	// a 402 response.
	HeaderPaymentRequired = "X-Payment-Required"

	// HeaderPaymentRequiredLegacy is the older demand header still
	// emitted by some services; tried second.
	HeaderPaymentRequiredLegacy = "X-402-Payment-Required"

	// HeaderPayment carries the base64 JSON authorization payload on
	// the retried request.
	HeaderPayment = "X-Payment"

	// HeaderPaymentResponse optionally carries base64 JSON settlement
	// data on the paid response.
	HeaderPaymentResponse = "X-Payment-Response"
)

// requirementWire is the demand envelope as it travels in the header.
// Some services send the amount as "amount" instead of "maxAmount";
// both are accepted.
type requirementWire struct {
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
	Asset       string `json:"asset"`
	PayTo       string `json:"payTo"`
	MaxAmount   string `json:"maxAmount,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Resource    string `json:"resource,omitempty"`
	Description string `json:"description,omitempty"`
}

// ChallengeParser extracts a payment requirement from an HTTP response.
type ChallengeParser struct{}

func NewChallengeParser() *ChallengeParser {
	return &ChallengeParser{}
}

// Parse returns the payment requirement carried by a 402 response, or
// nil when the response is not a payment challenge or the payload is
// missing or undecodable. It never returns an error; the caller turns
// nil into a terminal protocol failure.
func (p *ChallengeParser) Parse(resp *http.Response) *types.PaymentRequirement {
	if resp == nil || resp.StatusCode != http.StatusPaymentRequired {
		return nil
	}

	for _, name := range []string{HeaderPaymentRequired, HeaderPaymentRequiredLegacy} {
		raw := resp.Header.Get(name)
		if raw == "" {
			continue
		}
		if req := decodeRequirement(raw); req != nil {
			applyDefaults(req, resp)
			return req
		}
	}
	return nil
}

func decodeRequirement(raw string) *types.PaymentRequirement {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var wire requirementWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil
	}

	amount := wire.MaxAmount
	if amount == "" {
		amount = wire.Amount
	}
	if amount == "" {
		return nil
	}

	return &types.PaymentRequirement{
		Scheme:      wire.Scheme,
		Network:     wire.Network,
		Asset:       wire.Asset,
		PayTo:       wire.PayTo,
		MaxAmount:   amount,
		Resource:    wire.Resource,
		Description: wire.Description,
	}
}

func applyDefaults(req *types.PaymentRequirement, resp *http.Response) {
	if req.Resource == "" && resp.Request != nil && resp.Request.URL != nil {
		req.Resource = resp.Request.URL.String()
	}
}

// EncodeRequirement serializes a requirement into its header envelope.
// decode(encode(r)) reproduces every field exactly.
func EncodeRequirement(req *types.PaymentRequirement) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeRequirement is the inverse of EncodeRequirement.
func DecodeRequirement(raw string) (*types.PaymentRequirement, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, &types.Error{Code: types.ErrProtocol, Message: "payment requirement is not valid base64"}
	}
	var req types.PaymentRequirement
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &types.Error{Code: types.ErrProtocol, Message: "payment requirement is not valid JSON"}
	}
	return &req, nil
}
