package utils

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/agentpay/payproof/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ParsePaymentRequirement parses and tag-validates a PaymentRequirement
// from JSON.
func ParsePaymentRequirement(data []byte) (*types.PaymentRequirement, error) {
	var req types.PaymentRequirement

	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &types.Error{
			Code:    types.ErrProtocol,
			Message: fmt.Sprintf("failed to parse payment requirement: %v", err),
		}
	}

	if err := validate.Struct(&req); err != nil {
		return nil, &types.Error{
			Code:    types.ErrProtocol,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	return &req, nil
}

// ParseProofMetadata parses and tag-validates ProofMetadata from JSON.
func ParseProofMetadata(data []byte) (*types.ProofMetadata, error) {
	var meta types.ProofMetadata

	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &types.Error{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("failed to parse proof metadata: %v", err),
		}
	}

	if err := validate.Struct(&meta); err != nil {
		return nil, &types.Error{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	return &meta, nil
}

// ParseConfig parses a Config from JSON.
func ParseConfig(data []byte) (*types.Config, error) {
	var cfg types.Config

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfig,
			Message: fmt.Sprintf("failed to parse config: %v", err),
		}
	}

	return &cfg, nil
}
