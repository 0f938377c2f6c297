package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ValidateAmount checks if an amount string is a valid non-negative
// decimal.
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return &dec, nil
}

// ValidateAtomicAmount checks that an amount string is a positive
// integer in atomic units and returns it as a big.Int.
func ValidateAtomicAmount(amount string) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid atomic amount: %q", amount)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("atomic amount must be greater than 0")
	}
	return v, nil
}

// FormatAmountFromBigInt formats a big.Int amount to a decimal string
// with the given token decimals.
func FormatAmountFromBigInt(amount *big.Int, decimals int) string {
	dec := decimal.NewFromBigInt(amount, -int32(decimals))
	return dec.String()
}
