package utils

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// HashSize is the byte length of every content hash in the proof
// pipeline (keccak256).
const HashSize = 32

var hexPattern = regexp.MustCompile("^[0-9a-fA-F]+$")

// Keccak256Hex returns the 0x-prefixed keccak256 of the concatenated
// inputs.
func Keccak256Hex(data ...[]byte) string {
	return hexutil.Encode(crypto.Keccak256(data...))
}

// Keccak256 returns the raw keccak256 of the concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}

// DecodeHash decodes a 0x-prefixed hash string into exactly HashSize
// bytes.
func DecodeHash(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("hash must be 0x-prefixed: %q", s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("hash is not valid hex: %w", err)
	}
	if len(b) != HashSize {
		return nil, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	return b, nil
}

// IsHexHash reports whether s is a 0x-prefixed hex string of exactly
// HashSize bytes.
func IsHexHash(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	body := s[2:]
	return len(body) == HashSize*2 && hexPattern.MatchString(body)
}

// IsHexBytes reports whether s is a 0x-prefixed hex string of exactly
// n bytes.
func IsHexBytes(s string, n int) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	body := s[2:]
	return len(body) == n*2 && hexPattern.MatchString(body)
}

// ValidateAddress checks if a string is a valid Ethereum address.
func ValidateAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress ensures an address is properly checksummed.
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return ""
	}
	return common.HexToAddress(address).Hex()
}
