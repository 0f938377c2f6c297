package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializes a value with recursively sorted object keys
// so that semantically identical inputs always hash identically,
// regardless of key insertion order.
//
// The value is first normalized through a JSON round-trip (preserving
// numeric precision via json.Number), then re-marshaled; Go's encoder
// emits map keys in sorted order, which yields the canonical form.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical serialize: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var normalized interface{}
	if err := dec.Decode(&normalized); err != nil {
		return nil, fmt.Errorf("canonical normalize: %w", err)
	}

	out, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("canonical re-serialize: %w", err)
	}
	return out, nil
}

// CompactJSON removes whitespace from JSON.
func CompactJSON(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	if err := json.Compact(&buffer, data); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
