package quiz

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// The TestDefinition travels inside the package as base64-encoded JSON so
// it can be dropped into a script tag without escaping issues. Decoding
// fails loudly at package load; the runtime never runs without content.

// EncodePayload serializes a definition for embedding.
func EncodePayload(d *TestDefinition) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal test definition: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(s string) (*TestDefinition, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode test payload: %w", err)
	}
	var d TestDefinition
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse test payload: %w", err)
	}
	return &d, nil
}
