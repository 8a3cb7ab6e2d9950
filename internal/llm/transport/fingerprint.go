package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint is the deterministic SHA-256 hex identity of a call context,
// used as the response cache key. Identical fingerprints imply an identical
// (operation kind, model, prompts, sampling parameters) tuple by
// construction.
type Fingerprint string

// String returns the fingerprint as a plain string.
func (f Fingerprint) String() string { return string(f) }

// Short returns a truncated form suitable for log fields.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// canonicalPayload is the sole input to fingerprint hashing. Field order is
// fixed and encoding/json emits struct fields in declaration order, so the
// serialized form is deterministic. Provider identity and trace IDs are
// excluded: a cache hit must be provider-agnostic and survive failover.
type canonicalPayload struct {
	Operation    OperationKind `json:"operation"`
	Model        string        `json:"model"`
	SystemPrompt string        `json:"system_prompt"`
	Prompt       string        `json:"prompt"`
	MaxTokens    int64         `json:"max_tokens"`
	Temperature  float64       `json:"temperature"`
}

// NewFingerprint computes the cache fingerprint for a request.
// Returns an error for requests missing the fields that define call
// identity, since hashing those would alias unrelated calls.
func NewFingerprint(req *Request) (Fingerprint, error) {
	if req == nil {
		return "", fmt.Errorf("request is nil")
	}
	if req.Operation == "" {
		return "", fmt.Errorf("operation is required for fingerprinting")
	}
	if req.Prompt == "" {
		return "", fmt.Errorf("prompt is required for fingerprinting")
	}

	payload := canonicalPayload{
		Operation:    req.Operation,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
		Prompt:       req.Prompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize canonical payload: %w", err)
	}

	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:])), nil
}
