package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRequest() *Request {
	return &Request{
		Operation:    OpGeneration,
		TraceID:      "trace-1",
		Model:        "gpt-4o-mini",
		SystemPrompt: "be terse",
		Prompt:       "what is the capital of France",
		MaxTokens:    256,
		Temperature:  0.2,
	}
}

func TestNewFingerprintDeterministic(t *testing.T) {
	a, err := NewFingerprint(baseRequest())
	require.NoError(t, err)
	b, err := NewFingerprint(baseRequest())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 64)
}

func TestNewFingerprintIgnoresNonIdentityFields(t *testing.T) {
	a, err := NewFingerprint(baseRequest())
	require.NoError(t, err)

	req := baseRequest()
	req.TraceID = "completely-different"
	b, err := NewFingerprint(req)
	require.NoError(t, err)

	assert.Equal(t, a, b, "trace ID must not affect call identity")
}

func TestNewFingerprintSensitivity(t *testing.T) {
	base, err := NewFingerprint(baseRequest())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"operation", func(r *Request) { r.Operation = OpEvaluation }},
		{"model", func(r *Request) { r.Model = "claude-sonnet-4" }},
		{"system_prompt", func(r *Request) { r.SystemPrompt = "be verbose" }},
		{"prompt", func(r *Request) { r.Prompt = "different question" }},
		{"max_tokens", func(r *Request) { r.MaxTokens = 512 }},
		{"temperature", func(r *Request) { r.Temperature = 0.9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(req)
			fp, err := NewFingerprint(req)
			require.NoError(t, err)
			assert.NotEqual(t, base, fp)
		})
	}
}

func TestNewFingerprintRejectsIncompleteRequests(t *testing.T) {
	_, err := NewFingerprint(nil)
	assert.Error(t, err)

	req := baseRequest()
	req.Operation = ""
	_, err = NewFingerprint(req)
	assert.Error(t, err)

	req = baseRequest()
	req.Prompt = ""
	_, err = NewFingerprint(req)
	assert.Error(t, err)
}

func TestFingerprintShort(t *testing.T) {
	fp, err := NewFingerprint(baseRequest())
	require.NoError(t, err)
	assert.Len(t, fp.Short(), 12)
	assert.Equal(t, "abc", Fingerprint("abc").Short())
}
