// Package transport defines the normalized request/response types exchanged
// between the resilience core and provider adapters, plus the deterministic
// fingerprint used as the response cache key. The core itself never inspects
// provider wire formats; it only sees these types.
package transport

import (
	"context"
	"net/http"
)

// Operation is the opaque unit of work the orchestrator executes against a
// chosen provider. Implementations perform the actual provider call and may
// return any failure shape; the error classifier normalizes it.
type Operation func(ctx context.Context, provider string) (*Response, error)

// OperationKind identifies the class of work a request performs.
// It participates in fingerprinting so different operation classes never
// share cache entries.
type OperationKind string

const (
	// OpGeneration produces free-form text from a prompt.
	OpGeneration OperationKind = "generation"

	// OpEvaluation judges previously generated content against a prompt.
	OpEvaluation OperationKind = "evaluation"
)

// FinishReason describes why a provider stopped producing output.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishDegraded      FinishReason = "degraded"
)

// Request is the normalized call context handed to provider adapters.
// Provider identity is deliberately absent: the orchestrator picks the
// provider per attempt, and the cache fingerprint must survive failover.
type Request struct {
	Operation    OperationKind `json:"operation"`
	TraceID      string        `json:"trace_id"`
	Model        string        `json:"model"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Prompt       string        `json:"prompt"`
	MaxTokens    int64         `json:"max_tokens"`
	Temperature  float64       `json:"temperature"`
}

// NormalizedUsage aggregates token and latency accounting across providers.
type NormalizedUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}

// Response is the normalized result of one provider call. Responses are
// immutable after construction; the cache stores and returns them by
// reference.
type Response struct {
	Content            string          `json:"content"`
	FinishReason       FinishReason    `json:"finish_reason"`
	ProviderRequestIDs []string        `json:"provider_request_ids,omitempty"`
	Usage              NormalizedUsage `json:"usage"`
	Headers            http.Header     `json:"-"`
	RawBody            []byte          `json:"-"`
}
