package fallback

import (
	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// Reserved ProviderUsed values for results not produced by a real provider.
const (
	// ProviderCache marks a response served from the response cache.
	ProviderCache = "cache"
	// ProviderNone marks a synthesized degraded response.
	ProviderNone = "none"
)

// Response is the final result of one orchestrator invocation, immutable
// after construction. The orchestrator never returns an error: callers who
// need a hard failure inspect Success and LastError themselves.
type Response struct {
	// Content is the provider payload, or a synthesized placeholder when
	// Degraded is set. Never nil.
	Content *transport.Response `json:"content"`

	// ProviderUsed names the provider that produced Content, or "cache"
	// for cache hits and "none" for degraded responses.
	ProviderUsed string `json:"provider_used"`

	// Success reports whether a real provider (or the cache) produced
	// the content.
	Success bool `json:"success"`

	// Degraded is set when every candidate was exhausted and Content is
	// a placeholder. Success=false implies Degraded=true.
	Degraded bool `json:"degraded"`

	// AttemptsMade counts provider candidacies tried by the orchestrator.
	// Retries within one provider do not increment it; cache hits leave
	// it at zero.
	AttemptsMade int `json:"attempts_made"`

	// LastError is the classified failure that ended the final candidacy
	// when the call degraded, nil on success.
	LastError *llmerrors.ClassifiedError `json:"last_error,omitempty"`
}

// cacheHitResponse wraps a cached payload in the orchestrator contract.
func cacheHitResponse(content *transport.Response) *Response {
	return &Response{
		Content:      content,
		ProviderUsed: ProviderCache,
		Success:      true,
		AttemptsMade: 0,
	}
}

// successResponse wraps a live provider result.
func successResponse(content *transport.Response, provider string, attempts int) *Response {
	return &Response{
		Content:      content,
		ProviderUsed: provider,
		Success:      true,
		AttemptsMade: attempts,
	}
}

// degradedResponse synthesizes the placeholder result returned on total
// exhaustion. The placeholder is never written to the cache.
func degradedResponse(placeholder string, attempts int, last *llmerrors.ClassifiedError) *Response {
	return &Response{
		Content: &transport.Response{
			Content:      placeholder,
			FinishReason: transport.FinishDegraded,
		},
		ProviderUsed: ProviderNone,
		Success:      false,
		Degraded:     true,
		AttemptsMade: attempts,
		LastError:    last,
	}
}
