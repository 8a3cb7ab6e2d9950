// Package providers contains the HTTP adapters that translate normalized
// requests into provider-specific wire formats and back. Adapters are pure
// request/response translators; retries, deadlines, and failover live above
// them in the resilience core.
package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// Router selects the adapter for a provider name. Centralizing selection
// keeps the orchestrator ignorant of which backends are compiled in.
type Router interface {
	// Pick returns the adapter registered for the provider.
	// Returns ErrUnknownProvider for unconfigured names.
	Pick(provider string) (ProviderAdapter, error)
}

// ProviderAdapter abstracts one backend's HTTP conventions. Each provider
// implements it to handle its own endpoint layout, authentication scheme,
// and response structure.
type ProviderAdapter interface {
	// Build constructs the provider-specific HTTP request from a
	// normalized request, including authentication headers.
	Build(ctx context.Context, req *transport.Request) (*http.Request, error)

	// Parse extracts a normalized response from the provider's HTTP
	// response, or a ProviderError carrying the classified category.
	Parse(httpResp *http.Response) (*transport.Response, error)

	// Name returns the canonical provider identifier used in
	// configuration, health records, and metrics labels.
	Name() string
}

// Supported provider identifiers. These must match the provider names used
// in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// NewRouter creates a router with adapters for every configured provider.
func NewRouter(configs map[string]configuration.ProviderConfig) (Router, error) {
	adapters := make(map[string]ProviderAdapter, len(configs))

	for name, cfg := range configs {
		var adapter ProviderAdapter
		switch name {
		case ProviderOpenAI:
			adapter = NewOpenAIAdapter(cfg)
		case ProviderAnthropic:
			adapter = NewAnthropicAdapter(cfg)
		case ProviderGoogle:
			adapter = NewGoogleAdapter(cfg)
		default:
			return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, name)
		}
		adapters[name] = adapter
	}

	return &router{adapters: adapters}, nil
}

type router struct {
	adapters map[string]ProviderAdapter
}

func (r *router) Pick(provider string) (ProviderAdapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, provider)
	}
	return adapter, nil
}
