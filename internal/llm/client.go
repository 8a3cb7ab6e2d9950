// Package llm is the public face of the resilience core. A Client owns the
// provider adapters, response cache, health monitor, and fallback
// orchestrator, and exposes a small surface for executing LLM operations
// with failover.
package llm

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/asheridan/go-arbiter/internal/llm/cache"
	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	"github.com/asheridan/go-arbiter/internal/llm/fallback"
	"github.com/asheridan/go-arbiter/internal/llm/health"
	"github.com/asheridan/go-arbiter/internal/llm/providers"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// Client executes LLM operations with caching, retry, timeout enforcement,
// health tracking, and provider failover. Safe for concurrent use.
type Client struct {
	cfg          *configuration.Config
	router       providers.Router
	httpClient   *http.Client
	store        cache.Store
	monitor      *health.Monitor
	orchestrator *fallback.Orchestrator
	logger       *slog.Logger
}

// NewClient validates the configuration and wires the full resilience
// stack. When Redis is configured but unreachable the client falls back to
// the in-memory store rather than failing construction; the cache is an
// optimization, not a dependency.
func NewClient(ctx context.Context, cfg *configuration.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "llm-client")

	router, err := providers.NewRouter(cfg.Providers)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		store = newStore(ctx, cfg.Cache, logger)
	}

	monitor := health.NewMonitor(cfg.Health, cfg.ProviderPriority)

	orchestrator, err := fallback.NewOrchestrator(cfg, store, monitor)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:          cfg,
		router:       router,
		httpClient:   httpClient,
		store:        store,
		monitor:      monitor,
		orchestrator: orchestrator,
		logger:       logger,
	}, nil
}

// newStore selects the cache backend from configuration.
func newStore(ctx context.Context, cfg configuration.CacheConfig, logger *slog.Logger) cache.Store {
	if cfg.RedisAddr != "" {
		store, err := cache.NewRedisStore(ctx, cfg)
		if err == nil {
			logger.Info("using redis response cache", "addr", cfg.RedisAddr)
			return store
		}
		logger.Warn("redis unavailable, falling back to in-memory cache",
			"addr", cfg.RedisAddr, "error", err)
	}
	return cache.NewMemoryStore(cfg.Capacity)
}

// Execute runs one normalized request through the resilience stack. A
// missing trace ID is filled in so every log line and provider call for
// this request is correlatable.
func (c *Client) Execute(ctx context.Context, req *transport.Request, opts ...fallback.Option) *fallback.Response {
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}
	op := providers.NewHTTPOperation(c.router, c.httpClient, req)
	return c.orchestrator.Execute(ctx, req, op, opts...)
}

// ExecuteOperation runs a caller-supplied operation through the resilience
// stack, bypassing the HTTP adapters. Intended for embedding the core
// around non-HTTP transports and for tests.
func (c *Client) ExecuteOperation(ctx context.Context, req *transport.Request, op transport.Operation, opts ...fallback.Option) *fallback.Response {
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}
	return c.orchestrator.Execute(ctx, req, op, opts...)
}

// Generate is a convenience wrapper for free-form text generation.
func (c *Client) Generate(ctx context.Context, model, systemPrompt, prompt string, maxTokens int64, temperature float64) *fallback.Response {
	req := &transport.Request{
		Operation:    transport.OpGeneration,
		Model:        model,
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	}
	return c.Execute(ctx, req)
}

// HealthSnapshot reports the derived health state of every configured
// provider.
func (c *Client) HealthSnapshot() map[string]health.State {
	return c.monitor.Snapshot()
}

// CacheStats reports cache activity, or a zero snapshot when caching is
// disabled.
func (c *Client) CacheStats() cache.Stats {
	type statser interface{ Stats() cache.Stats }
	if s, ok := c.store.(statser); ok {
		return s.Stats()
	}
	return cache.Stats{}
}

// Close releases held resources. Only the Redis-backed cache holds any.
func (c *Client) Close() error {
	type closer interface{ Close() error }
	if cl, ok := c.store.(closer); ok {
		return cl.Close()
	}
	return nil
}
