// Package fallback orchestrates provider failover. One orchestrator call
// walks the ranked candidate list, giving each provider a bounded retry
// budget with a per-attempt deadline, and falls through to the next
// candidate when the budget is spent. Exhausting every candidate yields a
// synthesized degraded response rather than an error, so callers always
// receive usable content.
package fallback

import (
	"context"
	"log/slog"
	"time"

	"github.com/asheridan/go-arbiter/internal/llm/cache"
	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/health"
	"github.com/asheridan/go-arbiter/internal/llm/metrics"
	"github.com/asheridan/go-arbiter/internal/llm/retry"
	"github.com/asheridan/go-arbiter/internal/llm/timeout"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// Option adjusts one orchestrator call.
type Option func(*callOptions)

type callOptions struct {
	preferredProvider string
	skipCache         bool
	retryPolicy       *configuration.RetryConfig
	timeouts          map[string]time.Duration
}

// WithPreferredProvider moves the named provider to the front of the
// candidate list for this call. The provider must be configured; unknown
// names are ignored.
func WithPreferredProvider(provider string) Option {
	return func(o *callOptions) { o.preferredProvider = provider }
}

// WithoutCache bypasses the response cache for this call, both lookup and
// write-through.
func WithoutCache() Option {
	return func(o *callOptions) { o.skipCache = true }
}

// WithRetryPolicy overrides the configured retry policy for this call.
// Invalid policies are rejected at execution time and the configured policy
// is used instead.
func WithRetryPolicy(policy configuration.RetryConfig) Option {
	return func(o *callOptions) { o.retryPolicy = &policy }
}

// WithTimeouts overrides per-provider deadlines for this call. Providers
// absent from the map keep their configured timeout.
func WithTimeouts(timeouts map[string]time.Duration) Option {
	return func(o *callOptions) { o.timeouts = timeouts }
}

// Orchestrator coordinates cache lookup, candidate ranking, per-provider
// retry, and health bookkeeping for each logical request.
type Orchestrator struct {
	cfg     *configuration.Config
	store   cache.Store
	monitor *health.Monitor
	exec    *retry.Executor
	logger  *slog.Logger
}

// NewOrchestrator wires the orchestrator from an already-validated config.
// store may be nil when caching is disabled.
func NewOrchestrator(cfg *configuration.Config, store cache.Store, monitor *health.Monitor) (*Orchestrator, error) {
	exec, err := retry.NewExecutor(cfg.Retry)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:     cfg,
		store:   store,
		monitor: monitor,
		exec:    exec,
		logger:  slog.Default().With("component", "fallback"),
	}, nil
}

// Execute runs one logical request through cache, failover, and degraded
// synthesis. It never returns a Go error: the Response carries the outcome,
// including the last classified failure when the call degraded.
func (o *Orchestrator) Execute(ctx context.Context, req *transport.Request, op transport.Operation, opts ...Option) *Response {
	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	fp, fpErr := transport.NewFingerprint(req)
	if fpErr != nil {
		// An unfingerprintable request still executes; it just cannot be
		// served from or written to the cache.
		o.logger.Warn("request not cacheable", "trace_id", req.TraceID, "error", fpErr)
	}
	cacheable := fpErr == nil && o.store != nil && !call.skipCache

	if cacheable {
		if hit := o.lookupCache(ctx, fp, req.TraceID); hit != nil {
			return hit
		}
	}

	candidates := o.rankCandidates(call.preferredProvider)
	exec := o.executorFor(&call, req.TraceID)

	attempts := 0
	var last *llmerrors.ClassifiedError

	for _, provider := range candidates {
		resp, dispatched, cerr := o.tryProvider(ctx, provider, op, exec, &call)

		if dispatched == 0 {
			// Cancelled before anything reached the provider: the candidacy
			// was never consumed and the provider's health is untouched.
			last = cerr
			break
		}
		attempts++

		if cerr == nil {
			o.monitor.RecordSuccess(provider)
			metrics.AttemptsTotal.WithLabelValues(provider, metrics.OutcomeSuccess).Inc()
			if cacheable {
				o.writeCache(ctx, fp, resp, req.TraceID)
			}
			o.logger.Info("request served",
				"trace_id", req.TraceID,
				"provider", provider,
				"attempts", attempts)
			return successResponse(resp, provider, attempts)
		}

		o.monitor.RecordFailure(provider)
		metrics.AttemptsTotal.WithLabelValues(provider, metrics.OutcomeFailure).Inc()
		last = cerr

		o.logger.Warn("provider candidacy exhausted",
			"trace_id", req.TraceID,
			"provider", provider,
			"category", cerr.Category,
			"error", cerr.Message)

		if llmerrors.IsCancelled(cerr) {
			// The caller is gone; trying further providers only burns quota.
			break
		}
	}

	metrics.DegradedTotal.Inc()
	o.logger.Error("all providers exhausted, returning degraded response",
		"trace_id", req.TraceID,
		"attempts", attempts)
	return degradedResponse(o.cfg.DegradedContent, attempts, last)
}

// tryProvider runs one provider candidacy: the retry executor drives
// attempts, and each attempt races the provider's deadline.
func (o *Orchestrator) tryProvider(ctx context.Context, provider string, op transport.Operation, exec *retry.Executor, call *callOptions) (*transport.Response, int, *llmerrors.ClassifiedError) {
	limit, ok := call.timeouts[provider]
	if !ok {
		limit = o.cfg.TimeoutFor(provider)
	}
	return exec.Execute(ctx, func(ctx context.Context) (*transport.Response, error) {
		return timeout.Run(ctx, provider, limit, func(ctx context.Context) (*transport.Response, error) {
			return op(ctx, provider)
		})
	})
}

// executorFor returns the retry executor for one call, honoring a per-call
// policy override when it validates.
func (o *Orchestrator) executorFor(call *callOptions, traceID string) *retry.Executor {
	if call.retryPolicy == nil {
		return o.exec
	}
	exec, err := retry.NewExecutor(*call.retryPolicy)
	if err != nil {
		o.logger.Warn("invalid per-call retry policy, using configured policy",
			"trace_id", traceID, "error", err)
		return o.exec
	}
	return exec
}

// rankCandidates produces the failover order for one call. A preferred
// provider is promoted to the front of the priority list before health
// ranking runs, so health state always wins: the promotion reorders within
// a health tier, and a circuit-open preferred provider still trails every
// routable candidate.
func (o *Orchestrator) rankCandidates(preferred string) []string {
	priority := o.cfg.ProviderPriority
	for i, name := range priority {
		if name == preferred {
			reordered := make([]string, 0, len(priority))
			reordered = append(reordered, name)
			reordered = append(reordered, priority[:i]...)
			reordered = append(reordered, priority[i+1:]...)
			priority = reordered
			break
		}
	}
	return o.monitor.RankCandidates(priority)
}

// lookupCache returns a completed response on a cache hit, nil otherwise.
// Cache failures degrade to a miss; the cache is an optimization, never a
// dependency.
func (o *Orchestrator) lookupCache(ctx context.Context, fp transport.Fingerprint, traceID string) *Response {
	cached, err := o.store.Get(ctx, fp)
	if err != nil {
		if !llmerrors.IsCacheMiss(err) {
			o.logger.Warn("cache lookup failed", "trace_id", traceID, "error", err)
		}
		metrics.CacheOpsTotal.WithLabelValues(metrics.CacheMiss).Inc()
		return nil
	}
	metrics.CacheOpsTotal.WithLabelValues(metrics.CacheHit).Inc()
	o.logger.Debug("cache hit", "trace_id", traceID, "fingerprint", fp.Short())
	return cacheHitResponse(cached)
}

// writeCache stores a successful response. Write failures are logged and
// swallowed; the response has already been earned.
func (o *Orchestrator) writeCache(ctx context.Context, fp transport.Fingerprint, resp *transport.Response, traceID string) {
	if resp.FinishReason == transport.FinishDegraded {
		return
	}
	if err := o.store.Set(ctx, fp, resp, o.cfg.Cache.TTL); err != nil {
		o.logger.Warn("cache write failed", "trace_id", traceID, "error", err)
	}
}
