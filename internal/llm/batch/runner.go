// Package batch fans a set of requests out through the resilience core with
// bounded concurrency, so aggregate request volume stays under provider
// rate limits regardless of batch size.
package batch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/asheridan/go-arbiter/internal/llm/fallback"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// Executor is the slice of the client the runner needs.
type Executor interface {
	Execute(ctx context.Context, req *transport.Request, opts ...fallback.Option) *fallback.Response
}

// Result pairs one request with its orchestrator outcome.
type Result struct {
	Request  *transport.Request
	Response *fallback.Response
}

// Runner executes request batches with a concurrency ceiling.
type Runner struct {
	exec   Executor
	sem    *semaphore.Weighted
	weight int64
	logger *slog.Logger
}

// NewRunner creates a runner that admits at most maxConcurrency in-flight
// requests.
func NewRunner(exec Executor, maxConcurrency int64) *Runner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Runner{
		exec:   exec,
		sem:    semaphore.NewWeighted(maxConcurrency),
		weight: maxConcurrency,
		logger: slog.Default().With("component", "batch"),
	}
}

// Run executes every request and returns results in input order. Each
// request gets its own failover sequence; one request degrading never
// aborts the batch. A cancelled context stops admitting new requests, and
// the unstarted remainder comes back as degraded responses carrying the
// cancellation.
func (r *Runner) Run(ctx context.Context, reqs []*transport.Request, opts ...fallback.Option) []Result {
	results := make([]Result, len(reqs))

	for i, req := range reqs {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.logger.Warn("batch cancelled before completion",
				"admitted", i, "remaining", len(reqs)-i)
			// The orchestrator turns the cancelled context into a
			// degraded response with zero attempts.
			for j := i; j < len(reqs); j++ {
				results[j] = Result{Request: reqs[j], Response: r.exec.Execute(ctx, reqs[j], opts...)}
			}
			break
		}

		go func(i int, req *transport.Request) {
			defer r.sem.Release(1)
			results[i] = Result{Request: req, Response: r.exec.Execute(ctx, req, opts...)}
		}(i, req)
	}

	// Acquiring the full weight waits for every in-flight goroutine. The
	// background context is deliberate: dispatched work handles caller
	// cancellation itself and must still be awaited.
	_ = r.sem.Acquire(context.Background(), r.weight)
	r.sem.Release(r.weight)

	return results
}
