// Package retry drives bounded retries with exponential backoff and jitter
// within one provider's candidacy. The executor never switches providers;
// failover between providers belongs to the fallback orchestrator.
package retry

import (
	"context"
	"log/slog"

	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// AttemptFunc runs a single attempt against an already-chosen provider.
// The deadline for the attempt is enforced by the caller's context.
type AttemptFunc func(ctx context.Context) (*transport.Response, error)

// Executor applies a retry policy to a sequence of attempts, consulting the
// error classifier after each failure to decide whether another attempt is
// worthwhile.
type Executor struct {
	policy configuration.RetryConfig
	logger *slog.Logger
	stats  *executorStats
}

// NewExecutor validates the policy and returns a ready executor.
func NewExecutor(policy configuration.RetryConfig) (*Executor, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Executor{
		policy: policy,
		logger: slog.Default().With("component", "retry"),
		stats:  &executorStats{},
	}, nil
}

// Execute drives up to policy.MaxAttempts invocations of attempt.
// It returns the successful response, the number of attempts actually
// dispatched, and the last classified failure when all attempts are spent.
// A zero attempt count means the context was cancelled before any dispatch,
// so no provider capacity was consumed.
func (e *Executor) Execute(ctx context.Context, attempt AttemptFunc) (*transport.Response, int, *llmerrors.ClassifiedError) {
	var last *llmerrors.ClassifiedError
	dispatched := 0

	for n := 1; n <= e.policy.MaxAttempts; n++ {
		// Fail fast before dispatch so a cancelled call never consumes
		// provider capacity.
		if err := ctx.Err(); err != nil {
			if last == nil {
				return nil, dispatched, llmerrors.Classify(err)
			}
			return nil, dispatched, last
		}

		dispatched++
		resp, err := attempt(ctx)
		e.stats.totalAttempts.Add(1)

		if err == nil {
			if n > 1 {
				e.stats.recoveredAfterRetry.Add(1)
				e.logger.Debug("attempt succeeded after retry", "attempt", n)
			}
			return resp, dispatched, nil
		}

		cerr := llmerrors.Classify(err)
		last = cerr

		if !e.shouldRetry(cerr, n) {
			e.logger.Debug("not retrying",
				"attempt", n,
				"category", cerr.Category,
				"recoverable", cerr.Recoverable,
				"error", cerr.Message)
			return nil, dispatched, cerr
		}

		if n == e.policy.MaxAttempts {
			break
		}

		delay := e.backoff(n, cerr)
		e.stats.recordBackoff(delay)
		e.logger.Debug("retrying after backoff",
			"attempt", n,
			"backoff", delay,
			"category", cerr.Category)

		if err := sleepCtx(ctx, delay); err != nil {
			return nil, dispatched, llmerrors.Classify(err)
		}
	}

	e.stats.exhausted.Add(1)
	return nil, dispatched, last
}

// shouldRetry decides whether a classified failure warrants another attempt
// on the same provider. Recoverable categories (rate limit, network,
// timeout) retry per policy; system failures get exactly one defensive
// retry before becoming failover triggers; everything else stops here.
func (e *Executor) shouldRetry(cerr *llmerrors.ClassifiedError, attempt int) bool {
	if llmerrors.IsCancelled(cerr) {
		return false
	}
	if cerr.Recoverable {
		return true
	}
	if cerr.Category == llmerrors.CategorySystem && attempt == 1 {
		return true
	}
	return false
}
