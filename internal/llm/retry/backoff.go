package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
)

// backoff computes the delay before the next attempt: exponential growth
// capped at MaxDelay, scaled by a uniform jitter factor in
// [1-JitterFraction, 1+JitterFraction]. Provider-specified Retry-After
// guidance takes precedence, bounded by MaxDelay so a hostile header can
// never stall the executor.
func (e *Executor) backoff(attempt int, cerr *llmerrors.ClassifiedError) time.Duration {
	if ra := extractRetryAfter(cerr); ra > 0 {
		if ra > e.policy.MaxDelay {
			return e.policy.MaxDelay
		}
		return ra
	}

	delay := e.policy.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= e.policy.MaxDelay {
			delay = e.policy.MaxDelay
			break
		}
	}

	if f := e.policy.JitterFraction; f > 0 {
		// Uniform scale in [1-f, 1+f] using thread-safe rand/v2.
		scale := 1 - f + 2*f*rand.Float64() // #nosec G404 -- non-cryptographic jitter
		delay = time.Duration(float64(delay) * scale)
	}

	if delay < time.Millisecond {
		delay = time.Millisecond // Prevent hot looping.
	}
	return delay
}

// extractRetryAfter pulls provider-specified retry guidance out of the
// classified failure's cause chain.
func extractRetryAfter(cerr *llmerrors.ClassifiedError) time.Duration {
	if cerr == nil || cerr.Cause == nil {
		return 0
	}

	var provider llmerrors.RetryAfterProvider
	if errors.As(cerr.Cause, &provider) {
		return provider.GetRetryAfter()
	}
	return 0
}

// sleepCtx waits for the backoff duration or until the context is done,
// whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
