// Package timeout enforces a per-provider deadline around a single attempt.
// On expiry it returns a classified timeout failure immediately; the
// attempt's context is cancelled best-effort and any late result is
// discarded.
package timeout

import (
	"context"
	"time"

	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// Run races one attempt against the provider deadline. A zero or negative
// limit disables deadline enforcement. When the deadline fires first, the
// attempt keeps a cancelled context and may unwind in the background; its
// eventual result is dropped via the buffered channel.
func Run(ctx context.Context, provider string, limit time.Duration, attempt func(ctx context.Context) (*transport.Response, error)) (*transport.Response, error) {
	if limit <= 0 {
		return attempt(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	type outcome struct {
		resp *transport.Response
		err  error
	}

	done := make(chan outcome, 1)
	go func() {
		resp, err := attempt(attemptCtx)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		return out.resp, out.err
	case <-attemptCtx.Done():
		// Caller cancellation is not a provider timeout; let the error
		// classifier map it to a cancellation failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, llmerrors.NewTimeout(provider, limit)
	}
}
