// Package cache provides the response cache for the resilience core: a
// bounded, TTL-based store keyed by the deterministic fingerprint of a call
// context. Entries are written only for fully successful attempts, so
// degraded placeholder results are never served from cache.
package cache

import (
	"context"
	"time"

	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// Store is the response cache contract. Implementations must be safe for
// concurrent use; synchronization is per entry, never a lock shared with
// unrelated fingerprints' callers beyond the map itself.
type Store interface {
	// Get returns the cached response for a fingerprint, or ErrCacheMiss.
	// An entry past its TTL is treated as a miss and evicted.
	Get(ctx context.Context, fp transport.Fingerprint) (*transport.Response, error)

	// Set stores a successful response under the fingerprint with the
	// given TTL, evicting the oldest entry when at capacity.
	Set(ctx context.Context, fp transport.Fingerprint, resp *transport.Response, ttl time.Duration) error

	// PurgeExpired removes all entries past their TTL and reports how
	// many were dropped.
	PurgeExpired(ctx context.Context) (int, error)
}
