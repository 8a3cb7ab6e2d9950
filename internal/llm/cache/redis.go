package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

const (
	// Redis connection defaults.
	defaultPoolSize   = 10
	connectionTimeout = 5 * time.Second

	// keyPrefix namespaces cache entries in a shared Redis instance.
	keyPrefix = "arbiter:response:"
)

// redisEntry is the persisted cache value. StoredAtMs allows staleness
// checks independent of the Redis key TTL.
type redisEntry struct {
	Response   *transport.Response `json:"response"`
	StoredAtMs int64               `json:"stored_at_ms"`
}

// RedisStore is a Store backed by Redis, for sharing the response cache
// across instances. TTL enforcement is delegated to Redis key expiry;
// per-key atomicity comes from Redis itself.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger

	stats storeStats
}

// NewRedisStore connects to Redis and returns a distributed response cache.
// The connection is verified with a bounded ping so callers can fall back
// to the in-memory store when Redis is unreachable.
func NewRedisStore(ctx context.Context, cfg configuration.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: defaultPoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: slog.Default().With("component", "cache"),
	}, nil
}

// Get implements Store. Redis errors other than a missing key are surfaced
// so the caller can degrade gracefully to a miss.
func (s *RedisStore) Get(ctx context.Context, fp transport.Fingerprint) (*transport.Response, error) {
	raw, err := s.client.Get(ctx, keyPrefix+fp.String()).Bytes()
	if err != nil {
		s.stats.misses.Add(1)
		if err == redis.Nil {
			return nil, llmerrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil || e.Response == nil {
		// Corrupted entry; drop it and report a miss.
		s.logger.Warn("dropping corrupted cache entry", "fingerprint", fp.String())
		s.client.Del(ctx, keyPrefix+fp.String())
		s.stats.misses.Add(1)
		return nil, llmerrors.ErrCacheMiss
	}

	s.stats.hits.Add(1)
	return e.Response, nil
}

// Set implements Store using Redis key expiry for the TTL bound.
func (s *RedisStore) Set(ctx context.Context, fp transport.Fingerprint, resp *transport.Response, ttl time.Duration) error {
	data, err := json.Marshal(redisEntry{
		Response:   resp,
		StoredAtMs: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize cache entry: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+fp.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// PurgeExpired implements Store. Redis expires keys itself, so this is a
// no-op provided for interface symmetry.
func (s *RedisStore) PurgeExpired(context.Context) (int, error) { return 0, nil }

// Stats returns a snapshot of cache traffic counters.
func (s *RedisStore) Stats() Stats { return s.stats.snapshot() }

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }
