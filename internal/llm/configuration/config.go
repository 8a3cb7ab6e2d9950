// Package configuration holds the full configuration surface consumed by
// the resilience core: provider priority, per-provider timeouts, retry
// policy, health thresholds, and cache sizing. The core consumes these
// values; it never produces or persists them.
package configuration

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Configuration validation errors.
var (
	ErrNoProviders         = errors.New("at least one provider must be configured")
	ErrUnknownPriority     = errors.New("priority list references unconfigured provider")
	ErrMaxAttemptsInvalid  = errors.New("max attempts must be at least 1")
	ErrBaseDelayInvalid    = errors.New("base delay must be greater than 0")
	ErrMaxDelayInvalid     = errors.New("max delay must be >= base delay")
	ErrJitterInvalid       = errors.New("jitter fraction must be in [0, 1)")
	ErrStreakInvalid       = errors.New("failure streak threshold must be at least 1")
	ErrSuccessFloorInvalid = errors.New("success rate floor must be in [0, 1]")
	ErrWindowInvalid       = errors.New("health window size must be at least 1")
	ErrCapacityInvalid     = errors.New("cache capacity must be at least 1")
	ErrConcurrencyInvalid  = errors.New("max concurrency must be at least 1")
)

// Config holds comprehensive configuration for the resilient LLM client.
type Config struct {
	// HTTP client configuration.
	HTTPTimeout time.Duration `json:"http_timeout"`
	HTTPClient  *http.Client  `json:"-"`

	// Providers maps provider names to their settings. Every name in
	// ProviderPriority must appear here.
	Providers map[string]ProviderConfig `json:"providers"`

	// ProviderPriority is the ordered failover list. Fixed at client
	// construction; the health monitor reorders candidates per call.
	ProviderPriority []string `json:"provider_priority"`

	Retry  RetryConfig  `json:"retry"`
	Health HealthConfig `json:"health"`
	Cache  CacheConfig  `json:"cache"`

	// MaxConcurrency bounds concurrent orchestrator calls in the batch
	// runner so aggregate request volume stays under provider rate limits.
	MaxConcurrency int64 `json:"max_concurrency"`

	// DegradedContent is the placeholder payload returned when every
	// provider is exhausted. Never written to the cache.
	DegradedContent string `json:"degraded_content"`
}

// ProviderConfig holds per-provider endpoint, credential, and timeout
// settings. Timeouts are per-provider because latency profiles differ
// materially between backends.
type ProviderConfig struct {
	Endpoint  string            `json:"endpoint"`
	APIKey    string            `json:"-"` // Sensitive, not serialized
	APIKeyEnv string            `json:"api_key_env"`
	Timeout   time.Duration     `json:"timeout"`
	Headers   map[string]string `json:"headers"`
}

// RetryConfig controls retry behavior within one provider's candidacy.
// Backoff is min(BaseDelay * 2^(attempt-1), MaxDelay) scaled by a uniform
// jitter factor in [1-JitterFraction, 1+JitterFraction].
type RetryConfig struct {
	MaxAttempts    int           `json:"max_attempts"`
	BaseDelay      time.Duration `json:"base_delay"`
	MaxDelay       time.Duration `json:"max_delay"`
	JitterFraction float64       `json:"jitter_fraction"`
}

// Validate checks the retry policy invariants.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w, got %d", ErrMaxAttemptsInvalid, c.MaxAttempts)
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("%w, got %v", ErrBaseDelayInvalid, c.BaseDelay)
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("%w, max: %v, base: %v", ErrMaxDelayInvalid, c.MaxDelay, c.BaseDelay)
	}
	if c.JitterFraction < 0 || c.JitterFraction >= 1 {
		return fmt.Errorf("%w, got %f", ErrJitterInvalid, c.JitterFraction)
	}
	return nil
}

// HealthConfig controls provider health state derivation.
type HealthConfig struct {
	// FailureStreakThreshold is the consecutive-failure count at which a
	// provider becomes UNHEALTHY (circuit open).
	FailureStreakThreshold int `json:"failure_streak_threshold"`

	// SuccessRateFloor is the trailing-window success rate below which a
	// provider is DEGRADED.
	SuccessRateFloor float64 `json:"success_rate_floor"`

	// WindowSize is the number of recent outcomes in the trailing window.
	WindowSize int `json:"window_size"`
}

// Validate checks the health threshold invariants.
func (c HealthConfig) Validate() error {
	if c.FailureStreakThreshold < 1 {
		return fmt.Errorf("%w, got %d", ErrStreakInvalid, c.FailureStreakThreshold)
	}
	if c.SuccessRateFloor < 0 || c.SuccessRateFloor > 1 {
		return fmt.Errorf("%w, got %f", ErrSuccessFloorInvalid, c.SuccessRateFloor)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("%w, got %d", ErrWindowInvalid, c.WindowSize)
	}
	return nil
}

// CacheConfig controls response caching. With RedisAddr set the client uses
// a Redis-backed store; otherwise a bounded in-memory store.
type CacheConfig struct {
	Enabled       bool          `json:"enabled"`
	TTL           time.Duration `json:"ttl"`
	Capacity      int           `json:"capacity"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"-"` // Sensitive
	RedisDB       int           `json:"redis_db"`
}

// Validate checks the cache sizing invariants.
func (c CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Capacity < 1 {
		return fmt.Errorf("%w, got %d", ErrCapacityInvalid, c.Capacity)
	}
	return nil
}

// Validate checks the whole configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.ProviderPriority) == 0 {
		return ErrNoProviders
	}
	for _, name := range c.ProviderPriority {
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPriority, name)
		}
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.Health.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("%w, got %d", ErrConcurrencyInvalid, c.MaxConcurrency)
	}
	return nil
}

// TimeoutFor returns the configured deadline for one provider attempt,
// falling back to the global HTTP timeout.
func (c *Config) TimeoutFor(provider string) time.Duration {
	if pc, ok := c.Providers[provider]; ok && pc.Timeout > 0 {
		return pc.Timeout
	}
	return c.HTTPTimeout
}
