package configuration

import "time"

// Retry defaults.
const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = 250 * time.Millisecond
	DefaultMaxDelay       = 5 * time.Second
	DefaultJitterFraction = 0.2
)

// Health defaults.
const (
	DefaultFailureStreakThreshold = 5
	DefaultSuccessRateFloor       = 0.5
	DefaultHealthWindowSize       = 20
)

// Cache and HTTP defaults.
const (
	DefaultCacheTTL      = 1 * time.Hour
	DefaultCacheCapacity = 1024
	DefaultHTTPTimeout   = 30 * time.Second
)

// DefaultMaxConcurrency bounds concurrent batch executions.
const DefaultMaxConcurrency = 5

// DefaultDegradedContent is the synthesized placeholder returned when every
// provider is exhausted.
const DefaultDegradedContent = "[unavailable] all providers exhausted; degraded placeholder response"

// DefaultConfig returns production-ready configuration with sensible
// defaults. Providers and their priority must still be supplied by the
// caller.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout: DefaultHTTPTimeout,
		Providers:   map[string]ProviderConfig{},
		Retry: RetryConfig{
			MaxAttempts:    DefaultMaxAttempts,
			BaseDelay:      DefaultBaseDelay,
			MaxDelay:       DefaultMaxDelay,
			JitterFraction: DefaultJitterFraction,
		},
		Health: HealthConfig{
			FailureStreakThreshold: DefaultFailureStreakThreshold,
			SuccessRateFloor:       DefaultSuccessRateFloor,
			WindowSize:             DefaultHealthWindowSize,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      DefaultCacheTTL,
			Capacity: DefaultCacheCapacity,
		},
		MaxConcurrency:  DefaultMaxConcurrency,
		DegradedContent: DefaultDegradedContent,
	}
}
