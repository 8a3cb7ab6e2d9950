package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Providers["openai"] = ProviderConfig{Endpoint: "https://api.openai.com/v1", APIKey: "k"}
	cfg.ProviderPriority = []string{"openai"}
	return cfg
}

func TestDefaultConfigIsInternallyConsistent(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultMaxAttempts, cfg.Retry.MaxAttempts)
	assert.Equal(t, DefaultBaseDelay, cfg.Retry.BaseDelay)
	assert.Equal(t, DefaultFailureStreakThreshold, cfg.Health.FailureStreakThreshold)
	assert.NotEmpty(t, cfg.DegradedContent)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_priority",
			mutate:  func(c *Config) { c.ProviderPriority = nil },
			wantErr: ErrNoProviders,
		},
		{
			name:    "priority_references_unknown_provider",
			mutate:  func(c *Config) { c.ProviderPriority = []string{"openai", "ghost"} },
			wantErr: ErrUnknownPriority,
		},
		{
			name:    "zero_max_attempts",
			mutate:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: ErrMaxAttemptsInvalid,
		},
		{
			name:    "max_delay_below_base",
			mutate:  func(c *Config) { c.Retry.MaxDelay = c.Retry.BaseDelay - 1 },
			wantErr: ErrMaxDelayInvalid,
		},
		{
			name:    "jitter_out_of_range",
			mutate:  func(c *Config) { c.Retry.JitterFraction = 1.0 },
			wantErr: ErrJitterInvalid,
		},
		{
			name:    "zero_streak_threshold",
			mutate:  func(c *Config) { c.Health.FailureStreakThreshold = 0 },
			wantErr: ErrStreakInvalid,
		},
		{
			name:    "success_floor_above_one",
			mutate:  func(c *Config) { c.Health.SuccessRateFloor = 1.5 },
			wantErr: ErrSuccessFloorInvalid,
		},
		{
			name:    "zero_window",
			mutate:  func(c *Config) { c.Health.WindowSize = 0 },
			wantErr: ErrWindowInvalid,
		},
		{
			name:    "cache_capacity_zero",
			mutate:  func(c *Config) { c.Cache.Enabled = true; c.Cache.Capacity = 0 },
			wantErr: ErrCapacityInvalid,
		},
		{
			name:    "zero_concurrency",
			mutate:  func(c *Config) { c.MaxConcurrency = 0 },
			wantErr: ErrConcurrencyInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestCacheValidateSkippedWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Capacity = 0
	assert.NoError(t, cfg.Validate())
}

func TestTimeoutFor(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPTimeout = 30 * time.Second
	cfg.Providers["anthropic"] = ProviderConfig{Timeout: 10 * time.Second}

	assert.Equal(t, 10*time.Second, cfg.TimeoutFor("anthropic"))
	assert.Equal(t, 30*time.Second, cfg.TimeoutFor("openai"), "no per-provider timeout falls back to global")
	assert.Equal(t, 30*time.Second, cfg.TimeoutFor("unknown"))
}
