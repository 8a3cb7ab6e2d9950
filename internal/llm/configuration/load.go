package configuration

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of the configuration file. Durations are
// expressed in integer milliseconds to keep the file format unambiguous.
type fileConfig struct {
	HTTPTimeoutMs    int                       `yaml:"http_timeout_ms"`
	Providers        map[string]fileProvider   `yaml:"providers"`
	ProviderPriority []string                  `yaml:"provider_priority"`
	Retry            *fileRetry                `yaml:"retry"`
	Health           *fileHealth               `yaml:"health"`
	Cache            *fileCache                `yaml:"cache"`
	MaxConcurrency   int64                     `yaml:"max_concurrency"`
	DegradedContent  string                    `yaml:"degraded_content"`
}

type fileProvider struct {
	Endpoint  string            `yaml:"endpoint"`
	APIKeyEnv string            `yaml:"api_key_env"`
	TimeoutMs int               `yaml:"timeout_ms"`
	Headers   map[string]string `yaml:"headers"`
}

type fileRetry struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	BaseDelayMs    int     `yaml:"base_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms"`
	JitterFraction float64 `yaml:"jitter_fraction"`
}

type fileHealth struct {
	FailureStreakThreshold int     `yaml:"failure_streak_threshold"`
	SuccessRateFloor       float64 `yaml:"success_rate_floor"`
	WindowSize             int     `yaml:"window_size"`
}

type fileCache struct {
	Enabled   *bool  `yaml:"enabled"`
	TTLMs     int    `yaml:"ttl_ms"`
	Capacity  int    `yaml:"capacity"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// Load reads configuration from a YAML file, expanding environment
// variables in the file content, and overlays it on DefaultConfig.
// Provider API keys are resolved from the environment via api_key_env and
// never appear in the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := DefaultConfig()
	applyFileConfig(cfg, &fc)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// applyFileConfig overlays non-zero file values onto the defaults.
func applyFileConfig(cfg *Config, fc *fileConfig) {
	if fc.HTTPTimeoutMs > 0 {
		cfg.HTTPTimeout = time.Duration(fc.HTTPTimeoutMs) * time.Millisecond
	}

	for name, fp := range fc.Providers {
		pc := ProviderConfig{
			Endpoint:  fp.Endpoint,
			APIKeyEnv: fp.APIKeyEnv,
			Headers:   fp.Headers,
		}
		if fp.TimeoutMs > 0 {
			pc.Timeout = time.Duration(fp.TimeoutMs) * time.Millisecond
		}
		if fp.APIKeyEnv != "" {
			pc.APIKey = os.Getenv(fp.APIKeyEnv)
		}
		cfg.Providers[name] = pc
	}

	if len(fc.ProviderPriority) > 0 {
		cfg.ProviderPriority = fc.ProviderPriority
	}

	if fr := fc.Retry; fr != nil {
		if fr.MaxAttempts > 0 {
			cfg.Retry.MaxAttempts = fr.MaxAttempts
		}
		if fr.BaseDelayMs > 0 {
			cfg.Retry.BaseDelay = time.Duration(fr.BaseDelayMs) * time.Millisecond
		}
		if fr.MaxDelayMs > 0 {
			cfg.Retry.MaxDelay = time.Duration(fr.MaxDelayMs) * time.Millisecond
		}
		if fr.JitterFraction > 0 {
			cfg.Retry.JitterFraction = fr.JitterFraction
		}
	}

	if fh := fc.Health; fh != nil {
		if fh.FailureStreakThreshold > 0 {
			cfg.Health.FailureStreakThreshold = fh.FailureStreakThreshold
		}
		if fh.SuccessRateFloor > 0 {
			cfg.Health.SuccessRateFloor = fh.SuccessRateFloor
		}
		if fh.WindowSize > 0 {
			cfg.Health.WindowSize = fh.WindowSize
		}
	}

	if fca := fc.Cache; fca != nil {
		if fca.Enabled != nil {
			cfg.Cache.Enabled = *fca.Enabled
		}
		if fca.TTLMs > 0 {
			cfg.Cache.TTL = time.Duration(fca.TTLMs) * time.Millisecond
		}
		if fca.Capacity > 0 {
			cfg.Cache.Capacity = fca.Capacity
		}
		cfg.Cache.RedisAddr = fca.RedisAddr
		cfg.Cache.RedisDB = fca.RedisDB
		if pw := os.Getenv("ARBITER_REDIS_PASSWORD"); pw != "" {
			cfg.Cache.RedisPassword = pw
		}
	}

	if fc.MaxConcurrency > 0 {
		cfg.MaxConcurrency = fc.MaxConcurrency
	}
	if fc.DegradedContent != "" {
		cfg.DegradedContent = fc.DegradedContent
	}
}
