// Package errors defines the failure taxonomy for LLM operations and the
// classifier that normalizes arbitrary provider failures into it. Every
// failure surfaced by the resilience layer is a ClassifiedError; routing
// decisions (retry, failover, skip) are made from the category alone.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Category buckets LLM operation failures for routing decisions.
// A category fully determines whether the failure is recoverable and what
// the suggested operator action is.
type Category string

const (
	// CategoryAuth indicates invalid or expired credentials (non-recoverable).
	CategoryAuth Category = "authentication"

	// CategoryRateLimit indicates provider throttling, retry with backoff (recoverable).
	CategoryRateLimit Category = "rate_limit"

	// CategoryNetwork indicates connectivity failures (recoverable).
	CategoryNetwork Category = "network"

	// CategoryTimeout indicates a deadline was exceeded (recoverable).
	CategoryTimeout Category = "timeout"

	// CategoryUser indicates a malformed request that must not be retried.
	CategoryUser Category = "user"

	// CategorySystem indicates an unrecognized failure (non-recoverable, escalate).
	CategorySystem Category = "system"
)

// Recoverable reports whether failures in this category are worth retrying
// on the same provider. Total over all categories; unknown values are
// treated as system failures.
func (c Category) Recoverable() bool {
	switch c {
	case CategoryRateLimit, CategoryNetwork, CategoryTimeout:
		return true
	default:
		return false
	}
}

// SuggestedAction returns the operator guidance attached to failures in this
// category. Total over all categories.
func (c Category) SuggestedAction() string {
	switch c {
	case CategoryAuth:
		return "update provider credentials"
	case CategoryRateLimit:
		return "back off and retry"
	case CategoryNetwork, CategoryTimeout:
		return "retry or fail over"
	case CategoryUser:
		return "fix the request input"
	default:
		return "escalate"
	}
}

// Classification codes attached to synthesized failures.
const (
	CodeTimeout   = "PROVIDER_TIMEOUT"
	CodeCancelled = "CANCELLED"
)

// Common operation errors for consistent handling across the core.
var (
	// ErrCacheMiss indicates the requested entry was not found in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnknownProvider indicates an unknown or unconfigured provider.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidResponse indicates the provider returned an unusable response.
	ErrInvalidResponse = errors.New("invalid provider response")

	// ErrRateLimitExceeded indicates a provider rate limit has been hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrProviderUnavailable indicates the provider is down or unreachable.
	ErrProviderUnavailable = errors.New("provider service unavailable")
)

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool { return errors.Is(err, ErrCacheMiss) }

// ClassifiedError is the normalized outcome of a failed attempt. It is
// created once per failure by Classify and consumed by the retry executor
// and the health monitor; it is never persisted.
type ClassifiedError struct {
	Category    Category       `json:"category"`
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Recoverable bool           `json:"recoverable"`
	Action      string         `json:"action"`
	Details     map[string]any `json:"details,omitempty"`
	Cause       error          `json:"-"`
}

// Error returns the category-prefixed failure description.
func (e *ClassifiedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Category, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *ClassifiedError) Unwrap() error { return e.Cause }

// New constructs a ClassifiedError whose recoverability and action are
// derived from the category, keeping the taxonomy a total function.
func New(category Category, code, message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Category:    category,
		Code:        code,
		Message:     message,
		Recoverable: category.Recoverable(),
		Action:      category.SuggestedAction(),
		Cause:       cause,
	}
}

// NewTimeout builds the classified failure returned when a provider attempt
// exceeds its deadline.
func NewTimeout(provider string, limit time.Duration) *ClassifiedError {
	e := New(CategoryTimeout, CodeTimeout,
		fmt.Sprintf("provider %s exceeded %v deadline", provider, limit), nil)
	e.Details = map[string]any{"provider": provider, "timeout": limit.String()}
	return e
}

// NewCancelled builds the classified failure for a caller-cancelled attempt.
// Cancellation is never retried, so it classifies as a system failure.
func NewCancelled(cause error) *ClassifiedError {
	return New(CategorySystem, CodeCancelled, "operation cancelled by caller", cause)
}

// IsCancelled reports whether a classified failure originated from caller
// cancellation rather than a provider fault.
func IsCancelled(e *ClassifiedError) bool {
	return e != nil && e.Code == CodeCancelled
}

// RetryAfterProvider is implemented by error types that carry a
// provider-specified delay before the next attempt.
type RetryAfterProvider interface {
	// GetRetryAfter returns the recommended wait before the next attempt,
	// or zero when no guidance is available.
	GetRetryAfter() time.Duration
}

// ProviderError captures structured error responses from LLM providers.
// Includes HTTP status codes and provider error codes so classification can
// route on status rather than message text.
type ProviderError struct {
	Provider   string   `json:"provider"`
	StatusCode int      `json:"status_code"`
	Message    string   `json:"message"`
	Code       string   `json:"code"`
	Category   Category `json:"category"`
	RetryAfter int      `json:"retry_after"` // Retry-After header value in seconds
}

// Error returns the formatted provider error with status code context.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// GetRetryAfter implements RetryAfterProvider.
func (e *ProviderError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// RateLimitError provides rate limit context for backoff calculation.
type RateLimitError struct {
	Provider   string `json:"provider"`
	RetryAfter int    `json:"retry_after"` // Seconds to wait before retry
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
}

// Error returns the formatted rate limit error with retry guidance.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %d seconds", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Provider)
}

// GetRetryAfter implements RetryAfterProvider.
func (e *RateLimitError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// ValidationError captures malformed-request failures with field context.
// Always classifies as a user failure and is never retried.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// Error returns the formatted validation error.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// CategoryFromStatus maps an HTTP status code onto the taxonomy.
// Unmapped statuses classify as system failures.
func CategoryFromStatus(code int) Category {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return CategoryAuth
	case code == http.StatusTooManyRequests:
		return CategoryRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return CategoryTimeout
	case code == http.StatusBadGateway || code == http.StatusServiceUnavailable:
		return CategoryNetwork
	case code >= 400 && code < 500:
		return CategoryUser
	default:
		return CategorySystem
	}
}
