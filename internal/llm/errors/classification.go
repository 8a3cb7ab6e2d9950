package errors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

// Classify normalizes an arbitrary failure into a ClassifiedError.
// Strongly-typed errors are examined first, then sentinels, then message
// patterns. Classification is pure: identical inputs always produce the
// same category, recoverability, and action.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	// Already classified errors pass through unchanged.
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if ce := classifyTypedErrors(err); ce != nil {
		return ce
	}

	if ce := classifySentinelErrors(err); ce != nil {
		return ce
	}

	if isNetworkError(err) {
		ce := New(CategoryNetwork, "NETWORK_ERROR", "network error", err)
		ce.Details = map[string]any{"original_error": err.Error()}
		return ce
	}

	return classifyStringPatternErrors(err)
}

// classifyTypedErrors handles strongly-typed error classification.
func classifyTypedErrors(err error) *ClassifiedError {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		ce := New(providerErr.Category, providerErr.Code, providerErr.Message, err)
		ce.Details = map[string]any{
			"provider":    providerErr.Provider,
			"status_code": providerErr.StatusCode,
		}
		if providerErr.RetryAfter > 0 {
			ce.Details["retry_after"] = providerErr.RetryAfter
		}
		return ce
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		ce := New(CategoryRateLimit, "RATE_LIMIT", rateLimitErr.Error(), err)
		ce.Details = map[string]any{
			"provider":    rateLimitErr.Provider,
			"retry_after": rateLimitErr.RetryAfter,
		}
		return ce
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		ce := New(CategoryUser, "VALIDATION", valErr.Error(), err)
		ce.Details = map[string]any{"field": valErr.Field, "value": valErr.Value}
		return ce
	}

	return nil
}

// classifySentinelErrors handles sentinel and context error classification.
func classifySentinelErrors(err error) *ClassifiedError {
	switch {
	case errors.Is(err, context.Canceled):
		return NewCancelled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return New(CategoryTimeout, CodeTimeout, "request deadline exceeded", err)
	case errors.Is(err, ErrRateLimitExceeded):
		return New(CategoryRateLimit, "RATE_LIMIT", err.Error(), err)
	case errors.Is(err, ErrProviderUnavailable):
		return New(CategoryNetwork, "PROVIDER_UNAVAILABLE", err.Error(), err)
	case errors.Is(err, ErrInvalidResponse):
		return New(CategorySystem, "INVALID_RESPONSE", err.Error(), err)
	}

	return nil
}

// classifyStringPatternErrors is the fallback for untyped errors, matching
// message substrings the way provider SDKs tend to phrase failures.
func classifyStringPatternErrors(err error) *ClassifiedError {
	errMsg := strings.ToLower(err.Error())
	details := map[string]any{"original_error": err.Error()}

	var ce *ClassifiedError
	switch {
	case strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests"):
		ce = New(CategoryRateLimit, "RATE_LIMIT", "rate limit exceeded", err)
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		ce = New(CategoryTimeout, CodeTimeout, "request timeout", err)
	case strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "authentication") ||
		strings.Contains(errMsg, "api key") || strings.Contains(errMsg, "forbidden"):
		ce = New(CategoryAuth, "AUTH_FAILED", "authentication failed", err)
	case strings.Contains(errMsg, "bad request") || strings.Contains(errMsg, "invalid request") ||
		strings.Contains(errMsg, "malformed"):
		ce = New(CategoryUser, "BAD_REQUEST", "malformed request", err)
	case strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection"):
		ce = New(CategoryNetwork, "NETWORK_ERROR", "network error", err)
	default:
		ce = New(CategorySystem, "UNKNOWN", "unclassified error", err)
	}

	ce.Details = details
	return ce
}

// isNetworkError detects network failures through type assertions before
// falling back to message patterns.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var netErr net.Error
		if errors.As(urlErr.Err, &netErr) {
			return true
		}
		return isNetworkErrorByString(urlErr.Err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return isNetworkErrorByString(err.Error())
}

// isNetworkErrorByString checks for network errors using string patterns.
func isNetworkErrorByString(errStr string) bool {
	lowered := strings.ToLower(errStr)
	for _, indicator := range networkErrorIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

// networkErrorIndicators are pre-lowercased substrings of common transport
// failures that escape typed error chains.
var networkErrorIndicators = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
}
