package providers

import (
	"net/http"
	"strconv"
	"strings"

	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
)

// categoryFor maps a provider error onto the failure taxonomy. Provider
// error codes are checked first because some backends return throttling or
// auth failures under generic status codes; the HTTP status decides the
// rest.
func categoryFor(statusCode int, errorCode string) llmerrors.Category {
	lowerCode := strings.ToLower(errorCode)
	switch {
	case strings.Contains(lowerCode, "rate") || strings.Contains(lowerCode, "limit") ||
		strings.Contains(lowerCode, "quota") || strings.Contains(lowerCode, "overloaded"):
		return llmerrors.CategoryRateLimit
	case strings.Contains(lowerCode, "timeout"):
		return llmerrors.CategoryTimeout
	case strings.Contains(lowerCode, "auth") || strings.Contains(lowerCode, "unauthorized") ||
		strings.Contains(lowerCode, "permission") || strings.Contains(lowerCode, "forbidden"):
		return llmerrors.CategoryAuth
	}
	return llmerrors.CategoryFromStatus(statusCode)
}

// retryAfterSeconds extracts delay guidance from a Retry-After header.
// Only the delta-seconds form is honored; HTTP-date values are rare from
// LLM backends and are ignored.
func retryAfterSeconds(headers http.Header) int {
	raw := headers.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

// newProviderError builds the structured error for a non-2xx provider
// response.
func newProviderError(provider string, statusCode int, message, code string, headers http.Header) *llmerrors.ProviderError {
	return &llmerrors.ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
		Category:   categoryFor(statusCode, code),
		RetryAfter: retryAfterSeconds(headers),
	}
}
