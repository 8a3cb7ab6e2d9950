package errors

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategoryRecoverable(t *testing.T) {
	tests := []struct {
		category Category
		want     bool
	}{
		{CategoryAuth, false},
		{CategoryRateLimit, true},
		{CategoryNetwork, true},
		{CategoryTimeout, true},
		{CategoryUser, false},
		{CategorySystem, false},
		{Category("unheard-of"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.Recoverable())
		})
	}
}

func TestNewDerivesFromCategory(t *testing.T) {
	ce := New(CategoryTimeout, CodeTimeout, "slow provider", nil)
	assert.True(t, ce.Recoverable)
	assert.Equal(t, CategoryTimeout.SuggestedAction(), ce.Action)

	ce = New(CategoryAuth, "AUTH_FAILED", "bad key", nil)
	assert.False(t, ce.Recoverable)
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	ce := New(CategorySystem, "UNKNOWN", "boom", cause)
	assert.ErrorIs(t, ce, cause)
}

func TestNewTimeoutDetails(t *testing.T) {
	ce := NewTimeout("openai", 5*time.Second)
	assert.Equal(t, CategoryTimeout, ce.Category)
	assert.Equal(t, CodeTimeout, ce.Code)
	assert.Equal(t, "openai", ce.Details["provider"])
	assert.True(t, ce.Recoverable)
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(NewCancelled(nil)))
	assert.False(t, IsCancelled(NewTimeout("x", time.Second)))
	assert.False(t, IsCancelled(nil))
}

func TestProviderErrorRetryAfter(t *testing.T) {
	e := &ProviderError{Provider: "openai", StatusCode: 429, RetryAfter: 12}
	assert.Equal(t, 12*time.Second, e.GetRetryAfter())

	e.RetryAfter = 0
	assert.Equal(t, time.Duration(0), e.GetRetryAfter())
}

func TestCategoryFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Category
	}{
		{http.StatusUnauthorized, CategoryAuth},
		{http.StatusForbidden, CategoryAuth},
		{http.StatusTooManyRequests, CategoryRateLimit},
		{http.StatusRequestTimeout, CategoryTimeout},
		{http.StatusGatewayTimeout, CategoryTimeout},
		{http.StatusBadGateway, CategoryNetwork},
		{http.StatusServiceUnavailable, CategoryNetwork},
		{http.StatusBadRequest, CategoryUser},
		{http.StatusNotFound, CategoryUser},
		{http.StatusInternalServerError, CategorySystem},
		{http.StatusOK, CategorySystem},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryFromStatus(tt.status), "status %d", tt.status)
	}
}
