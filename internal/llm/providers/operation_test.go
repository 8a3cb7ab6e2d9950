package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
)

func TestNewHTTPOperationRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "pong"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`))
	}))
	defer server.Close()

	router, err := NewRouter(map[string]configuration.ProviderConfig{
		ProviderOpenAI: {Endpoint: server.URL, APIKey: "sk-test"},
	})
	require.NoError(t, err)

	op := NewHTTPOperation(router, server.Client(), testRequest())
	resp, err := op(context.Background(), ProviderOpenAI)

	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Content)
	assert.Equal(t, int64(2), resp.Usage.TotalTokens)
	assert.GreaterOrEqual(t, resp.Usage.LatencyMs, int64(0))
}

func TestNewHTTPOperationProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	router, err := NewRouter(map[string]configuration.ProviderConfig{
		ProviderOpenAI: {Endpoint: server.URL, APIKey: "k"},
	})
	require.NoError(t, err)

	op := NewHTTPOperation(router, server.Client(), testRequest())
	_, err = op(context.Background(), ProviderOpenAI)

	var perr *llmerrors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, llmerrors.CategoryRateLimit, perr.Category)
	assert.Equal(t, 7, perr.RetryAfter)
}

func TestNewHTTPOperationUnknownProvider(t *testing.T) {
	router, err := NewRouter(map[string]configuration.ProviderConfig{})
	require.NoError(t, err)

	op := NewHTTPOperation(router, http.DefaultClient, testRequest())
	_, err = op(context.Background(), "ghost")
	assert.ErrorIs(t, err, llmerrors.ErrUnknownProvider)
}
