package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

func testRequest() *transport.Request {
	return &transport.Request{
		Operation:    transport.OpGeneration,
		TraceID:      "trace-42",
		Model:        "test-model",
		SystemPrompt: "be helpful",
		Prompt:       "hello",
		MaxTokens:    128,
		Temperature:  0.3,
	}
}

func httpResponse(status int, body string, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestAnthropicBuild(t *testing.T) {
	adapter := NewAnthropicAdapter(configuration.ProviderConfig{APIKey: "sk-ant"})

	httpReq, err := adapter.Build(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "https://api.anthropic.com/v1/messages", httpReq.URL.String())
	assert.Equal(t, "sk-ant", httpReq.Header.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", httpReq.Header.Get("anthropic-version"))
	assert.Equal(t, "trace-42", httpReq.Header.Get("X-Request-ID"))

	body := decodeBody(t, httpReq)
	assert.Equal(t, "be helpful", body["system"], "system prompt rides as a top-level field")
	assert.Equal(t, "test-model", body["model"])
}

func TestAnthropicParseSuccess(t *testing.T) {
	adapter := NewAnthropicAdapter(configuration.ProviderConfig{})

	resp, err := adapter.Parse(httpResponse(200, `{
		"content": [{"type": "text", "text": "bonjour"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, map[string]string{"anthropic-request-id": "req-1"}))

	require.NoError(t, err)
	assert.Equal(t, "bonjour", resp.Content)
	assert.Equal(t, transport.FinishStop, resp.FinishReason)
	assert.Equal(t, []string{"req-1"}, resp.ProviderRequestIDs)
	assert.Equal(t, int64(15), resp.Usage.TotalTokens)
}

func TestAnthropicParseError(t *testing.T) {
	adapter := NewAnthropicAdapter(configuration.ProviderConfig{})

	_, err := adapter.Parse(httpResponse(429, `{
		"error": {"type": "rate_limit_error", "message": "overloaded"}
	}`, map[string]string{"Retry-After": "20"}))

	require.Error(t, err)
	var perr *llmerrors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProviderAnthropic, perr.Provider)
	assert.Equal(t, llmerrors.CategoryRateLimit, perr.Category)
	assert.Equal(t, 20, perr.RetryAfter)
}

func TestOpenAIBuild(t *testing.T) {
	adapter := NewOpenAIAdapter(configuration.ProviderConfig{APIKey: "sk-oai"})

	httpReq, err := adapter.Build(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1/chat/completions", httpReq.URL.String())
	assert.Equal(t, "Bearer sk-oai", httpReq.Header.Get("Authorization"))

	body := decodeBody(t, httpReq)
	messages := body["messages"].([]any)
	require.Len(t, messages, 2, "system prompt becomes a leading system message")
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestOpenAIBuildWithoutSystemPrompt(t *testing.T) {
	adapter := NewOpenAIAdapter(configuration.ProviderConfig{APIKey: "k"})

	req := testRequest()
	req.SystemPrompt = ""
	httpReq, err := adapter.Build(context.Background(), req)
	require.NoError(t, err)

	body := decodeBody(t, httpReq)
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
}

func TestOpenAIParseSuccess(t *testing.T) {
	adapter := NewOpenAIAdapter(configuration.ProviderConfig{})

	resp, err := adapter.Parse(httpResponse(200, `{
		"choices": [{"message": {"content": "hi there"}, "finish_reason": "length"}],
		"usage": {"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10}
	}`, map[string]string{"x-request-id": "req-2"}))

	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, transport.FinishLength, resp.FinishReason)
	assert.Equal(t, []string{"req-2"}, resp.ProviderRequestIDs)
	assert.Equal(t, int64(10), resp.Usage.TotalTokens)
}

func TestOpenAIParseError(t *testing.T) {
	adapter := NewOpenAIAdapter(configuration.ProviderConfig{})

	_, err := adapter.Parse(httpResponse(401, `{
		"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}
	}`, nil))

	var perr *llmerrors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProviderOpenAI, perr.Provider)
	assert.Equal(t, llmerrors.CategoryAuth, perr.Category)
}

func TestGoogleBuild(t *testing.T) {
	adapter := NewGoogleAdapter(configuration.ProviderConfig{APIKey: "g-key"})

	httpReq, err := adapter.Build(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Contains(t, httpReq.URL.String(), "models/test-model:generateContent")
	assert.Equal(t, "g-key", httpReq.Header.Get("x-goog-api-key"))

	body := decodeBody(t, httpReq)
	assert.Contains(t, body, "systemInstruction")
	genCfg := body["generationConfig"].(map[string]any)
	assert.Equal(t, float64(128), genCfg["maxOutputTokens"])
}

func TestGoogleParseSuccess(t *testing.T) {
	adapter := NewGoogleAdapter(configuration.ProviderConfig{})

	resp, err := adapter.Parse(httpResponse(200, `{
		"candidates": [{"content": {"parts": [{"text": "guten tag"}]}, "finishReason": "MAX_TOKENS"}],
		"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 2, "totalTokenCount": 6}
	}`, nil))

	require.NoError(t, err)
	assert.Equal(t, "guten tag", resp.Content)
	assert.Equal(t, transport.FinishLength, resp.FinishReason)
	assert.Equal(t, int64(6), resp.Usage.TotalTokens)
}

func TestGoogleParseError(t *testing.T) {
	adapter := NewGoogleAdapter(configuration.ProviderConfig{})

	_, err := adapter.Parse(httpResponse(429, `{
		"error": {"code": 429, "message": "Resource exhausted", "status": "RESOURCE_EXHAUSTED"}
	}`, nil))

	var perr *llmerrors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProviderGoogle, perr.Provider)
	assert.Equal(t, llmerrors.CategoryRateLimit, perr.Category)
}

func TestCategoryForCodeHints(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		want       llmerrors.Category
	}{
		{"rate_hint_overrides_status", 500, "rate_limit_error", llmerrors.CategoryRateLimit},
		{"quota_hint", 403, "quota_exceeded", llmerrors.CategoryRateLimit},
		{"auth_hint", 400, "unauthorized_request", llmerrors.CategoryAuth},
		{"timeout_hint", 500, "request_timeout", llmerrors.CategoryTimeout},
		{"status_fallback", 502, "", llmerrors.CategoryNetwork},
		{"plain_user_error", 400, "invalid_field", llmerrors.CategoryUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categoryFor(tt.statusCode, tt.errorCode))
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	h := http.Header{}
	assert.Zero(t, retryAfterSeconds(h))

	h.Set("Retry-After", "30")
	assert.Equal(t, 30, retryAfterSeconds(h))

	h.Set("Retry-After", "Wed, 21 Oct 2026 07:28:00 GMT")
	assert.Zero(t, retryAfterSeconds(h), "HTTP-date form is ignored")

	h.Set("Retry-After", "-5")
	assert.Zero(t, retryAfterSeconds(h))
}
