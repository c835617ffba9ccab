package llmadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

func newTestClient(t *testing.T, provider string, handler http.HandlerFunc) Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cl, err := New(Config{
		Provider:    provider,
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/",
		Temperature: 0.3,
	}, testLog)
	require.NoError(t, err)

	return cl
}

func TestOpenAIComplete(t *testing.T) {
	cl := newTestClient(t, entity.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openAIRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)
		assert.Equal(t, 0.3, req.Temperature)
		assert.Equal(t, []openAIMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "usr"}}, req.Messages)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"a\":1}  "}}]}`))
	})

	require.Equal(t, DefaultOpenAIModel, cl.Model())

	content, err := cl.CompleteWithSystem(context.Background(), "sys", "usr")
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, content)
}

func TestAnthropicComplete(t *testing.T) {
	cl := newTestClient(t, entity.ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, defaultAnthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultAnthropicModel, req.Model)
		assert.Equal(t, defaultMaxTokens, req.MaxTokens)
		assert.Equal(t, "sys", req.System)
		assert.Equal(t, []anthropicMessage{{Role: "user", Content: "usr"}}, req.Messages)

		w.Write([]byte(`{"content":[{"type":"text","text":"# Doc"},{"type":"tool_use"},{"type":"text","text":"\nbody"}]}`))
	})

	content, err := cl.CompleteWithSystem(context.Background(), "sys", "usr")
	require.NoError(t, err)
	require.Equal(t, "# Doc\nbody", content)
}

func TestCompleteEmpty(t *testing.T) {
	tests := []struct {
		provider string
		body     string
	}{
		{provider: entity.ProviderOpenAI, body: `{"choices":[]}`},
		{provider: entity.ProviderOpenAI, body: `{"choices":[{"message":{"content":"   "}}]}`},
		{provider: entity.ProviderAnthropic, body: `{"content":[]}`},
	}

	for _, tt := range tests {
		cl := newTestClient(t, tt.provider, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tt.body))
		})

		_, err := cl.CompleteWithSystem(context.Background(), "s", "u")
		require.ErrorIs(t, err, common.ErrEmptyResponse, tt.body)
	}
}

func TestCompleteStatusErrors(t *testing.T) {
	tests := []struct {
		code       int
		invalidKey bool
	}{
		{code: http.StatusUnauthorized, invalidKey: true},
		{code: http.StatusForbidden, invalidKey: true},
		{code: http.StatusTooManyRequests},
		{code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		cl := newTestClient(t, entity.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", tt.code)
		})

		_, err := cl.CompleteWithSystem(context.Background(), "s", "u")
		require.Error(t, err)

		var se *StatusError
		require.ErrorAs(t, err, &se)
		require.Equal(t, tt.code, se.Code)
		require.Contains(t, err.Error(), "AI request failed")
		require.True(t, IsStatusError(err))
		require.Equal(t, tt.invalidKey, errors.Is(err, common.ErrInvalidAPIKey))
	}
}

func TestValidate(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		cl := newTestClient(t, entity.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/models", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"data":[]}`))
		})
		require.NoError(t, cl.Validate(context.Background()))
	})

	t.Run("anthropic", func(t *testing.T) {
		cl := newTestClient(t, entity.ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
			var req anthropicRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 1, req.MaxTokens)
			w.Write([]byte(`{"content":[]}`))
		})
		require.NoError(t, cl.Validate(context.Background()))
	})

	t.Run("invalid key", func(t *testing.T) {
		cl := newTestClient(t, entity.ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		err := cl.Validate(context.Background())
		require.ErrorIs(t, err, common.ErrInvalidAPIKey)
		require.Contains(t, err.Error(), "Unauthorized")
	})
}

func TestNew(t *testing.T) {
	_, err := New(Config{Provider: entity.ProviderOpenAI}, testLog)
	require.ErrorIs(t, err, common.ErrAPIKeyRequired)

	_, err = New(Config{Provider: "gemini", APIKey: "k"}, testLog)
	require.ErrorIs(t, err, common.ErrUnsupportedProvider)

	cl, err := New(Config{Provider: entity.ProviderAnthropic, APIKey: "k", Model: "claude-custom"}, testLog)
	require.NoError(t, err)
	require.IsType(t, &AnthropicClient{}, cl)
	require.Equal(t, "claude-custom", cl.Model())
}

func TestDefaultModel(t *testing.T) {
	require.Equal(t, DefaultOpenAIModel, DefaultModel(entity.ProviderOpenAI))
	require.Equal(t, DefaultAnthropicModel, DefaultModel(entity.ProviderAnthropic))
	require.Equal(t, DefaultOpenAIModel, DefaultModel(""))
}

func TestUserPrompt(t *testing.T) {
	p := UserPrompt("Leads {NODE_COUNT}", 3, `{"name": "x"}`)

	require.Contains(t, p, "- Workflow name: Leads {NODE_COUNT}\n")
	require.Contains(t, p, "- Node count: 3\n")
	require.True(t, len(p) > 0 && p[len(p)-1] == '}')
	require.Contains(t, p, "Workflow JSON:\n{\"name\": \"x\"}")
	require.NotContains(t, p, placeholderWorkflow)

	require.Contains(t, SystemPrompt(), "expert technical writer")
}
