package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/config"
)

func TestNewCompleter(t *testing.T) {
	kb := DefaultKnowledge()
	for provider, want := range map[string]string{
		config.ProviderOpenAI:     "openai",
		config.ProviderPerplexity: "perplexity",
		config.ProviderOffline:    "offline",
	} {
		c, err := NewCompleter(&config.ServerConfig{Provider: provider}, kb)
		require.NoError(t, err)
		assert.Equal(t, want, c.Name())
	}

	_, err := NewCompleter(&config.ServerConfig{Provider: "bard"}, kb)
	require.Error(t, err)
}

func TestOpenAIServiceComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float32 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-3.5-turbo", body.Model)
		assert.Equal(t, 500, body.MaxTokens)
		assert.InDelta(t, 0.7, body.Temperature, 0.0001)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, "user", body.Messages[1].Role)
			assert.Equal(t, "hello", body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hi from SITCOE"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	svc := NewOpenAIService(config.OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/v1/",
		Model:       "gpt-3.5-turbo",
		MaxTokens:   500,
		Temperature: 0.7,
	})

	reply, err := svc.Complete(context.Background(), "system prompt", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi from SITCOE", reply)
}

func TestOpenAIServiceNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[]}`))
	}))
	defer srv.Close()

	svc := NewOpenAIService(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := svc.Complete(context.Background(), "sys", "hello")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIServiceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	svc := NewOpenAIService(config.OpenAIConfig{APIKey: "sk-bad", BaseURL: srv.URL})
	_, err := svc.Complete(context.Background(), "sys", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API error")
}

func TestPerplexityServiceComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pplx-test", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sonar", body["model"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Placement rate: 85%+"}}]}`))
	}))
	defer srv.Close()

	svc := NewPerplexityService(config.PerplexityConfig{APIKey: "pplx-test", URL: srv.URL, Model: "sonar"})
	reply, err := svc.Complete(context.Background(), "sys", "placements?")
	require.NoError(t, err)
	assert.Equal(t, "Placement rate: 85%+", reply)
}

func TestPerplexityServiceFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-200", http.StatusTooManyRequests, `{"error":"slow down"}`},
		{"empty choices", http.StatusOK, `{"choices":[]}`},
		{"not json", http.StatusOK, `nope`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			svc := NewPerplexityService(config.PerplexityConfig{APIKey: "k", URL: srv.URL, Model: "sonar"})
			_, err := svc.Complete(context.Background(), "sys", "hi")
			require.Error(t, err)
		})
	}

	svc := NewPerplexityService(config.PerplexityConfig{URL: "http://unused"})
	_, err := svc.Complete(context.Background(), "sys", "hi")
	require.Error(t, err)
}
