package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatGenerator_Generate(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/chat/completions", request.URL.Path)
			assert.Equal(t, "Bearer test-key", request.Header.Get("Authorization"))

			var body map[string]any
			assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Equal(t, "gpt-4o-mini", body["model"])
			assert.InDelta(t, 600, body["max_tokens"], 0)

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"label\":\"FESTIVAL MADNESS\"}"},"finish_reason":"stop"}]}`))
		}))
		defer srv.Close()

		generator := NewChatGenerator(Options{APIKey: "test-key", BaseURL: srv.URL})
		assert.Equal(t, ProviderName, generator.Name())

		text, err := generator.Generate(context.Background(), "prompt")
		require.NoError(t, err)
		assert.JSONEq(t, `{"label":"FESTIVAL MADNESS"}`, text)
	})

	t.Run("NoChoices", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewChatGenerator(Options{APIKey: "k", BaseURL: srv.URL}).Generate(context.Background(), "prompt")
		require.ErrorIs(t, err, ErrNoChoices)
	})

	t.Run("UpstreamError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusTooManyRequests)
			_, _ = writer.Write([]byte(`{"error":{"message":"rate limited","type":"requests","code":"rate_limit_exceeded"}}`))
		}))
		defer srv.Close()

		_, err := NewChatGenerator(Options{APIKey: "k", BaseURL: srv.URL}).Generate(context.Background(), "prompt")
		require.Error(t, err)
		assert.Equal(t, http.StatusTooManyRequests, upstreamStatus(err))
	})
}
