package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/agentic-curie/internal/config"
)

func TestGeminiServiceWithoutKey(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g, err := NewGeminiService(context.Background(), config.GeminiConfig{Model: "gemini-2.5-flash"}, 100, zap.New(core))
	require.NoError(t, err)

	assert.False(t, g.Configured())
	assert.Equal(t, "gemini-2.5-flash", g.Model())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "gemini", logs.All()[0].ContextMap()["ai_provider"])

	ctx := context.Background()
	_, err = g.GenerateText(ctx, "hi", 0.3)
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = g.GenerateJSON(ctx, "hi", 0.2, nil)
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = g.GenerateTurn(ctx, "", nil, nil)
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = g.GenerateEmbedding(ctx, "hi")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestDecodeJSONObject(t *testing.T) {
	assert.Equal(t, map[string]any{"score": float64(3)}, DecodeJSONObject(`{"score": 3}`))
	assert.Equal(t, map[string]any{"a": "b"}, DecodeJSONObject("```json\n{\"a\":\"b\"}\n```"))
	assert.Equal(t, map[string]any{RawResponseKey: "nope"}, DecodeJSONObject("nope"))
	assert.Equal(t, map[string]any{RawResponseKey: "[1,2]"}, DecodeJSONObject("[1,2]"))
}

func TestGenerateTextPassesEmptyCompletionThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"SAFETY"}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	g, err := NewGeminiService(context.Background(), config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: srv.URL,
	}, 100, zap.New(core))
	require.NoError(t, err)
	require.True(t, g.Configured())

	text, err := g.GenerateText(context.Background(), "summarize this", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	warnings := logs.FilterMessageSnippet("No text content")
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, "SAFETY", warnings.All()[0].ContextMap()["finish_reason"])
}
