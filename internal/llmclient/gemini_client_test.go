package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/config"
)

func geminiResponse(text string) string {
	payload := GeminiResponsePayload{}
	payload.Candidates = []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	}{
		{Content: GeminiContent{Parts: []GeminiPart{{Text: text}}}, FinishReason: "STOP"},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func newTestClient(t *testing.T, endpoint string) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient(config.LLMModelConfig{
		Provider:   config.ProviderGemini,
		Model:      "gemini-2.5-pro",
		APIKey:     "test-key",
		Endpoint:   endpoint,
		APITimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()

	var gotPayload GeminiRequestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(geminiResponse(`{"ok":true}`)))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	defer client.Close()

	got, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{Temperature: 0.3, ForceJSONFormat: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)

	require.NotNil(t, gotPayload.SystemInstruction)
	assert.Equal(t, "system", gotPayload.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "user", gotPayload.Contents[0].Parts[0].Text)
	assert.Equal(t, "application/json", gotPayload.GenerationConfig.ResponseMimeType)
	assert.InDelta(t, 0.3, gotPayload.GenerationConfig.Temperature, 1e-9)
}

func TestGenerateForwardsSamplingOptions(t *testing.T) {
	t.Parallel()

	var gotPayload GeminiRequestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(geminiResponse("ok")))
	}))
	defer server.Close()

	client, err := NewGeminiClient(config.LLMModelConfig{
		Provider:   config.ProviderGemini,
		Model:      "gemini-2.5-pro",
		APIKey:     "test-key",
		Endpoint:   server.URL,
		APITimeout: 5 * time.Second,
		TopP:       0.8,
		TopK:       64,
	}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	// Per-request options override the model defaults.
	_, err = client.Generate(context.Background(), schemas.GenerationRequest{
		UserPrompt: "hi",
		Options:    schemas.GenerationOptions{TopP: 0.95, TopK: 40},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.95, gotPayload.GenerationConfig.TopP, 1e-6)
	assert.Equal(t, 40, gotPayload.GenerationConfig.TopK)

	// Unset options fall back to the configured defaults.
	_, err = client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, gotPayload.GenerationConfig.TopP, 1e-6)
	assert.Equal(t, 64, gotPayload.GenerationConfig.TopK)
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(geminiResponse("recovered")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	defer client.Close()

	got, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestGenerateDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	defer client.Close()

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	var svcErr *schemas.ExternalServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "gemini", svcErr.Service)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateBlockedResponseIsPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	defer client.Close()

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiClient(config.LLMModelConfig{Model: "gemini-2.5-pro"}, zap.NewNop())
	require.Error(t, err)
}
