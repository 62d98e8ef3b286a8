package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	client.baseURL = server.URL
	return client, server
}

func TestGenerate_BuildsMessagesAndParsesUsage(t *testing.T) {
	var captured chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "the answer"}},
			},
			"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	})

	history := []entities.ConversationTurn{{Question: "q1", Answer: "a1"}}
	answer, usage, err := client.Generate(context.Background(), "the prompt", history)

	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, 150, usage.TotalTokens)
	assert.Equal(t, 120, usage.PromptTokens)

	// system prompt, one history pair, then the prompt.
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "q1", captured.Messages[1].Content)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "a1", captured.Messages[2].Content)
	assert.Equal(t, "the prompt", captured.Messages[3].Content)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
}

func TestGenerate_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, _, err := client.Generate(context.Background(), "p", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerate_EmptyChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, _, err := client.Generate(context.Background(), "p", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{})
	require.Error(t, err)

	_, err = NewClient(nil)
	require.Error(t, err)
}

func TestModel(t *testing.T) {
	client, err := NewClient(&config.OpenAIConfig{APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.Model())
}

func TestClose_Idempotent(t *testing.T) {
	client, err := NewClient(&config.OpenAIConfig{APIKey: "k", RateLimitRPM: 60, RateLimitBurst: 2})
	require.NoError(t, err)

	client.Close()
	client.Close()

	// Burst tokens handed out before Close are still consumable.
	require.NoError(t, client.limiter.Wait(context.Background()))
}

func TestClose_WithoutLimiter(t *testing.T) {
	client, err := NewClient(&config.OpenAIConfig{APIKey: "k"})
	require.NoError(t, err)
	client.Close()
}

func TestRecordMetric_ConcurrentInit(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recordMetric(context.Background(), "gpt-4o-mini", 200, time.Millisecond, nil)
			recordRateLimitWait(context.Background(), "gpt-4o-mini", time.Millisecond)
		}()
	}
	wg.Wait()
}

func TestEstimateCost(t *testing.T) {
	client, err := NewClient(&config.OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	cost := client.EstimateCost(entities.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000})
	assert.InDelta(t, 0.75, cost, 1e-9)

	client.model = "unknown-model"
	assert.Zero(t, client.EstimateCost(entities.TokenUsage{PromptTokens: 1000}))
}
