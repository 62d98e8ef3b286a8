package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
)

type stubChatService struct {
	answer      *entities.ChatAnswer
	lastSession string
	lastMessage string
}

func (s *stubChatService) Ask(_ context.Context, sessionID, question string) *entities.ChatAnswer {
	s.lastSession = sessionID
	s.lastMessage = question
	return s.answer
}

func metricsFor(totalTokens int, cost float64, elapsed time.Duration) *entities.QueryMetrics {
	m := entities.NewQueryMetrics()
	m.RecordUsage(entities.TokenUsage{TotalTokens: totalTokens, PromptTokens: totalTokens - 10, CompletionTokens: 10}, cost)
	m.Finalize()
	m.ResponseTime = elapsed
	return m
}

func TestChat_Success(t *testing.T) {
	service := &stubChatService{answer: &entities.ChatAnswer{
		Response: "All clear.",
		Metrics:  metricsFor(150, 0.0123, 2340*time.Millisecond),
	}}
	handler := NewChatHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"any outages?","session_id":"s1"}`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", service.lastSession)
	assert.Equal(t, "any outages?", service.lastMessage)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "All clear.", body["response"])
	assert.Equal(t, "s1", body["session_id"])

	metrics := body["metrics"].(map[string]interface{})
	assert.Equal(t, "2.34s", metrics["response_time"])
	assert.Equal(t, float64(150), metrics["total_tokens"])
	assert.Equal(t, "$0.0123", metrics["cost"])
}

func TestChat_GeneratesSessionIDWhenMissing(t *testing.T) {
	service := &stubChatService{answer: &entities.ChatAnswer{Response: "ok"}}
	handler := NewChatHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hello"}`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, service.lastSession)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, service.lastSession, body["session_id"])
}

func TestChat_FailedTurnStillStructured(t *testing.T) {
	service := &stubChatService{answer: &entities.ChatAnswer{
		Response: "Error: language model call failed",
		Metrics:  metricsFor(40, 0, time.Second),
		Err:      apperrors.NewGenerationError("language model call failed", nil),
	}}
	handler := NewChatHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi","session_id":"s1"}`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["response"], "Error:")
	metrics := body["metrics"].(map[string]interface{})
	assert.Equal(t, float64(40), metrics["total_tokens"])
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	handler := NewChatHandler(&stubChatService{})

	for _, payload := range []string{`{"message":""}`, `{"message":"   "}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
		rec := httptest.NewRecorder()

		handler.Chat(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "payload %s", payload)
	}
}

func TestChat_MalformedJSONRejected(t *testing.T) {
	handler := NewChatHandler(&stubChatService{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
