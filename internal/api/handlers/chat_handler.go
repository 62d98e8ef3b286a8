package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
)

// ChatService runs one conversation turn.
type ChatService interface {
	Ask(ctx context.Context, sessionID, question string) *entities.ChatAnswer
}

// ChatHandler handles chat requests.
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatMetrics struct {
	ResponseTime     string `json:"response_time"`
	TotalTokens      int    `json:"total_tokens"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	Cost             string `json:"cost"`
}

type chatResponse struct {
	Response  string      `json:"response"`
	SessionID string      `json:"session_id,omitempty"`
	Metrics   chatMetrics `json:"metrics"`
}

// Chat handles POST /chat. The response is always structured, even for
// failed turns.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		respondWithError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer := h.service.Ask(r.Context(), sessionID, payload.Message)

	respondWithJSON(w, http.StatusOK, chatResponse{
		Response:  answer.Response,
		SessionID: sessionID,
		Metrics:   formatMetrics(answer.Metrics),
	})
}

func formatMetrics(m *entities.QueryMetrics) chatMetrics {
	if m == nil {
		return chatMetrics{ResponseTime: "0.00s", Cost: "$0.0000"}
	}
	return chatMetrics{
		ResponseTime:     fmt.Sprintf("%.2fs", m.ResponseTime.Seconds()),
		TotalTokens:      m.TotalTokens,
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
		Cost:             fmt.Sprintf("$%.4f", m.Cost),
	}
}
