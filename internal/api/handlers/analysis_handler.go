package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
)

// AnalysisService produces a one-shot analysis of a single incident.
type AnalysisService interface {
	Analyze(ctx context.Context, record entities.IncidentRecord) (string, *entities.QueryMetrics, error)
}

// AnalysisHandler handles incident analysis requests.
type AnalysisHandler struct {
	service AnalysisService
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(service AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

type analysisRequest struct {
	Number           string `json:"number"`
	Category         string `json:"category"`
	Subcategory      string `json:"subcategory"`
	Impact           string `json:"impact"`
	Urgency          string `json:"urgency"`
	Priority         string `json:"priority"`
	State            string `json:"state"`
	ShortDescription string `json:"short_description"`
}

// Analyze handles POST /analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var payload analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Number == "" {
		respondWithError(w, http.StatusBadRequest, "incident number is required")
		return
	}

	record := entities.IncidentRecord{
		Number:           payload.Number,
		Category:         payload.Category,
		Subcategory:      payload.Subcategory,
		Impact:           payload.Impact,
		Urgency:          payload.Urgency,
		Priority:         payload.Priority,
		State:            payload.State,
		ShortDescription: payload.ShortDescription,
	}

	analysis, metrics, err := h.service.Analyze(r.Context(), record)
	if err != nil {
		respondWithJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   err.Error(),
			"metrics": formatMetrics(metrics),
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"analysis": analysis,
		"metrics":  formatMetrics(metrics),
	})
}
