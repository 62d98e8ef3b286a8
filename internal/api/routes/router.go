package routes

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/opsdeck/incident-assistant/internal/api/handlers"
	"github.com/opsdeck/incident-assistant/internal/api/middleware"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	chatHandler     *handlers.ChatHandler
	analysisHandler *handlers.AnalysisHandler

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewRouter creates a new router
func NewRouter(
	chatHandler *handlers.ChatHandler,
	analysisHandler *handlers.AnalysisHandler,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		chatHandler:     chatHandler,
		analysisHandler: analysisHandler,
		metrics:         metrics,
		logger:          logger,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Conversation endpoints
	r.mux.HandleFunc("POST /api/chat", r.chatHandler.Chat)

	// One-shot incident analysis
	if r.analysisHandler != nil {
		r.mux.HandleFunc("POST /api/analyze", r.analysisHandler.Analyze)
	}

	var handler http.Handler = r.mux

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(r.logger)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
