package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdeck/incident-assistant/internal/adapters/cache"
	"github.com/opsdeck/incident-assistant/internal/adapters/search"
	"github.com/opsdeck/incident-assistant/internal/api/handlers"
	"github.com/opsdeck/incident-assistant/internal/api/routes"
	"github.com/opsdeck/incident-assistant/internal/application/services"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/clients/openai"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/clients/redis"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/clients/typesense"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/observability"
	"github.com/opsdeck/incident-assistant/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))
	logger := *observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize Typesense client")
	}
	searchAdapter := search.NewTypesenseAdapter(typesenseClient)
	if err := searchAdapter.InitSchema(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to init Typesense schema")
	}

	// Initialize Redis client. The server can run without it, sessions
	// then live in memory only and do not survive a restart.
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Redis client, sessions are in-memory only")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis client initialized")
	}

	// Initialize OpenAI client
	if cfg.OpenAI.APIKey == "" {
		logger.Fatal().Msg("OPENAI_API_KEY is not set")
	}
	openaiClient, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize OpenAI client")
	}
	defer openaiClient.Close()

	// Initialize services
	sessions := services.NewSessionManager(cacheProvider, int(cfg.Chat.SessionTTL.Seconds()))
	orchestrator := services.NewOrchestrator(
		services.NewStrategySelector(),
		searchAdapter,
		openaiClient,
		sessions,
		services.OrchestratorConfig{
			RetrievalTimeout:   cfg.Chat.RetrievalTimeout,
			GenerationTimeout:  cfg.Chat.GenerationTimeout,
			MaxHistoryTurns:    cfg.Chat.MaxHistoryTurns,
			ContextBudgetChars: cfg.Chat.ContextBudgetChars,
		},
		metrics,
		logger,
	)
	analysisService := services.NewAnalysisService(openaiClient, cfg.Chat.GenerationTimeout, logger)

	// Initialize handlers and router
	router := routes.NewRouter(
		handlers.NewChatHandler(orchestrator),
		handlers.NewAnalysisHandler(analysisService),
		metrics,
		logger,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.Chat.GenerationTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting chat server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}
