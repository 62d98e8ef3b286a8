package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/opsdeck/incident-assistant/internal/adapters/database"
	"github.com/opsdeck/incident-assistant/internal/adapters/search"
	"github.com/opsdeck/incident-assistant/internal/domain/repositories"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/clients/postgres"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/clients/typesense"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/observability"
	"github.com/opsdeck/incident-assistant/internal/ingest"
	"github.com/opsdeck/incident-assistant/internal/pii"
	"github.com/opsdeck/incident-assistant/pkg/config"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "drop and recreate the search collection before indexing")
	source := flag.String("source", "", "path to the incident CSV export (overrides INGEST_SOURCE_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", os.Getenv("APP_ENV"))
	logger := *observability.GetLogger()

	ctx := context.Background()

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize metrics")
	}

	// Anonymization policy and audit trail
	policy, err := pii.LoadPolicy(cfg.PII.PolicyPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PII.PolicyPath).Msg("failed to load anonymization policy")
	}
	auditFile, err := observability.OpenAuditFile(cfg.PII.AuditPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PII.AuditPath).Msg("failed to open audit log")
	}
	defer auditFile.Close()

	engine, err := pii.NewEngine(policy, observability.NewAuditLogger(auditFile), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build anonymization engine")
	}

	// Search index
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize Typesense client")
	}
	searchAdapter := search.NewTypesenseAdapter(typesenseClient)
	if *rebuild {
		if err := searchAdapter.Rebuild(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to rebuild search collection")
		}
		logger.Info().Msg("search collection rebuilt")
	} else if err := searchAdapter.InitSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to init search collection")
	}

	// Incident archive. Optional: indexing proceeds without it.
	var archive repositories.IncidentArchive
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize PostgreSQL client, archive disabled")
	} else {
		defer pgClient.Close()
		archive = database.NewIncidentArchiveAdapter(pgClient)
	}

	path := cfg.Ingest.SourcePath
	if *source != "" {
		path = *source
	}
	csvSource, err := ingest.NewCSVSource(path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to open incident source")
	}
	defer csvSource.Close()

	pipeline := ingest.NewPipeline(ingest.NewDocumentBuilder(engine), searchAdapter, archive, cfg.Ingest.Workers, metrics, logger)
	stats, err := pipeline.Run(ctx, csvSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("ingestion failed")
	}

	logger.Info().
		Int("processed", stats.Processed).
		Int("skipped", stats.Skipped).
		Int("indexed", stats.Indexed).
		Msg("ingestion complete")
}
