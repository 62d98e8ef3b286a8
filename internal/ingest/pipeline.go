package ingest

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
	"github.com/opsdeck/incident-assistant/internal/domain/repositories"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/observability"
)

const upsertBatchSize = 100

// Stats summarizes one ingestion run.
type Stats struct {
	Processed int
	Skipped   int
	Indexed   int
}

// Pipeline ingests incident records: build document, anonymize notes,
// index, archive. Building is pure, so records run through a bounded
// worker pool. A malformed record is skipped and logged, never aborting
// the batch.
type Pipeline struct {
	builder *DocumentBuilder
	store   providers.VectorStore
	archive repositories.IncidentArchive
	workers int
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewPipeline creates an ingestion pipeline. archive may be nil when no
// database is configured; metrics may be nil.
func NewPipeline(builder *DocumentBuilder, store providers.VectorStore, archive repositories.IncidentArchive, workers int, metrics *observability.Metrics, logger zerolog.Logger) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		builder: builder,
		store:   store,
		archive: archive,
		workers: workers,
		metrics: metrics,
		logger:  logger,
	}
}

// Run drains the source and indexes every buildable record. Index
// writes happen after the build phase; callers must not run queries
// against the store concurrently with a rebuild.
func (p *Pipeline) Run(ctx context.Context, source RecordSource) (Stats, error) {
	records := make(chan entities.IncidentRecord)
	built := make(chan *entities.NormalizedDocument)

	var buildSkipped atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range records {
				doc, findings, err := p.builder.Build(record)
				if err != nil {
					buildSkipped.Add(1)
					p.logger.Warn().Err(err).Str("incident", record.Number).Msg("skipping record, build failed")
					continue
				}
				if p.metrics != nil {
					for _, f := range findings {
						observability.RecordPIIFinding(ctx, p.metrics, f.Entity)
					}
				}
				built <- doc
			}
		}()
	}
	go func() {
		wg.Wait()
		close(built)
	}()

	type readResult struct {
		skipped int
		err     error
	}
	var stats Stats
	readDone := make(chan readResult, 1)
	go func() {
		defer close(records)
		var result readResult
		for {
			record, err := source.Next()
			if err == io.EOF {
				readDone <- result
				return
			}
			if err != nil {
				result.skipped++
				p.logger.Warn().Err(err).Msg("skipping malformed record")
				continue
			}
			select {
			case records <- record:
			case <-ctx.Done():
				result.err = ctx.Err()
				readDone <- result
				return
			}
		}
	}()

	// On a store failure, keep draining so the reader and workers can
	// exit before we return.
	drain := func() {
		go func() {
			for range built {
			}
		}()
	}

	var batch []*entities.NormalizedDocument
	for doc := range built {
		stats.Processed++
		batch = append(batch, doc)
		if len(batch) >= upsertBatchSize {
			if err := p.flush(ctx, batch, &stats); err != nil {
				drain()
				return stats, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := p.flush(ctx, batch, &stats); err != nil {
			return stats, err
		}
	}

	result := <-readDone
	stats.Skipped += result.skipped + int(buildSkipped.Load())
	if result.err != nil {
		return stats, result.err
	}
	return stats, nil
}

func (p *Pipeline) flush(ctx context.Context, batch []*entities.NormalizedDocument, stats *Stats) error {
	if err := p.store.Upsert(ctx, batch); err != nil {
		return err
	}
	stats.Indexed += len(batch)

	if p.archive == nil {
		return nil
	}
	for _, doc := range batch {
		if err := p.archive.Save(ctx, doc); err != nil {
			p.logger.Warn().Err(err).Str("incident", doc.ID).Msg("archive write failed")
		}
	}
	return nil
}
