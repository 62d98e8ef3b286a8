package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/repositories"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/clients/postgres"
	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
)

const archiveTable = "incident_documents"

// IncidentArchiveAdapter persists anonymized normalized documents in
// Postgres for audit and reporting.
type IncidentArchiveAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// Ensure IncidentArchiveAdapter implements IncidentArchive
var _ repositories.IncidentArchive = (*IncidentArchiveAdapter)(nil)

// NewIncidentArchiveAdapter creates a new archive adapter.
func NewIncidentArchiveAdapter(client *postgres.Client) *IncidentArchiveAdapter {
	return &IncidentArchiveAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Save stores or replaces a document by incident ID.
func (a *IncidentArchiveAdapter) Save(ctx context.Context, doc *entities.NormalizedDocument) error {
	if doc == nil {
		return apperrors.NewValidationError("document is nil")
	}

	record := goqu.Record{
		"incident_id":      doc.ID,
		"content":          doc.Content,
		"category":         doc.Metadata.Category,
		"subcategory":      doc.Metadata.Subcategory,
		"priority_level":   doc.Metadata.PriorityLevel,
		"severity":         doc.Metadata.Severity,
		"state":            doc.Metadata.State,
		"team":             doc.Metadata.Team,
		"opened_epoch":     doc.Metadata.Timestamp,
		"year_month":       doc.Metadata.YearMonth,
		"year":             doc.Metadata.Year,
		"is_resolved":      doc.Metadata.IsResolved,
		"resolution_hours": doc.Metadata.ResolutionHours,
		"ingested_at":      doc.IngestedAt,
	}

	query, args, err := a.db.Insert(archiveTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("incident_id", record)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build archive insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to archive incident document", err)
	}
	return nil
}

// Get returns the archived document for an incident ID.
func (a *IncidentArchiveAdapter) Get(ctx context.Context, incidentID string) (*entities.NormalizedDocument, error) {
	query, args, err := a.db.From(archiveTable).
		Select("incident_id", "content", "category", "subcategory", "priority_level",
			"severity", "state", "team", "opened_epoch", "year_month", "year",
			"is_resolved", "resolution_hours", "ingested_at").
		Where(goqu.Ex{"incident_id": incidentID}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build archive select query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)

	var doc entities.NormalizedDocument
	var ingestedAt time.Time
	err = row.Scan(
		&doc.ID,
		&doc.Content,
		&doc.Metadata.Category,
		&doc.Metadata.Subcategory,
		&doc.Metadata.PriorityLevel,
		&doc.Metadata.Severity,
		&doc.Metadata.State,
		&doc.Metadata.Team,
		&doc.Metadata.Timestamp,
		&doc.Metadata.YearMonth,
		&doc.Metadata.Year,
		&doc.Metadata.IsResolved,
		&doc.Metadata.ResolutionHours,
		&ingestedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewValidationError("incident " + incidentID + " not archived")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read archived incident", err)
	}

	doc.Metadata.IncidentID = doc.ID
	doc.IngestedAt = ingestedAt
	if doc.Metadata.ResolutionHours >= 0 {
		hours := doc.Metadata.ResolutionHours
		doc.ResolutionHours = &hours
	}
	return &doc, nil
}

// Count returns the number of archived documents.
func (a *IncidentArchiveAdapter) Count(ctx context.Context) (int64, error) {
	query, args, err := a.db.From(archiveTable).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build archive count query", err)
	}

	var count int64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count archived incidents", err)
	}
	return count, nil
}
