package repositories

import (
	"context"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
)

// IncidentArchive persists the anonymized normalized documents for
// audit and reporting. Only anonymized content ever reaches it.
type IncidentArchive interface {
	// Save stores or replaces a document by incident ID.
	Save(ctx context.Context, doc *entities.NormalizedDocument) error

	// Get returns the archived document for an incident ID.
	Get(ctx context.Context, incidentID string) (*entities.NormalizedDocument, error)

	// Count returns the number of archived documents.
	Count(ctx context.Context) (int64, error)
}
