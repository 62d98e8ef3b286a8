package providers

import (
	"context"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
)

// MetadataFilter restricts a query to documents whose metadata fields
// match the given values. Keys are metadata field names.
type MetadataFilter map[string]string

// VectorStore is the search-index boundary. The core never implements
// the index; it only upserts normalized documents and queries top-k.
type VectorStore interface {
	// Upsert writes documents to the index, replacing existing ones by ID.
	Upsert(ctx context.Context, docs []*entities.NormalizedDocument) error

	// Query returns the top-k documents for the question text, optionally
	// restricted by a metadata filter.
	Query(ctx context.Context, text string, k int, filter MetadataFilter) ([]*entities.NormalizedDocument, error)

	// Rebuild drops and recreates the collection. Callers must treat it
	// as an exclusive phase: no queries may run concurrently.
	Rebuild(ctx context.Context) error
}
