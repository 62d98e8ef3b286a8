package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
	tsclient "github.com/opsdeck/incident-assistant/internal/infrastructure/clients/typesense"
)

const collectionName = "incidents"

// TypesenseAdapter implements the vector-store boundary on Typesense.
// Document bodies are indexed for semantic search; every metadata field
// is flat and filterable.
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements the VectorStore interface
var _ providers.VectorStore = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

func incidentSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "content", Type: "string"},
			{Name: "incident_id", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "subcategory", Type: "string", Facet: pointer.True()},
			{Name: "priority_level", Type: "string", Facet: pointer.True()},
			{Name: "severity", Type: "string", Facet: pointer.True()},
			{Name: "state", Type: "string", Facet: pointer.True()},
			{Name: "team", Type: "string", Facet: pointer.True()},
			{Name: "timestamp", Type: "int64"},
			{Name: "year_month", Type: "string", Facet: pointer.True()},
			{Name: "year", Type: "string", Facet: pointer.True()},
			{Name: "is_resolved", Type: "bool"},
			{Name: "resolution_hours", Type: "float"},
		},
		DefaultSortingField: pointer.String("timestamp"),
	}
}

// InitSchema ensures the incidents collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	_, err = a.client.Client().Collections().Create(ctx, incidentSchema())
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

// Rebuild drops and recreates the collection. Must run as an exclusive
// phase with no concurrent queries.
func (a *TypesenseAdapter) Rebuild(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Delete(ctx)
	if err != nil && !strings.Contains(err.Error(), "404") {
		return fmt.Errorf("failed to drop typesense collection: %w", err)
	}
	if _, err := a.client.Client().Collections().Create(ctx, incidentSchema()); err != nil {
		return fmt.Errorf("failed to recreate typesense collection: %w", err)
	}
	return nil
}

// Upsert writes documents to the index, replacing existing ones by ID.
func (a *TypesenseAdapter) Upsert(ctx context.Context, docs []*entities.NormalizedDocument) error {
	for _, doc := range docs {
		document := map[string]interface{}{
			"id":               doc.ID,
			"content":          doc.Content,
			"incident_id":      doc.Metadata.IncidentID,
			"category":         doc.Metadata.Category,
			"subcategory":      doc.Metadata.Subcategory,
			"priority_level":   doc.Metadata.PriorityLevel,
			"severity":         doc.Metadata.Severity,
			"state":            doc.Metadata.State,
			"team":             doc.Metadata.Team,
			"timestamp":        doc.Metadata.Timestamp,
			"year_month":       doc.Metadata.YearMonth,
			"year":             doc.Metadata.Year,
			"is_resolved":      doc.Metadata.IsResolved,
			"resolution_hours": doc.Metadata.ResolutionHours,
		}
		if _, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document); err != nil {
			return fmt.Errorf("failed to index incident %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Query returns the top-k documents for the question text, restricted
// by the metadata filter when present.
func (a *TypesenseAdapter) Query(ctx context.Context, text string, k int, filter providers.MetadataFilter) ([]*entities.NormalizedDocument, error) {
	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(text),
		QueryBy: pointer.String("content"),
		PerPage: pointer.Int(k),
	}
	if expr := buildFilterExpression(filter); expr != "" {
		searchParams.FilterBy = pointer.String(expr)
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search incidents: %w", err)
	}

	docs := []*entities.NormalizedDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		docs = append(docs, documentFromHit(*hit.Document))
	}
	return docs, nil
}

// buildFilterExpression renders a metadata filter as a Typesense
// filter_by expression, with keys sorted for determinism.
func buildFilterExpression(filter providers.MetadataFilter) string {
	if len(filter) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s:=%s", key, filter[key]))
	}
	return strings.Join(parts, " && ")
}

// documentFromHit rebuilds a normalized document from the raw hit map.
// Typesense returns numbers as float64.
func documentFromHit(doc map[string]interface{}) *entities.NormalizedDocument {
	str := func(key string) string {
		if v, ok := doc[key].(string); ok {
			return v
		}
		return ""
	}

	metadata := entities.DocumentMetadata{
		IncidentID:      str("incident_id"),
		Category:        str("category"),
		Subcategory:     str("subcategory"),
		PriorityLevel:   str("priority_level"),
		Severity:        str("severity"),
		State:           str("state"),
		Team:            str("team"),
		YearMonth:       str("year_month"),
		Year:            str("year"),
		ResolutionHours: entities.ResolutionUnavailable,
	}
	if v, ok := doc["timestamp"].(float64); ok {
		metadata.Timestamp = int64(v)
	}
	if v, ok := doc["is_resolved"].(bool); ok {
		metadata.IsResolved = v
	}
	if v, ok := doc["resolution_hours"].(float64); ok {
		metadata.ResolutionHours = v
	}

	normalized := &entities.NormalizedDocument{
		ID:       str("id"),
		Content:  str("content"),
		Metadata: metadata,
	}
	if metadata.ResolutionHours >= 0 {
		hours := metadata.ResolutionHours
		normalized.ResolutionHours = &hours
	}
	return normalized
}
