//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/incident-assistant/internal/adapters/search"
	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/clients/typesense"
	"github.com/opsdeck/incident-assistant/pkg/config"
)

func TestTypesenseAdapter(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("TEST_TYPESENSE_URL") == "" {
		t.Skip("Skipping integration test: TEST_TYPESENSE_URL not set")
	}

	cfg := &config.TypesenseConfig{
		URL:    os.Getenv("TEST_TYPESENSE_URL"),
		APIKey: getEnv("TEST_TYPESENSE_API_KEY", "xyz"),
	}

	client, err := typesense.NewClient(cfg)
	require.NoError(t, err)

	adapter := search.NewTypesenseAdapter(client)
	ctx := context.Background()

	// Start from a clean collection.
	require.NoError(t, adapter.Rebuild(ctx))

	hours := 6.5
	docs := []*entities.NormalizedDocument{
		{
			ID:      "INC0000001",
			Content: "=== Incident Details ===\nVPN tunnel flapping, [PERSON] reported packet loss.",
			Metadata: entities.DocumentMetadata{
				IncidentID:      "INC0000001",
				Category:        "Network",
				Subcategory:     "VPN",
				PriorityLevel:   "2",
				Severity:        entities.SeverityHigh,
				State:           "Resolved",
				Team:            "Network Ops",
				Timestamp:       time.Now().Unix(),
				YearMonth:       "2024-03",
				Year:            "2024",
				IsResolved:      true,
				ResolutionHours: hours,
			},
			ResolutionHours: &hours,
			IngestedAt:      time.Now().UTC(),
		},
		{
			ID:      "INC0000002",
			Content: "=== Incident Details ===\nPrinter offline on the third floor.",
			Metadata: entities.DocumentMetadata{
				IncidentID:      "INC0000002",
				Category:        "Hardware",
				Subcategory:     "Printer",
				PriorityLevel:   "4",
				Severity:        entities.SeverityLow,
				State:           "In Progress",
				Team:            "Desktop Support",
				Timestamp:       time.Now().Unix(),
				YearMonth:       "2024-03",
				Year:            "2024",
				IsResolved:      false,
				ResolutionHours: entities.ResolutionUnavailable,
			},
			IngestedAt: time.Now().UTC(),
		},
	}
	require.NoError(t, adapter.Upsert(ctx, docs))

	// Allow some time for indexing
	time.Sleep(1 * time.Second)

	results, err := adapter.Query(ctx, "VPN tunnel", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "INC0000001", results[0].ID)

	// Metadata filter narrows the result set.
	filtered, err := adapter.Query(ctx, "incident", 10, providers.MetadataFilter{"severity": entities.SeverityHigh})
	require.NoError(t, err)
	for _, doc := range filtered {
		assert.Equal(t, entities.SeverityHigh, doc.Metadata.Severity)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
