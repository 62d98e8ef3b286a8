package ingest

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/pii"
)

func testRecord() entities.IncidentRecord {
	return entities.IncidentRecord{
		Number:           "INC0010001",
		Category:         "Network",
		Subcategory:      "VPN",
		Impact:           "2 - Medium",
		Urgency:          "2 - Medium",
		Priority:         "2 - High",
		State:            "Resolved",
		OpenedAt:         "2024-03-10 08:00:00",
		ResolvedAt:       "2024-03-10 14:30:00",
		AssignmentGroup:  "Network Ops",
		AssignedTo:       "jdoe",
		ShortDescription: "VPN tunnel flapping",
		Notes:            "Tunnel restarted, reported by John Smith via jsmith@corp.example.org",
	}
}

func newTestBuilder(t *testing.T) *DocumentBuilder {
	t.Helper()
	engine, err := pii.NewEngine(pii.DefaultPolicy(), zerolog.Nop(), zerolog.Nop())
	require.NoError(t, err)
	return NewDocumentBuilder(engine)
}

func TestBuild_AnonymizesNotes(t *testing.T) {
	builder := newTestBuilder(t)

	doc, findings, err := builder.Build(testRecord())

	require.NoError(t, err)
	assert.NotEmpty(t, findings)
	assert.NotContains(t, doc.Content, "John Smith")
	assert.NotContains(t, doc.Content, "jsmith@corp.example.org")
	assert.Contains(t, doc.Content, "[PERSON]")
	assert.Contains(t, doc.Content, "[EMAIL]")
	// Structured fields survive untouched.
	assert.Contains(t, doc.Content, "INC0010001")
	assert.Contains(t, doc.Content, "Category: Network")
}

func TestBuild_ResolutionHours(t *testing.T) {
	builder := NewDocumentBuilder(nil)

	doc, _, err := builder.Build(testRecord())

	require.NoError(t, err)
	require.NotNil(t, doc.ResolutionHours)
	assert.InDelta(t, 6.5, *doc.ResolutionHours, 1e-9)
	assert.InDelta(t, 6.5, doc.Metadata.ResolutionHours, 1e-9)
	assert.True(t, doc.Metadata.IsResolved)
	assert.Contains(t, doc.Content, "Resolution Time: 6.50 hours")
}

func TestBuild_UnresolvedIncident(t *testing.T) {
	builder := NewDocumentBuilder(nil)
	record := testRecord()
	record.ResolvedAt = ""
	record.State = "In Progress"

	doc, _, err := builder.Build(record)

	require.NoError(t, err)
	assert.Nil(t, doc.ResolutionHours)
	assert.Equal(t, float64(entities.ResolutionUnavailable), doc.Metadata.ResolutionHours)
	assert.False(t, doc.Metadata.IsResolved)
	assert.Contains(t, doc.Content, "Resolution Time: Not available")
}

func TestBuild_ResolvedBeforeOpened(t *testing.T) {
	builder := NewDocumentBuilder(nil)
	record := testRecord()
	record.OpenedAt = "2024-03-10 14:30:00"
	record.ResolvedAt = "2024-03-10 08:00:00"

	doc, _, err := builder.Build(record)

	require.NoError(t, err)
	assert.Nil(t, doc.ResolutionHours)
	// The record still gets indexed; resolution is flagged because the
	// resolved timestamp is present, even if unusable for duration math.
	assert.True(t, doc.Metadata.IsResolved)
}

func TestBuild_MalformedTimestampNeverFails(t *testing.T) {
	builder := NewDocumentBuilder(nil)
	record := testRecord()
	record.OpenedAt = "not a date"

	doc, _, err := builder.Build(record)

	require.NoError(t, err)
	assert.Nil(t, doc.ResolutionHours)
	assert.Zero(t, doc.Metadata.Timestamp)
	assert.Empty(t, doc.Metadata.YearMonth)
}

func TestBuild_TemporalMetadata(t *testing.T) {
	builder := NewDocumentBuilder(nil)

	doc, _, err := builder.Build(testRecord())

	require.NoError(t, err)
	assert.Equal(t, "2024-03", doc.Metadata.YearMonth)
	assert.Equal(t, "2024", doc.Metadata.Year)
	assert.NotZero(t, doc.Metadata.Timestamp)
}

func TestDeriveSeverity(t *testing.T) {
	tests := []struct {
		priority string
		expected string
	}{
		{"1 - Critical", entities.SeverityHigh},
		{"2 - High", entities.SeverityHigh},
		{"3 - Moderate", entities.SeverityMedium},
		{"4 - Low", entities.SeverityLow},
		{"5 - Planning", entities.SeverityLow},
		{"", entities.SeverityLow},
		{"garbage", entities.SeverityLow},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, deriveSeverity(tc.priority), "priority %q", tc.priority)
	}
}

func TestPriorityLevel(t *testing.T) {
	assert.Equal(t, "1", priorityLevel("1 - Critical"))
	assert.Equal(t, "4", priorityLevel(" 4 - Low "))
	assert.Equal(t, "oddball", priorityLevel("oddball"))
	assert.Equal(t, "", priorityLevel(""))
}

func TestParseTimestamp_AcceptedLayouts(t *testing.T) {
	for _, value := range []string{
		"2024-03-10T08:00:00Z",
		"2024-03-10 08:00:00",
		"2024-03-10T08:00:00",
		"2024-03-10",
		"03/10/2024 08:00:00",
		"03/10/2024 08:00",
		"03/10/2024",
	} {
		_, ok := parseTimestamp(value)
		assert.True(t, ok, "layout for %q", value)
	}

	_, ok := parseTimestamp("10th of March")
	assert.False(t, ok)
}
