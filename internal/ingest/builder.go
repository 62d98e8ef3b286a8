package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/pii"
)

// Timestamp layouts the incident feed is known to use.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// DocumentBuilder turns incident records into normalized, indexable
// documents. Free-text notes pass through the PII engine; structured
// fields are covered by the engine's structural preservation rule.
type DocumentBuilder struct {
	engine *pii.Engine
}

// NewDocumentBuilder creates a builder using the given PII engine.
func NewDocumentBuilder(engine *pii.Engine) *DocumentBuilder {
	return &DocumentBuilder{engine: engine}
}

// Build derives a NormalizedDocument from one incident record, along
// with the PII findings accepted while anonymizing the notes.
// Malformed timestamps never fail the build; resolution hours simply
// become unavailable. The error is non-nil only when PII detection
// failed for the notes field; callers should skip the record rather
// than index un-anonymized text.
func (b *DocumentBuilder) Build(record entities.IncidentRecord) (*entities.NormalizedDocument, []pii.Finding, error) {
	notes := record.Notes
	var findings []pii.Finding
	if b.engine != nil {
		anonymized, accepted, err := b.engine.Anonymize(record.Notes)
		if err != nil {
			return nil, nil, err
		}
		notes = anonymized
		findings = accepted
	}

	openedAt, openedOK := parseTimestamp(record.OpenedAt)
	resolutionHours := computeResolutionHours(record.OpenedAt, record.ResolvedAt)
	severity := deriveSeverity(record.Priority)

	metadata := entities.DocumentMetadata{
		IncidentID:      record.Number,
		Category:        record.Category,
		Subcategory:     record.Subcategory,
		PriorityLevel:   priorityLevel(record.Priority),
		Severity:        severity,
		State:           record.State,
		Team:            record.AssignmentGroup,
		IsResolved:      strings.TrimSpace(record.ResolvedAt) != "",
		ResolutionHours: entities.ResolutionUnavailable,
	}
	if openedOK {
		metadata.Timestamp = openedAt.Unix()
		metadata.YearMonth = openedAt.Format("2006-01")
		metadata.Year = openedAt.Format("2006")
	}
	if resolutionHours != nil {
		metadata.ResolutionHours = *resolutionHours
	}

	return &entities.NormalizedDocument{
		ID:              record.Number,
		Content:         renderContent(record, notes, severity, resolutionHours),
		Metadata:        metadata,
		ResolutionHours: resolutionHours,
		IngestedAt:      time.Now().UTC(),
	}, findings, nil
}

// renderContent produces the labeled text block that gets embedded.
func renderContent(record entities.IncidentRecord, notes, severity string, resolutionHours *float64) string {
	resolutionLine := "Resolution Time: Not available"
	if resolutionHours != nil {
		resolutionLine = fmt.Sprintf("Resolution Time: %.2f hours", *resolutionHours)
	}

	var sb strings.Builder
	sb.WriteString("=== Incident Details ===\n")
	sb.WriteString("Incident Number: " + record.Number + "\n")
	sb.WriteString("Status: " + record.State + "\n\n")
	sb.WriteString("=== Classification ===\n")
	sb.WriteString("Category: " + record.Category + "\n")
	sb.WriteString("Subcategory: " + record.Subcategory + "\n\n")
	sb.WriteString("=== Priority Assessment ===\n")
	sb.WriteString("Impact: " + record.Impact + "\n")
	sb.WriteString("Urgency: " + record.Urgency + "\n")
	sb.WriteString("Priority: " + record.Priority + "\n")
	sb.WriteString("Overall Severity: " + severity + "\n\n")
	sb.WriteString("=== Timeline ===\n")
	sb.WriteString("Opened: " + record.OpenedAt + "\n")
	sb.WriteString("Resolved: " + record.ResolvedAt + "\n")
	sb.WriteString(resolutionLine + "\n\n")
	sb.WriteString("=== Support Details ===\n")
	sb.WriteString("Assignment Group: " + record.AssignmentGroup + "\n")
	sb.WriteString("Assigned To: " + record.AssignedTo + "\n\n")
	sb.WriteString("=== Description ===\n")
	sb.WriteString("Summary: " + record.ShortDescription + "\n\n")
	sb.WriteString("=== Detailed Notes ===\n")
	sb.WriteString(notes + "\n")
	return sb.String()
}

// deriveSeverity maps the ordinal priority label to a severity bucket.
// Malformed or missing labels land in Low; the mapping never errors.
func deriveSeverity(priority string) string {
	trimmed := strings.TrimSpace(priority)
	switch {
	case strings.HasPrefix(trimmed, "1"), strings.HasPrefix(trimmed, "2"):
		return entities.SeverityHigh
	case strings.HasPrefix(trimmed, "3"):
		return entities.SeverityMedium
	default:
		return entities.SeverityLow
	}
}

// priorityLevel extracts the leading ordinal from labels like
// "1 - Critical".
func priorityLevel(priority string) string {
	parts := strings.SplitN(strings.TrimSpace(priority), " - ", 2)
	return strings.TrimSpace(parts[0])
}

// computeResolutionHours returns nil when either timestamp is missing,
// unparsable, or the incident resolved before it opened.
func computeResolutionHours(openedAt, resolvedAt string) *float64 {
	opened, okOpened := parseTimestamp(openedAt)
	resolved, okResolved := parseTimestamp(resolvedAt)
	if !okOpened || !okResolved {
		return nil
	}
	if resolved.Before(opened) {
		return nil
	}
	hours := resolved.Sub(opened).Hours()
	return &hours
}

func parseTimestamp(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
