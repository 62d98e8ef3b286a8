package entities

import "time"

// Severity buckets derived from the incident priority label.
const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
	SeverityLow    = "Low"
)

// ResolutionUnavailable is the metadata sentinel used when resolution
// hours cannot be computed from the source record.
const ResolutionUnavailable = -1

// IncidentRecord is a single incident as read from the external feed.
// Records are immutable once read; timestamps stay in their raw string
// form because the feed is not consistent about layouts.
type IncidentRecord struct {
	Number           string
	Category         string
	Subcategory      string
	Impact           string
	Urgency          string
	Priority         string
	State            string
	OpenedAt         string
	ResolvedAt       string
	AssignmentGroup  string
	AssignedTo       string
	ShortDescription string
	Notes            string
}

// DocumentMetadata is the flattened, filterable metadata attached to a
// normalized document. Only primitive types so the search index can
// filter on every field.
type DocumentMetadata struct {
	IncidentID      string  `json:"incident_id"`
	Category        string  `json:"category"`
	Subcategory     string  `json:"subcategory"`
	PriorityLevel   string  `json:"priority_level"`
	Severity        string  `json:"severity"`
	State           string  `json:"state"`
	Team            string  `json:"team"`
	Timestamp       int64   `json:"timestamp"`
	YearMonth       string  `json:"year_month"`
	Year            string  `json:"year"`
	IsResolved      bool    `json:"is_resolved"`
	ResolutionHours float64 `json:"resolution_hours"`
}

// NormalizedDocument is the indexable form of one incident: a labeled
// text block plus flat metadata. Created once at ingestion and treated
// as immutable; re-ingestion replaces the document.
type NormalizedDocument struct {
	ID       string
	Content  string
	Metadata DocumentMetadata

	// ResolutionHours is nil when either timestamp is missing,
	// unparsable, or the incident resolved before it opened.
	ResolutionHours *float64

	IngestedAt time.Time
}
