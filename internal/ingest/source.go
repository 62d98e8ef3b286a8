package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
)

// RecordSource iterates incident records from an external feed. The
// pipeline is agnostic to the underlying format.
type RecordSource interface {
	// Next returns the next record, or io.EOF when the feed is
	// exhausted. A non-EOF error refers to a single malformed record
	// and does not invalidate the source.
	Next() (entities.IncidentRecord, error)

	Close() error
}

// Feed column headers, as exported by the ticketing system.
const (
	colNumber           = "Number"
	colCategory         = "Category"
	colSubcategory      = "Subcategory"
	colImpact           = "Impact"
	colUrgency          = "Urgency"
	colPriority         = "Priority"
	colState            = "State"
	colOpenedAt         = "Opened At"
	colResolvedAt       = "Resolved At"
	colAssignmentGroup  = "Assignment Group"
	colAssignedTo       = "Assigned To"
	colShortDescription = "Short Description"
	colNotes            = "Notes"
)

// CSVSource reads incident records from a CSV export with a header row.
type CSVSource struct {
	file    *os.File
	reader  *csv.Reader
	columns map[string]int
}

// NewCSVSource opens the file and resolves the header row.
func NewCSVSource(path string) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to open incident feed", err)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, apperrors.NewConfigurationError("failed to read incident feed header", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns[colNumber]; !ok {
		file.Close()
		return nil, apperrors.NewConfigurationError("incident feed is missing the Number column", nil)
	}

	return &CSVSource{file: file, reader: reader, columns: columns}, nil
}

// Next reads one row. Malformed rows return an IngestionError so the
// pipeline can skip and continue.
func (s *CSVSource) Next() (entities.IncidentRecord, error) {
	row, err := s.reader.Read()
	if err == io.EOF {
		return entities.IncidentRecord{}, io.EOF
	}
	if err != nil {
		return entities.IncidentRecord{}, apperrors.NewIngestionError("malformed csv row", err)
	}

	field := func(name string) string {
		idx, ok := s.columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	record := entities.IncidentRecord{
		Number:           field(colNumber),
		Category:         field(colCategory),
		Subcategory:      field(colSubcategory),
		Impact:           field(colImpact),
		Urgency:          field(colUrgency),
		Priority:         field(colPriority),
		State:            field(colState),
		OpenedAt:         field(colOpenedAt),
		ResolvedAt:       field(colResolvedAt),
		AssignmentGroup:  field(colAssignmentGroup),
		AssignedTo:       field(colAssignedTo),
		ShortDescription: field(colShortDescription),
		Notes:            field(colNotes),
	}
	if record.Number == "" {
		return entities.IncidentRecord{}, apperrors.NewIngestionError("row has no incident number", nil)
	}
	return record, nil
}

// Close closes the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}
