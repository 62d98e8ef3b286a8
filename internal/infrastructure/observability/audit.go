package observability

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewAuditLogger returns the append-only PII audit logger. Every event
// carries the entity category and confidence, never the matched text.
func NewAuditLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return zerolog.New(w).With().
		Timestamp().
		Str("log", "pii_audit").
		Logger()
}

// OpenAuditFile opens (or creates) the audit log file for appending.
func OpenAuditFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
