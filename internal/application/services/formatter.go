package services

import (
	"regexp"
	"strings"
)

// Display formatting for model answers. Tabular answers pass through
// untouched; plain text gets paragraph and list markers converted to
// line breaks. All rules are idempotent so reformatting an already
// formatted answer is a no-op.

var (
	// A bullet not already preceded by a break.
	bulletBreak = regexp.MustCompile(`(^|[^>])•`)

	// An enumerated marker "N. " not already preceded by a break and
	// not part of a decimal number.
	enumBreak = regexp.MustCompile(`(^|[^>0-9])([1-9])\. `)
)

// FormatAnswer converts a model answer into display-friendly HTML.
func FormatAnswer(answer string) string {
	if strings.Contains(answer, "<table>") {
		return answer
	}

	formatted := strings.ReplaceAll(answer, "\n\n", "<br><br>")
	formatted = bulletBreak.ReplaceAllString(formatted, "${1}<br>•")
	formatted = enumBreak.ReplaceAllString(formatted, "${1}<br>${2}. ")
	return formatted
}
