package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAnswer_ParagraphBreaks(t *testing.T) {
	formatted := FormatAnswer("First paragraph.\n\nSecond paragraph.")
	assert.Equal(t, "First paragraph.<br><br>Second paragraph.", formatted)
}

func TestFormatAnswer_BulletBreaks(t *testing.T) {
	formatted := FormatAnswer("Causes: • bad cable • loose port")
	assert.Equal(t, "Causes: <br>• bad cable <br>• loose port", formatted)
}

func TestFormatAnswer_EnumeratedBreaks(t *testing.T) {
	formatted := FormatAnswer("Steps: 1. restart 2. verify")
	assert.Equal(t, "Steps: <br>1. restart <br>2. verify", formatted)
}

func TestFormatAnswer_DecimalNumbersUntouched(t *testing.T) {
	formatted := FormatAnswer("Average resolution was 12.5 hours")
	assert.Equal(t, "Average resolution was 12.5 hours", formatted)
}

func TestFormatAnswer_TablePassthrough(t *testing.T) {
	answer := "<table><tr><td>INC0001</td></tr></table>\n\nextra"
	assert.Equal(t, answer, FormatAnswer(answer))
}

func TestFormatAnswer_Idempotent(t *testing.T) {
	inputs := []string{
		"First paragraph.\n\nSecond paragraph.",
		"Causes: • bad cable • loose port",
		"Steps: 1. restart 2. verify",
		"plain answer with no markers",
	}
	for _, input := range inputs {
		once := FormatAnswer(input)
		assert.Equal(t, once, FormatAnswer(once), "input %q", input)
	}
}
