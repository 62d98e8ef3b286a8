package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
)

func TestSelect_ClassifiesQuestions(t *testing.T) {
	selector := NewStrategySelector()

	tests := []struct {
		question string
		intent   string
		k        int
	}{
		{"What patterns do you see in network incidents?", IntentAnalytical, 50},
		{"How many incidents were opened by the service desk?", IntentAnalytical, 50},
		{"Summarize the hardware failures", IntentAnalytical, 50},
		{"Incidents between January and March", IntentTemporal, 100},
		{"What happened during the maintenance window?", IntentTemporal, 100},
		{"Which category fails most often?", IntentCategory, 25},
		{"Anything like this VPN outage?", IntentCategory, 25},
		{"Show me the critical incidents", IntentPriority, 30},
		{"What are the urgent tickets right now?", IntentPriority, 30},
		{"How long did the database outage take?", IntentResolution, 40},
		{"Which team handles printer issues?", IntentTeam, 30},
		{"Tell me about the VPN outage", IntentDefault, 20},
		{"", IntentDefault, 20},
		{"   ", IntentDefault, 20},
	}

	for _, tc := range tests {
		intent, _ := selector.Select(tc.question)
		assert.Equal(t, tc.intent, intent.Name, "question %q", tc.question)
		assert.Equal(t, tc.k, intent.K, "question %q", tc.question)
	}
}

func TestSelect_TemporalBudgetForAllFromLastMonth(t *testing.T) {
	selector := NewStrategySelector()

	intent, _ := selector.Select("show me all incidents from last month")

	assert.Equal(t, IntentTemporal, intent.Name)
	assert.Equal(t, 100, intent.K)
}

func TestSelect_AnalyticalWinsOverPriority(t *testing.T) {
	selector := NewStrategySelector()

	// Mentions "critical" but asks for a trend; rule order decides.
	intent, hints := selector.Select("What is the trend for critical incidents?")

	assert.Equal(t, IntentAnalytical, intent.Name)
	assert.Nil(t, hints)
}

func TestSelect_FilterHints(t *testing.T) {
	selector := NewStrategySelector()

	_, priorityHints := selector.Select("urgent outage on the floor")
	assert.Equal(t, map[string]string{"severity": entities.SeverityHigh}, priorityHints)

	_, resolutionHints := selector.Select("how long until it was fixed")
	assert.Equal(t, map[string]string{"is_resolved": "true"}, resolutionHints)

	_, defaultHints := selector.Select("tell me about the outage")
	assert.Nil(t, defaultHints)
}

func TestSelect_CaseInsensitive(t *testing.T) {
	selector := NewStrategySelector()

	intent, _ := selector.Select("HOW MANY incidents came in TODAY?")

	assert.Equal(t, IntentAnalytical, intent.Name)
}
