package services

import (
	"strings"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
)

// Retrieval intent names.
const (
	IntentAnalytical = "analytical"
	IntentTemporal   = "temporal"
	IntentCategory   = "category"
	IntentPriority   = "priority"
	IntentResolution = "resolution"
	IntentTeam       = "team"
	IntentDefault    = "default"
)

const defaultRetrievalK = 20

// intentRule pairs a substring pattern set with a retrieval budget.
// Rules are evaluated in slice order; categories are not mutually
// exclusive, so the order is part of the contract (analytical wins over
// a question that also mentions "critical").
type intentRule struct {
	intent      entities.RetrievalIntent
	patterns    []string
	filterHints map[string]string
}

var intentRules = []intentRule{
	{
		intent:   entities.RetrievalIntent{Name: IntentAnalytical, K: 50, Description: "Analytical query for patterns and trends"},
		patterns: []string{"pattern", "trend", "how many", "count", "list", "analyze", "summarize"},
	},
	{
		intent:   entities.RetrievalIntent{Name: IntentTemporal, K: 100, Description: "Temporal analysis query"},
		patterns: []string{"between", "from", "to", "during", "within", "time frame", "last month", "this month"},
	},
	{
		intent:   entities.RetrievalIntent{Name: IntentCategory, K: 25, Description: "Category-based similarity query"},
		patterns: []string{"category", "type of", "similar to", "like this"},
	},
	{
		intent:      entities.RetrievalIntent{Name: IntentPriority, K: 30, Description: "Priority-based query"},
		patterns:    []string{"critical", "high priority", "urgent", "severity"},
		filterHints: map[string]string{"severity": entities.SeverityHigh},
	},
	{
		intent:      entities.RetrievalIntent{Name: IntentResolution, K: 40, Description: "Resolution time analysis"},
		patterns:    []string{"resolved", "resolution time", "how long", "duration"},
		filterHints: map[string]string{"is_resolved": "true"},
	},
	{
		intent:   entities.RetrievalIntent{Name: IntentTeam, K: 30, Description: "Team-based analysis"},
		patterns: []string{"team", "group", "assigned to", "handled by"},
	},
}

// StrategySelector classifies an incoming question into a retrieval
// intent with a document-count budget and optional metadata filter
// hints. Pure and side-effect free; it never touches the index.
type StrategySelector struct {
	rules []intentRule
}

// NewStrategySelector returns a selector with the built-in rule order.
func NewStrategySelector() *StrategySelector {
	return &StrategySelector{rules: intentRules}
}

// Select returns the retrieval intent for a question. Empty or
// unmatched questions get the default budget.
func (s *StrategySelector) Select(question string) (entities.RetrievalIntent, map[string]string) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return defaultIntent(), nil
	}

	for _, rule := range s.rules {
		for _, pattern := range rule.patterns {
			if strings.Contains(q, pattern) {
				return rule.intent, rule.filterHints
			}
		}
	}
	return defaultIntent(), nil
}

func defaultIntent() entities.RetrievalIntent {
	return entities.RetrievalIntent{
		Name:        IntentDefault,
		K:           defaultRetrievalK,
		Description: "Default retrieval",
	}
}
