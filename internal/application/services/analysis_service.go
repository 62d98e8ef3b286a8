package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
	"github.com/opsdeck/incident-assistant/pkg/retry"
)

const analysisPromptTemplate = `Analyze the following IT support incident and provide insights:

Incident Number: %s
Category: %s
Subcategory: %s
Impact: %s
Urgency: %s
Priority: %s
State: %s
Description: %s

Please provide:
1. Root cause analysis
2. Suggested resolution steps
3. Prevention recommendations
`

// AnalysisService produces a one-shot expert analysis of a single
// incident, independent of any conversation session.
type AnalysisService struct {
	llm     providers.LLMProvider
	timeout time.Duration
	logger  zerolog.Logger
}

// NewAnalysisService creates the analysis service.
func NewAnalysisService(llm providers.LLMProvider, timeout time.Duration, logger zerolog.Logger) *AnalysisService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnalysisService{llm: llm, timeout: timeout, logger: logger}
}

// Analyze renders the RCA prompt for one incident and calls the model.
func (s *AnalysisService) Analyze(ctx context.Context, record entities.IncidentRecord) (string, *entities.QueryMetrics, error) {
	metrics := entities.NewQueryMetrics()
	prompt := fmt.Sprintf(analysisPromptTemplate,
		record.Number,
		record.Category,
		record.Subcategory,
		record.Impact,
		record.Urgency,
		record.Priority,
		record.State,
		record.ShortDescription,
	)

	var answer string
	err := retry.Do(ctx, retry.GenerationConfig(3*s.timeout), func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		result, usage, err := s.llm.Generate(callCtx, prompt, nil)
		if err != nil {
			return err
		}
		answer = result
		metrics.RecordUsage(usage, s.llm.EstimateCost(usage))
		return nil
	})
	metrics.Finalize()
	if err != nil {
		return "", metrics, apperrors.NewGenerationError("incident analysis failed", err)
	}
	return answer, metrics, nil
}
