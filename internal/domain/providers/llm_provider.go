package providers

import (
	"context"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
)

// LLMProvider is the language-model boundary.
type LLMProvider interface {
	// Generate produces an answer for the prompt given the prior
	// conversation turns, and reports token usage.
	Generate(ctx context.Context, prompt string, history []entities.ConversationTurn) (string, entities.TokenUsage, error)

	// EstimateCost converts token usage into an estimated dollar cost
	// for the configured model.
	EstimateCost(usage entities.TokenUsage) float64

	// Model names the configured model, for metrics and logging.
	Model() string
}
