package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
	"github.com/opsdeck/incident-assistant/internal/infrastructure/observability"
	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
	"github.com/opsdeck/incident-assistant/pkg/retry"
)

// OrchestratorConfig bounds the external calls made per turn.
type OrchestratorConfig struct {
	RetrievalTimeout   time.Duration
	GenerationTimeout  time.Duration
	MaxHistoryTurns    int
	ContextBudgetChars int
}

// Orchestrator runs one chat turn end to end: select a retrieval
// strategy, query the index, assemble the prompt, call the model,
// format the answer, and record usage metrics. Turns for the same
// session are serialized; different sessions run in parallel.
type Orchestrator struct {
	selector *StrategySelector
	store    providers.VectorStore
	llm      providers.LLMProvider
	sessions *SessionManager
	cfg      OrchestratorConfig
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewOrchestrator wires the conversation orchestrator. metrics may be nil.
func NewOrchestrator(selector *StrategySelector, store providers.VectorStore, llm providers.LLMProvider, sessions *SessionManager, cfg OrchestratorConfig, metrics *observability.Metrics, logger zerolog.Logger) *Orchestrator {
	if cfg.RetrievalTimeout <= 0 {
		cfg.RetrievalTimeout = 10 * time.Second
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	if cfg.ContextBudgetChars <= 0 {
		cfg.ContextBudgetChars = 480000
	}
	return &Orchestrator{
		selector: selector,
		store:    store,
		llm:      llm,
		sessions: sessions,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Ask answers one question within a session. It always returns a
// structured answer: on a failed turn the answer carries the error and
// whatever metrics were collected, and the session history is left
// exactly as it was before the turn.
func (o *Orchestrator) Ask(ctx context.Context, sessionID, question string) *entities.ChatAnswer {
	metrics := entities.NewQueryMetrics()
	session := o.sessions.Get(ctx, sessionID)

	session.mu.Lock()
	defer session.mu.Unlock()

	answer := o.runTurn(ctx, session, question, metrics)
	metrics.Finalize()
	answer.Metrics = metrics
	return answer
}

func (o *Orchestrator) runTurn(ctx context.Context, session *Session, question string, metrics *entities.QueryMetrics) *entities.ChatAnswer {
	intent, filterHints := o.selector.Select(question)
	o.logger.Info().
		Str("session", session.ID).
		Str("query_type", intent.Name).
		Int("k", intent.K).
		Msg("retrieval strategy selected")

	session.state = StateRetrieving
	docs, err := o.retrieve(ctx, question, intent.K, filterHints)
	if err != nil {
		session.state = StateFailed
		o.logger.Error().Err(err).Str("session", session.ID).Msg("retrieval failed")
		return &entities.ChatAnswer{
			Response: "Error: " + err.Error(),
			Err:      apperrors.NewRetrievalError("failed to retrieve incident context", err),
		}
	}
	if o.metrics != nil {
		observability.RecordRetrievalMetric(ctx, o.metrics, intent.Name, len(docs))
	}

	session.state = StateGenerating
	prompt, history := o.assemblePrompt(docs, session.History(), question)
	raw, usage, err := o.generate(ctx, prompt, history)
	metrics.RecordUsage(usage, o.llm.EstimateCost(usage))
	if o.metrics != nil && usage.TotalTokens > 0 {
		observability.RecordTokenUsage(ctx, o.metrics, o.llm.Model(), usage.TotalTokens)
	}
	if err != nil {
		session.state = StateFailed
		o.logger.Error().Err(err).Str("session", session.ID).Msg("generation failed")
		return &entities.ChatAnswer{
			Response: "Error: " + err.Error(),
			Err:      apperrors.NewGenerationError("language model call failed", err),
		}
	}

	formatted := o.formatAnswer(raw)

	session.appendTurn(entities.ConversationTurn{Question: question, Answer: raw})
	o.sessions.persist(ctx, session)
	session.state = StateDone

	return &entities.ChatAnswer{Response: formatted}
}

// retrieve queries the index with a request-scoped timeout and a single
// retry for transient failures.
func (o *Orchestrator) retrieve(ctx context.Context, question string, k int, filterHints map[string]string) ([]*entities.NormalizedDocument, error) {
	var docs []*entities.NormalizedDocument
	err := retry.Do(ctx, retry.SingleRetryConfig(2*o.cfg.RetrievalTimeout), func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.RetrievalTimeout)
		defer cancel()
		result, err := o.store.Query(callCtx, question, k, providers.MetadataFilter(filterHints))
		if err != nil {
			return err
		}
		docs = result
		return nil
	})
	return docs, err
}

// generate calls the model with bounded backoff retries.
func (o *Orchestrator) generate(ctx context.Context, prompt string, history []entities.ConversationTurn) (string, entities.TokenUsage, error) {
	var answer string
	var usage entities.TokenUsage
	err := retry.DoWithLog(ctx, retry.GenerationConfig(3*o.cfg.GenerationTimeout), "generation", func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
		defer cancel()
		result, u, err := o.llm.Generate(callCtx, prompt, history)
		if err != nil {
			return err
		}
		answer = result
		usage = u
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		o.logger.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("generation attempt failed")
	})
	return answer, usage, err
}

// assemblePrompt merges the retrieved documents and the question into
// the prompt, and trims the conversation history to the context budget.
// Truncation drops the oldest turns first and never touches the
// retrieved documents or the current question.
func (o *Orchestrator) assemblePrompt(docs []*entities.NormalizedDocument, history []entities.ConversationTurn, question string) (string, []entities.ConversationTurn) {
	var sb strings.Builder
	sb.WriteString("Knowledge Base Context:\n")
	for _, doc := range docs {
		sb.WriteString(doc.Content)
		sb.WriteString("\n---\n")
	}
	sb.WriteString("\nCurrent Question: ")
	sb.WriteString(question)
	prompt := sb.String()

	if o.cfg.MaxHistoryTurns > 0 && len(history) > o.cfg.MaxHistoryTurns {
		history = history[len(history)-o.cfg.MaxHistoryTurns:]
	}

	budget := o.cfg.ContextBudgetChars - len(prompt)
	for len(history) > 0 {
		size := 0
		for _, turn := range history {
			size += len(turn.Question) + len(turn.Answer)
		}
		if size <= budget {
			break
		}
		history = history[1:]
	}
	return prompt, history
}

// formatAnswer applies display formatting; a formatting failure falls
// back to the raw answer rather than failing the turn.
func (o *Orchestrator) formatAnswer(raw string) (formatted string) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewFormattingError("answer formatting failed", fmt.Errorf("%v", r))
			o.logger.Warn().Err(err).Msg("returning unformatted answer")
			formatted = raw
		}
	}()
	return FormatAnswer(raw)
}
