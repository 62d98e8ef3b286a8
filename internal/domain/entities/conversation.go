package entities

import "time"

// ConversationTurn is one completed (question, answer) exchange.
type ConversationTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TokenUsage holds token counts reported by the language model.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// QueryMetrics collects per-request counters. Created at request start,
// finalized at request end, reported with the response and discarded.
type QueryMetrics struct {
	startTime time.Time

	ResponseTime     time.Duration `json:"-"`
	TotalTokens      int           `json:"total_tokens"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Cost             float64       `json:"-"`
}

// NewQueryMetrics starts a metrics collection for one request.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{startTime: time.Now()}
}

// RecordUsage records token usage and the estimated cost.
func (m *QueryMetrics) RecordUsage(usage TokenUsage, cost float64) {
	m.PromptTokens += usage.PromptTokens
	m.CompletionTokens += usage.CompletionTokens
	m.TotalTokens += usage.TotalTokens
	m.Cost += cost
}

// Finalize stamps the elapsed wall time.
func (m *QueryMetrics) Finalize() {
	m.ResponseTime = time.Since(m.startTime)
}

// ChatAnswer is the structured result of one chat turn. Err describes a
// failed turn; Metrics always carries whatever was collected.
type ChatAnswer struct {
	Response string
	Metrics  *QueryMetrics
	Err      error
}

// RetrievalIntent is the classified purpose of a question, driving the
// retrieval document budget.
type RetrievalIntent struct {
	Name        string
	K           int
	Description string
}
