package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
	"github.com/opsdeck/incident-assistant/pkg/config"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Per-million-token pricing used for cost estimation.
var modelPricing = map[string]struct {
	input  float64
	output float64
}{
	"gpt-4o-mini": {input: 0.15, output: 0.60},
	"gpt-4o":      {input: 2.50, output: 10.00},
}

// Client implements the language model provider against the OpenAI
// chat completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	limiter    *tokenBucket
}

var _ providers.LLMProvider = (*Client)(nil)

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		apiKey:    cfg.APIKey,
		model:     model,
		baseURL:   defaultBaseURL,
		maxTokens: 4096,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate answers a prompt given the prior conversation turns.
func (c *Client) Generate(ctx context.Context, prompt string, history []entities.ConversationTurn) (string, entities.TokenUsage, error) {
	var usage entities.TokenUsage

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordMetric(ctx, c.model, 0, 0, err)
			return "", usage, err
		}
		recordRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	messages := make([]chatMessage, 0, 2*len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: supportExpertSystemPrompt})
	for _, turn := range history {
		messages = append(messages, chatMessage{Role: "user", Content: turn.Question})
		messages = append(messages, chatMessage{Role: "assistant", Content: turn.Answer})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", usage, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", usage, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordMetric(ctx, c.model, 0, time.Since(start), err)
		return "", usage, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("openai request failed with status %d", resp.StatusCode)
		recordMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", usage, err
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", usage, err
	}
	if len(envelope.Choices) == 0 {
		err := errors.New("openai response has no choices")
		recordMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", usage, err
	}

	usage = entities.TokenUsage{
		PromptTokens:     envelope.Usage.PromptTokens,
		CompletionTokens: envelope.Usage.CompletionTokens,
		TotalTokens:      envelope.Usage.TotalTokens,
	}
	recordMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return envelope.Choices[0].Message.Content, usage, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Close stops the rate limiter's refill goroutine. Safe to call twice.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Close()
	}
}

// EstimateCost converts token usage into dollars for the configured
// model. Unknown models cost zero rather than guessing.
func (c *Client) EstimateCost(usage entities.TokenUsage) float64 {
	pricing, ok := modelPricing[c.model]
	if !ok {
		return 0
	}
	return float64(usage.PromptTokens)/1e6*pricing.input +
		float64(usage.CompletionTokens)/1e6*pricing.output
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
		stop:   make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case bucket.tokens <- struct{}{}:
				default:
				}
			case <-bucket.stop:
				return
			}
		}
	}()

	return bucket
}

type tokenBucket struct {
	tokens   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

func (b *tokenBucket) Close() {
	b.stopOnce.Do(func() { close(b.stop) })
}

type clientMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

// openaiMetricsReady is written only inside the Once.
var (
	openaiMetricsOnce  sync.Once
	openaiMetricsReady bool
	openaiMetrics      clientMetrics
)

func ensureMetrics() {
	openaiMetricsOnce.Do(initMetrics)
}

func initMetrics() {
	meter := otel.Meter("github.com/opsdeck/incident-assistant/openai")

	requestCount, err := meter.Int64Counter(
		"ai.openai.request.count",
		metric.WithDescription("Number of OpenAI requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.openai.request.duration",
		metric.WithDescription("OpenAI request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.openai.request.errors",
		metric.WithDescription("Number of OpenAI request errors"),
	)
	if err != nil {
		return
	}
	rateLimitWait, err := meter.Float64Histogram(
		"ai.openai.rate_limit.wait",
		metric.WithDescription("Time spent waiting for the OpenAI rate limiter in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}

	openaiMetrics = clientMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		rateLimitWait:   rateLimitWait,
	}
	openaiMetricsReady = true
}

func recordMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	ensureMetrics()
	if !openaiMetricsReady {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	openaiMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	openaiMetrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		openaiMetrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	ensureMetrics()
	if !openaiMetricsReady {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	openaiMetrics.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}
