package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	RetrievalCount  metric.Int64Counter
	RetrievedDocs   metric.Int64Histogram
	PIIFindingCount metric.Int64Counter
	TokensUsed      metric.Int64Counter
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace provider
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Shutdown function
	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/opsdeck/incident-assistant")

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retrievalCount, err := meter.Int64Counter(
		"retrieval.query.count",
		metric.WithDescription("Number of search index queries"),
	)
	if err != nil {
		return nil, err
	}

	retrievedDocs, err := meter.Int64Histogram(
		"retrieval.documents.count",
		metric.WithDescription("Documents retrieved per query"),
	)
	if err != nil {
		return nil, err
	}

	piiFindingCount, err := meter.Int64Counter(
		"pii.finding.count",
		metric.WithDescription("Accepted PII findings during ingestion"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"ai.tokens.total",
		metric.WithDescription("Total language model tokens consumed"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		RetrievalCount:  retrievalCount,
		RetrievedDocs:   retrievedDocs,
		PIIFindingCount: piiFindingCount,
		TokensUsed:      tokensUsed,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/opsdeck/incident-assistant")
	return tracer.Start(ctx, spanName)
}

// SetSpanAttributes adds attributes to a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request metric with attributes
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordRetrievalMetric records one search index query
func RecordRetrievalMetric(ctx context.Context, metrics *Metrics, queryType string, docs int) {
	attrs := []attribute.KeyValue{
		attribute.String("retrieval.query_type", queryType),
	}
	metrics.RetrievalCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RetrievedDocs.Record(ctx, int64(docs), metric.WithAttributes(attrs...))
}

// RecordTokenUsage records language model token consumption
func RecordTokenUsage(ctx context.Context, metrics *Metrics, model string, tokens int) {
	attrs := []attribute.KeyValue{
		attribute.String("ai.model", model),
	}
	metrics.TokensUsed.Add(ctx, int64(tokens), metric.WithAttributes(attrs...))
}

// RecordPIIFinding counts one accepted PII finding by entity category
func RecordPIIFinding(ctx context.Context, metrics *Metrics, entity string) {
	metrics.PIIFindingCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pii.entity", entity),
	))
}
