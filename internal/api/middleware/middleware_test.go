package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/opsdeck/incident-assistant/internal/infrastructure/observability"
)

func teapotHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestObservabilityMiddleware_RecordsRequestMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	metrics, err := observability.InitMetrics()
	require.NoError(t, err)

	handler := ObservabilityMiddleware(metrics)(teapotHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var count int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "http.server.request.count" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				count += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), count)
}

func TestObservabilityMiddleware_NilMetrics(t *testing.T) {
	handler := ObservabilityMiddleware(nil)(teapotHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	handler := LoggingMiddleware(zerolog.Nop())(teapotHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := CORSMiddleware(teapotHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSMiddleware_ConfiguredOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://ops.example.com, https://two.example.com")
	handler := CORSMiddleware(teapotHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://two.example.com")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://two.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	// Unlisted origins get no allow header.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
