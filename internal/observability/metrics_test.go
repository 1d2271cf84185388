package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReason(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]bool
		expected string
	}{
		{"known store op", "recommend", AllowedStoreOperations, "recommend"},
		{"unknown store op", "delete", AllowedStoreOperations, "other"},
		{"known render mode", "upload", AllowedRenderModes, "upload"},
		{"empty render mode", "", AllowedRenderModes, "other"},
		{"known reject reason", "content_type", AllowedUploadRejectReasons, "content_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeReason(tt.input, tt.allowed))
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, NormalizeStatus("success"))
	assert.Equal(t, StatusError, NormalizeStatus("error"))
	assert.Equal(t, "other", NormalizeStatus("timeout"))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusOf(nil))
	assert.Equal(t, StatusError, StatusOf(errors.New("boom")))
}

func TestNewMetrics_nil_meter(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestNewMeterProvider_disabled(t *testing.T) {
	provider, handler, metrics, err := NewMeterProvider(context.Background(), MeterProviderConfig{})
	require.NoError(t, err)
	assert.Nil(t, provider)
	assert.Nil(t, handler)
	assert.Nil(t, metrics)
}

func TestNewMeterProvider_unknown_exporter(t *testing.T) {
	_, _, _, err := NewMeterProvider(context.Background(), MeterProviderConfig{Exporter: "statsd"})
	assert.Error(t, err)
}

func TestNewMeterProvider_prometheus(t *testing.T) {
	ctx := context.Background()

	provider, handler, metrics, err := NewMeterProvider(ctx, MeterProviderConfig{Exporter: MetricsExporterPrometheus})
	require.NoError(t, err)
	require.NotNil(t, handler)
	require.NotNil(t, metrics)
	t.Cleanup(func() { _ = ShutdownMeterProvider(ctx, provider) })

	metrics.Store.RecordStoreCall(ctx, "recommend", StatusSuccess, 20*time.Millisecond)
	metrics.Embedding.RecordEmbedding(ctx, "clip", StatusError, time.Second)
	metrics.Cache.RecordHit(ctx, CacheNameUploadEmbedding)
	metrics.Render.RecordRender(ctx, "initial", StatusSuccess, 50*time.Millisecond)
	metrics.API.RecordRequest(ctx, http.MethodGet, "/", "2xx", 10*time.Millisecond)
	metrics.API.RecordUploadRejected(ctx, "decode")
	metrics.API.RecordRequestBodyTooLarge(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"lookalike_store_calls_total",
		"lookalike_embedding_calls_total",
		"lookalike_cache_lookups_total",
		"lookalike_render_passes_total",
		"lookalike_http_requests_total",
		"lookalike_uploads_rejected_total",
		"lookalike_request_body_too_large_total",
	} {
		assert.Contains(t, string(body), name)
	}

	assert.Contains(t, string(body), `operation="recommend"`)
	assert.Contains(t, string(body), `result="hit"`)
	assert.Contains(t, string(body), `provider="clip"`)
	assert.Contains(t, string(body), `reason="decode"`)
	// Counter units must not leak into the exported names.
	assert.NotContains(t, string(body), "_ratio")
}
