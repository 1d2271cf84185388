package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics records image embedding calls per model provider (clip, http, mock).
type EmbeddingMetrics interface {
	RecordEmbedding(ctx context.Context, provider, status string, duration time.Duration)
}

type embeddingMetrics struct {
	callMetrics
}

// NewEmbeddingMetrics creates EmbeddingMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	calls, err := newCallMetrics(meter, callMetricsSpec{
		counterName:   MetricNameEmbeddingCalls,
		counterDesc:   "Total image embedding calls by provider and status",
		histogramName: MetricNameEmbeddingDuration,
		// The first call after startup includes model loading.
		histogramDesc: "Image embedding duration (seconds) by provider, including preprocessing",
	})
	if err != nil {
		return nil, err
	}

	return &embeddingMetrics{calls}, nil
}

func (e *embeddingMetrics) RecordEmbedding(ctx context.Context, provider, status string, duration time.Duration) {
	e.record(ctx, attribute.String(AttrProvider, NormalizeReason(provider, AllowedEmbeddingProviders)), status, duration)
}
