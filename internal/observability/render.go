package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RenderMetrics records page render passes.
type RenderMetrics interface {
	RecordRender(ctx context.Context, mode, status string, duration time.Duration)
}

type renderMetrics struct {
	callMetrics
}

// NewRenderMetrics creates RenderMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRenderMetrics(meter metric.Meter) (RenderMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	passes, err := newCallMetrics(meter, callMetricsSpec{
		counterName:   MetricNameRenderPasses,
		counterDesc:   "Page render passes by mode (initial, similar, upload) and status",
		histogramName: MetricNameRenderDuration,
		histogramDesc: "Render pass duration (seconds) by mode, including store and embedding calls",
	})
	if err != nil {
		return nil, err
	}

	return &renderMetrics{passes}, nil
}

func (r *renderMetrics) RecordRender(ctx context.Context, mode, status string, duration time.Duration) {
	r.record(ctx, attribute.String(AttrMode, NormalizeReason(mode, AllowedRenderModes)), status, duration)
}
