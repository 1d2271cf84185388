package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StoreMetrics records vector store calls by operation and status.
type StoreMetrics interface {
	RecordStoreCall(ctx context.Context, operation, status string, duration time.Duration)
}

type storeMetrics struct {
	callMetrics
}

// NewStoreMetrics creates StoreMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewStoreMetrics(meter metric.Meter) (StoreMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	calls, err := newCallMetrics(meter, callMetricsSpec{
		counterName:   MetricNameStoreCalls,
		counterDesc:   "Total vector store calls by operation and status",
		histogramName: MetricNameStoreCallDuration,
		histogramDesc: "Vector store call duration (seconds) by operation",
	})
	if err != nil {
		return nil, err
	}

	return &storeMetrics{calls}, nil
}

func (s *storeMetrics) RecordStoreCall(ctx context.Context, operation, status string, duration time.Duration) {
	s.record(ctx, attribute.String(AttrOperation, NormalizeReason(operation, AllowedStoreOperations)), status, duration)
}
