package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// callMetrics is a counter by (label, status) plus a latency histogram by label,
// the pair behind every "calls to X" metric family.
type callMetrics struct {
	total   metric.Int64Counter
	latency metric.Float64Histogram
}

type callMetricsSpec struct {
	counterName   string
	counterDesc   string
	histogramName string
	histogramDesc string
}

func newCallMetrics(meter metric.Meter, spec callMetricsSpec) (callMetrics, error) {
	total, err := meter.Int64Counter(spec.counterName, metric.WithDescription(spec.counterDesc))
	if err != nil {
		return callMetrics{}, fmt.Errorf("create %s counter: %w", spec.counterName, err)
	}

	latency, err := meter.Float64Histogram(
		spec.histogramName,
		metric.WithDescription(spec.histogramDesc),
		metric.WithUnit("s"),
	)
	if err != nil {
		return callMetrics{}, fmt.Errorf("create %s histogram: %w", spec.histogramName, err)
	}

	return callMetrics{total: total, latency: latency}, nil
}

// record expects label already normalized; status is normalized here.
func (c callMetrics) record(ctx context.Context, label attribute.KeyValue, status string, duration time.Duration) {
	c.total.Add(ctx, 1, metric.WithAttributes(label, attribute.String(AttrStatus, NormalizeStatus(status))))
	c.latency.Record(ctx, duration.Seconds(), metric.WithAttributes(label))
}
