package vectorstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/internal/observability"
)

// Instrumented records a span and a store metric for every call to the wrapped ReadWriter.
type Instrumented struct {
	inner   ReadWriter
	metrics observability.StoreMetrics
	tracer  trace.Tracer
}

// Ensure Instrumented implements ReadWriter interface
var _ ReadWriter = (*Instrumented)(nil)

// NewInstrumented wraps inner. metrics may be nil.
func NewInstrumented(inner ReadWriter, metrics observability.StoreMetrics) *Instrumented {
	return &Instrumented{inner: inner, metrics: metrics, tracer: observability.Tracer()}
}

func (i *Instrumented) start(ctx context.Context, op, collection string) (context.Context, func(error)) {
	ctx, span := i.tracer.Start(ctx, "vectorstore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.collection.name", collection)),
	)
	start := time.Now()

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()

		if i.metrics != nil {
			i.metrics.RecordStoreCall(ctx, op, observability.StatusOf(err), time.Since(start))
		}
	}
}

// ListPage implements Store.
func (i *Instrumented) ListPage(ctx context.Context, collection string, pageSize int) ([]models.Record, error) {
	ctx, done := i.start(ctx, "list_page", collection)
	records, err := i.inner.ListPage(ctx, collection, pageSize)
	done(err)

	return records, err
}

// Recommend implements Store.
func (i *Instrumented) Recommend(ctx context.Context, collection, seedID string, limit int) ([]models.Record, error) {
	ctx, done := i.start(ctx, "recommend", collection)
	records, err := i.inner.Recommend(ctx, collection, seedID, limit)
	done(err)

	return records, err
}

// SearchByVector implements Store.
func (i *Instrumented) SearchByVector(ctx context.Context, collection string, vector []float32, limit int) ([]models.Record, error) {
	ctx, done := i.start(ctx, "search_by_vector", collection)
	records, err := i.inner.SearchByVector(ctx, collection, vector, limit)
	done(err)

	return records, err
}

// EnsureCollection implements Writer.
func (i *Instrumented) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	ctx, done := i.start(ctx, "ensure_collection", collection)
	err := i.inner.EnsureCollection(ctx, collection, dimensions)
	done(err)

	return err
}

// Upsert implements Writer.
func (i *Instrumented) Upsert(ctx context.Context, collection string, records []models.Record) error {
	ctx, done := i.start(ctx, "upsert", collection)
	err := i.inner.Upsert(ctx, collection, records)
	done(err)

	return err
}

// Close implements Store.
func (i *Instrumented) Close() error {
	return i.inner.Close()
}
