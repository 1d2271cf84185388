package embeddings

import (
	"context"
	"image"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbricks/lookalike/internal/observability"
)

// Instrumented records a span and an embedding metric for every call to the wrapped Client.
type Instrumented struct {
	inner    Client
	provider string
	metrics  observability.EmbeddingMetrics
}

// Ensure Instrumented implements Client interface
var _ Client = (*Instrumented)(nil)

// NewInstrumented wraps inner; provider labels its spans and metrics. metrics may be nil.
func NewInstrumented(inner Client, provider string, metrics observability.EmbeddingMetrics) *Instrumented {
	return &Instrumented{inner: inner, provider: provider, metrics: metrics}
}

// EmbedImage implements Client.
func (i *Instrumented) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	ctx, span := observability.Tracer().Start(ctx, "embeddings.EmbedImage",
		trace.WithAttributes(attribute.String("embedding.provider", i.provider)))
	defer span.End()

	if img != nil {
		b := img.Bounds()
		span.SetAttributes(attribute.Int("image.width", b.Dx()), attribute.Int("image.height", b.Dy()))
	}

	start := time.Now()
	vec, err := i.inner.EmbedImage(ctx, img)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if i.metrics != nil {
		i.metrics.RecordEmbedding(ctx, i.provider, observability.StatusOf(err), time.Since(start))
	}

	return vec, err
}

// Dimension implements Client.
func (i *Instrumented) Dimension() int {
	return i.inner.Dimension()
}
