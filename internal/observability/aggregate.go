package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric interfaces for the app. When metrics are disabled, use nil.
// Components that accept an interface (StoreMetrics, EmbeddingMetrics, CacheMetrics, RenderMetrics,
// APIMetrics) can receive the corresponding field; they already handle nil.
type Metrics struct {
	Store     StoreMetrics
	Embedding EmbeddingMetrics
	Cache     CacheMetrics
	Render    RenderMetrics
	API       APIMetrics
}

// NewMetrics creates every metric group from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	store, err := NewStoreMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("store metrics: %w", err)
	}

	embedding, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	render, err := NewRenderMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("render metrics: %w", err)
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	return &Metrics{
		Store:     store,
		Embedding: embedding,
		Cache:     cache,
		Render:    render,
		API:       api,
	}, nil
}
