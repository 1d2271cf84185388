package embeddings

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/time/rate"
)

// RateLimited caps the number of inference calls per second made through a Client.
type RateLimited struct {
	inner   Client
	limiter *rate.Limiter
}

// Ensure RateLimited implements Client interface
var _ Client = (*RateLimited)(nil)

// WithRateLimit wraps inner so at most perSecond calls start each second.
// A non-positive perSecond returns inner unchanged.
func WithRateLimit(inner Client, perSecond float64) Client {
	if perSecond <= 0 {
		return inner
	}

	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// EmbedImage waits for a token, then delegates.
func (r *RateLimited) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for embedding rate limit: %w", err)
	}

	return r.inner.EmbedImage(ctx, img)
}

// Dimension implements Client.
func (r *RateLimited) Dimension() int {
	return r.inner.Dimension()
}
