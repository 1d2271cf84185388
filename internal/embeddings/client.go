// Package embeddings maps images to fixed-length, unit-norm vectors.
//
// The model itself is external: a CLIP visual tower run through ONNX Runtime
// (build tag "onnx"), or a remote inference endpoint. MockClient produces
// deterministic vectors for development and tests.
package embeddings

import (
	"context"
	"errors"
	"image"
)

// Client embeds one RGB image into a vector of length Dimension() with unit L2 norm.
// Implementations make exactly one inference call per EmbedImage and never retry on their own.
type Client interface {
	EmbedImage(ctx context.Context, img image.Image) ([]float32, error)
	Dimension() int
}

var (
	// ErrNilImage is returned when EmbedImage is called without an image.
	ErrNilImage = errors.New("embeddings: image is nil")
	// ErrDimensionMismatch is returned when the model output length does not match the configured dimension.
	ErrDimensionMismatch = errors.New("embeddings: embedding dimension mismatch")
	// ErrONNXDisabled is returned by NewCLIPClient in builds without the onnx tag.
	ErrONNXDisabled = errors.New("embeddings: built without onnx support (rebuild with -tags onnx)")
)
