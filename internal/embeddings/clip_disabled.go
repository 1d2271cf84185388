//go:build !onnx

package embeddings

import (
	"context"
	"image"
)

// CLIPModelFile is the visual tower expected inside the model directory.
const CLIPModelFile = "clip_visual.onnx"

// CLIPClient is unavailable in builds without the onnx tag.
type CLIPClient struct{}

// NewCLIPClient always fails with ErrONNXDisabled.
func NewCLIPClient(_, _ string, _ int) (*CLIPClient, error) {
	return nil, ErrONNXDisabled
}

// EmbedImage implements Client.
func (c *CLIPClient) EmbedImage(context.Context, image.Image) ([]float32, error) {
	return nil, ErrONNXDisabled
}

// Dimension implements Client.
func (c *CLIPClient) Dimension() int { return 0 }

// Close implements io.Closer.
func (c *CLIPClient) Close() error { return nil }
