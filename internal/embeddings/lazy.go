package embeddings

import (
	"context"
	"image"
	"io"
	"sync"
)

// Lazy constructs its underlying Client on first use and reuses it for the life of the
// process. A failed construction is not cached; the next call tries again.
type Lazy struct {
	dimensions int
	newClient  func() (Client, error)

	mu     sync.Mutex
	client Client
}

// Ensure Lazy implements Client interface
var _ Client = (*Lazy)(nil)

// NewLazy returns a Lazy that calls newClient at most once successfully.
func NewLazy(dimensions int, newClient func() (Client, error)) *Lazy {
	return &Lazy{dimensions: dimensions, newClient: newClient}
}

func (l *Lazy) get() (Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	client, err := l.newClient()
	if err != nil {
		return nil, err
	}

	l.client = client

	return client, nil
}

// EmbedImage implements Client.
func (l *Lazy) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	client, err := l.get()
	if err != nil {
		return nil, err
	}

	return client.EmbedImage(ctx, img)
}

// Dimension implements Client.
func (l *Lazy) Dimension() int {
	return l.dimensions
}

// Close closes the underlying client if it was constructed and is closable.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if closer, ok := l.client.(io.Closer); ok {
		l.client = nil

		return closer.Close()
	}

	return nil
}
