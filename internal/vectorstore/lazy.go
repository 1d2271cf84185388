package vectorstore

import (
	"context"
	"sync"

	"github.com/formbricks/lookalike/internal/models"
)

// Lazy opens its backend on first use and reuses the connection afterwards.
// A failed open is not remembered; the next call tries again.
type Lazy struct {
	open func(ctx context.Context) (ReadWriter, error)

	mu    sync.Mutex
	store ReadWriter
}

// Ensure Lazy implements ReadWriter interface
var _ ReadWriter = (*Lazy)(nil)

// NewLazy returns a Lazy around open.
func NewLazy(open func(ctx context.Context) (ReadWriter, error)) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get(ctx context.Context) (ReadWriter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}

	store, err := l.open(ctx)
	if err != nil {
		return nil, err
	}

	l.store = store

	return store, nil
}

// ListPage implements Store.
func (l *Lazy) ListPage(ctx context.Context, collection string, pageSize int) ([]models.Record, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}

	return s.ListPage(ctx, collection, pageSize)
}

// Recommend implements Store.
func (l *Lazy) Recommend(ctx context.Context, collection, seedID string, limit int) ([]models.Record, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}

	return s.Recommend(ctx, collection, seedID, limit)
}

// SearchByVector implements Store.
func (l *Lazy) SearchByVector(ctx context.Context, collection string, vector []float32, limit int) ([]models.Record, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}

	return s.SearchByVector(ctx, collection, vector, limit)
}

// EnsureCollection implements Writer.
func (l *Lazy) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}

	return s.EnsureCollection(ctx, collection, dimensions)
}

// Upsert implements Writer.
func (l *Lazy) Upsert(ctx context.Context, collection string, records []models.Record) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}

	return s.Upsert(ctx, collection, records)
}

// Close closes the backend if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store == nil {
		return nil
	}

	err := l.store.Close()
	l.store = nil

	return err
}
