// Package vectorstore reads and writes image records in a vector database.
//
// Two backends implement the same interfaces: Qdrant over gRPC and PostgreSQL with
// the pgvector extension. Neither retries or degrades; every failure propagates.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/formbricks/lookalike/internal/models"
)

// Store is the read side used by the browser.
type Store interface {
	// ListPage returns up to pageSize records in store order, without vectors.
	ListPage(ctx context.Context, collection string, pageSize int) ([]models.Record, error)
	// Recommend returns up to limit records similar to seedID, best first. The seed itself is excluded.
	Recommend(ctx context.Context, collection, seedID string, limit int) ([]models.Record, error)
	// SearchByVector returns up to limit records nearest to vector, best first.
	SearchByVector(ctx context.Context, collection string, vector []float32, limit int) ([]models.Record, error)
	Close() error
}

// Writer is the write side used by ingestion.
type Writer interface {
	// EnsureCollection creates the collection for cosine vectors of the given size if it is missing.
	EnsureCollection(ctx context.Context, collection string, dimensions int) error
	// Upsert inserts records or replaces those with the same id. Every record needs a vector.
	Upsert(ctx context.Context, collection string, records []models.Record) error
}

// ReadWriter is implemented by every backend.
type ReadWriter interface {
	Store
	Writer
}

// Backend names accepted by Open.
const (
	BackendQdrant   = "qdrant"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend      string
	QdrantURL    string
	QdrantAPIKey string
	DatabaseURL  string
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (ReadWriter, error) {
	switch opts.Backend {
	case BackendQdrant:
		return NewQdrantStore(opts.QdrantURL, opts.QdrantAPIKey)
	case BackendPostgres:
		return NewPostgresStore(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", opts.Backend)
	}
}
