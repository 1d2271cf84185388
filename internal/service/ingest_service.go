package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/formbricks/lookalike/internal/embeddings"
	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/internal/vectorstore"
)

// DefaultIngestBatchSize is how many records go into one upsert.
const DefaultIngestBatchSize = 32

// ingestTypes are the sniffed content types ingested; anything else is skipped.
var ingestTypes = []string{"image/jpeg", "image/png"}

// recordNamespace scopes the name-based UUIDs of ingested images.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/formbricks/lookalike/records"))

// RecordID returns the id an image is stored under: a SHA-1 UUID of its bytes,
// so re-ingesting the same file overwrites instead of duplicating.
func RecordID(data []byte) string {
	return uuid.NewSHA1(recordNamespace, data).String()
}

// IngestResult summarizes one ingest run.
type IngestResult struct {
	Ingested int
	Skipped  int
}

// IngestService embeds image files and writes them to a collection with a base64 payload,
// in the shape the browser reads back.
type IngestService struct {
	store      vectorstore.Writer
	embedder   embeddings.Client
	collection string
	batchSize  int
	logger     *slog.Logger
}

// IngestServiceParams configures IngestService. BatchSize <= 0 uses DefaultIngestBatchSize.
type IngestServiceParams struct {
	Store      vectorstore.Writer
	Embedder   embeddings.Client
	Collection string
	BatchSize  int
	Logger     *slog.Logger
}

// NewIngestService creates an IngestService.
func NewIngestService(p IngestServiceParams) *IngestService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultIngestBatchSize
	}

	return &IngestService{
		store:      p.Store,
		embedder:   p.Embedder,
		collection: p.Collection,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// IngestDir creates the collection if needed, then embeds every JPEG and PNG under root
// in lexical order. Files that are not images or fail to decode are skipped; embedding
// and store failures stop the run. Records already upserted stay in place.
func (s *IngestService) IngestDir(ctx context.Context, root string) (IngestResult, error) {
	var result IngestResult

	if err := s.store.EnsureCollection(ctx, s.collection, s.embedder.Dimension()); err != nil {
		return result, fmt.Errorf("ensure collection %s: %w", s.collection, err)
	}

	batch := make([]models.Record, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if err := s.store.Upsert(ctx, s.collection, batch); err != nil {
			return fmt.Errorf("upsert %d records: %w", len(batch), err)
		}

		result.Ingested += len(batch)
		s.logger.InfoContext(ctx, "batch stored", "collection", s.collection, "records", len(batch), "total", result.Ingested)
		batch = batch[:0]

		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		record, ok, err := s.record(ctx, root, path)
		if err != nil {
			return err
		}

		if !ok {
			result.Skipped++

			return nil
		}

		batch = append(batch, record)
		if len(batch) >= s.batchSize {
			return flush()
		}

		return nil
	})
	if err != nil {
		return result, fmt.Errorf("ingest %s: %w", root, err)
	}

	if err := flush(); err != nil {
		return result, err
	}

	return result, nil
}

// record reads and embeds one file. ok is false when the file is skipped.
func (s *IngestService) record(ctx context.Context, root, path string) (models.Record, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Record{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	if contentType := mimetype.Detect(data).String(); !slices.Contains(ingestTypes, contentType) {
		s.logger.DebugContext(ctx, "skipping non-image file", "path", path, "content_type", contentType)

		return models.Record{}, false, nil
	}

	img, err := embeddings.DecodeImage(data)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping undecodable image", "path", path, "error", err)

		return models.Record{}, false, nil
	}

	vector, err := s.embedder.EmbedImage(ctx, img)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.Record{}, false, err
		}

		return models.Record{}, false, fmt.Errorf("embed %s: %w", path, err)
	}

	name, err := filepath.Rel(root, path)
	if err != nil {
		name = filepath.Base(path)
	}

	record := models.NewImageRecord(RecordID(data), data, vector)
	record.Payload[models.PayloadKeyFilename] = filepath.ToSlash(name)

	return record, true, nil
}
