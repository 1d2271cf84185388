package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"

	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/internal/embeddings"
	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/internal/observability"
	"github.com/formbricks/lookalike/internal/vectorstore"
	"github.com/formbricks/lookalike/pkg/cache"
)

// DefaultLimit is the number of records in the initial page and in every result set.
const DefaultLimit = 12

// ErrEmptyImage is returned by SearchByImage for an empty upload.
var ErrEmptyImage = errors.New("image is required and must be non-empty")

// SimilarityService runs the three lookups behind the browser against one collection:
// the initial page, recommendations for a record, and search by an uploaded image.
type SimilarityService struct {
	store        vectorstore.Store
	embedder     embeddings.Client
	collection   string
	limit        int
	uploadCache  *cache.LoaderCache[[sha256.Size]byte, []float32]
	cacheMetrics observability.CacheMetrics
	logger       *slog.Logger
}

// SimilarityServiceParams configures SimilarityService. UploadCacheSize <= 0 disables the
// upload embedding cache; CacheMetrics and Logger may be nil.
type SimilarityServiceParams struct {
	Store           vectorstore.Store
	Embedder        embeddings.Client
	Collection      string
	Limit           int
	UploadCacheSize int
	CacheMetrics    observability.CacheMetrics
	Logger          *slog.Logger
}

// NewSimilarityService creates a SimilarityService.
func NewSimilarityService(p SimilarityServiceParams) (*SimilarityService, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	s := &SimilarityService{
		store:        p.Store,
		embedder:     p.Embedder,
		collection:   p.Collection,
		limit:        limit,
		cacheMetrics: p.CacheMetrics,
		logger:       logger,
	}

	if p.UploadCacheSize > 0 {
		c, err := cache.NewLoaderCache[[sha256.Size]byte, []float32](p.UploadCacheSize, digestKey)
		if err != nil {
			return nil, fmt.Errorf("create upload embedding cache: %w", err)
		}

		s.uploadCache = c
	}

	return s, nil
}

// Collection returns the collection every lookup runs against.
func (s *SimilarityService) Collection() string {
	return s.collection
}

// Limit returns the page and result size.
func (s *SimilarityService) Limit() int {
	return s.limit
}

// InitialPage returns the first records of the collection in store order.
func (s *SimilarityService) InitialPage(ctx context.Context) ([]models.Record, error) {
	records, err := s.store.ListPage(ctx, s.collection, s.limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "initial page: list failed", "error", err, "collection", s.collection)

		return nil, fmt.Errorf("list page: %w", err)
	}

	return records, nil
}

// Similar returns the records the store ranks closest to seedID, excluding the seed.
func (s *SimilarityService) Similar(ctx context.Context, seedID string) ([]models.Record, error) {
	records, err := s.store.Recommend(ctx, s.collection, seedID, s.limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "similar: recommend failed", "error", err, "collection", s.collection, "seed_id", seedID)

		return nil, fmt.Errorf("recommend %s: %w", seedID, err)
	}

	return records, nil
}

// SearchByImage decodes and embeds data, then returns the records nearest to it.
func (s *SimilarityService) SearchByImage(ctx context.Context, data []byte) ([]models.Record, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	vector, err := s.uploadEmbedding(ctx, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "search by image: embedding failed", "error", err, "bytes", len(data))

		return nil, err
	}

	records, err := s.store.SearchByVector(ctx, s.collection, vector, s.limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "search by image: search failed", "error", err, "collection", s.collection)

		return nil, fmt.Errorf("search by vector: %w", err)
	}

	return records, nil
}

func (s *SimilarityService) embed(ctx context.Context, data []byte) ([]float32, error) {
	img, err := embeddings.DecodeImage(data)
	if err != nil {
		return nil, apperrors.NewValidationError("image", err.Error())
	}

	vector, err := s.embedder.EmbedImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}

	return vector, nil
}

// uploadEmbedding caches by content hash so redraws with the same pending upload
// do not run the model again.
func (s *SimilarityService) uploadEmbedding(ctx context.Context, data []byte) ([]float32, error) {
	if s.uploadCache == nil {
		return s.embed(ctx, data)
	}

	vector, hit, err := s.uploadCache.Load(ctx, sha256.Sum256(data), func(ctx context.Context) ([]float32, error) {
		return s.embed(ctx, data)
	})
	if err != nil {
		return nil, err
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, observability.CacheNameUploadEmbedding)
		} else {
			s.cacheMetrics.RecordMiss(ctx, observability.CacheNameUploadEmbedding)
		}
	}

	return vector, nil
}

func digestKey(sum [sha256.Size]byte) string {
	return string(sum[:])
}
