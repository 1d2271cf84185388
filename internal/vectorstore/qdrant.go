package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/internal/models"
)

// DefaultQdrantGRPCPort is used when the Qdrant URL has no port.
const DefaultQdrantGRPCPort = 6334

// QdrantStore talks to Qdrant over its gRPC API.
type QdrantStore struct {
	client *qdrant.Client
}

// Ensure QdrantStore implements ReadWriter interface
var _ ReadWriter = (*QdrantStore)(nil)

// ParseQdrantURL turns "http(s)://host[:port]" or "host[:port]" into a client config.
// https enables TLS; the port defaults to the gRPC port 6334.
func ParseQdrantURL(raw, apiKey string) (*qdrant.Config, error) {
	if raw == "" {
		return nil, errors.New("qdrant url is empty")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("qdrant url: unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("qdrant url %q has no host", raw)
	}

	port := DefaultQdrantGRPCPort

	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("qdrant url: invalid port %q", p)
		}
	}

	return &qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: u.Scheme == "https",
	}, nil
}

// NewQdrantStore creates a store for the Qdrant instance at rawURL.
func NewQdrantStore(rawURL, apiKey string) (*QdrantStore, error) {
	cfg, err := ParseQdrantURL(rawURL, apiKey)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, apperrors.NewUnavailableError("qdrant "+net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), err)
	}

	return &QdrantStore{client: client}, nil
}

// ListPage implements Store with a single scroll call.
func (s *QdrantStore) ListPage(ctx context.Context, collection string, pageSize int) ([]models.Record, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          qdrant.PtrOf(uint32(pageSize)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, qdrantError("scroll", collection, err)
	}

	records := make([]models.Record, 0, len(points))
	for _, p := range points {
		records = append(records, models.Record{
			ID:      pointIDString(p.GetId()),
			Payload: payloadFromQdrant(p.GetPayload()),
		})
	}

	return records, nil
}

// Recommend implements Store using the query API with a single positive example.
func (s *QdrantStore) Recommend(ctx context.Context, collection, seedID string, limit int) ([]models.Record, error) {
	query := qdrant.NewQueryRecommend(&qdrant.RecommendInput{
		Positive: []*qdrant.VectorInput{qdrant.NewVectorInputID(pointID(seedID))},
	})

	return s.query(ctx, "recommend", collection, query, limit)
}

// SearchByVector implements Store.
func (s *QdrantStore) SearchByVector(ctx context.Context, collection string, vector []float32, limit int) ([]models.Record, error) {
	return s.query(ctx, "search", collection, qdrant.NewQuery(vector...), limit)
}

func (s *QdrantStore) query(ctx context.Context, op, collection string, query *qdrant.Query, limit int) ([]models.Record, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          query,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, qdrantError(op, collection, err)
	}

	records := make([]models.Record, 0, len(points))
	for _, p := range points {
		records = append(records, models.Record{
			ID:      pointIDString(p.GetId()),
			Payload: payloadFromQdrant(p.GetPayload()),
			Score:   p.GetScore(),
		})
	}

	return records, nil
}

// EnsureCollection implements Writer.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return qdrantError("collection exists", collection, err)
	}

	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return qdrantError("create collection", collection, err)
	}

	return nil
}

// Upsert implements Writer and waits until the points are indexed.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))

	for _, r := range records {
		if len(r.Vector) == 0 {
			return apperrors.NewValidationError("vector", fmt.Sprintf("record %s has no vector", r.ID))
		}

		payload, err := qdrant.TryValueMap(r.Payload)
		if err != nil {
			return fmt.Errorf("record %s payload: %w", r.ID, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      pointID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return qdrantError("upsert", collection, err)
	}

	return nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// qdrantError maps gRPC status codes onto application errors.
func qdrantError(op, collection string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("qdrant %s on %s: %w", op, collection, err)
	}

	switch st.Code() {
	case codes.NotFound:
		return apperrors.NewNotFoundError("collection "+collection, fmt.Sprintf("qdrant %s on %s: %s", op, collection, st.Message()))
	case codes.InvalidArgument:
		// A missing seed point is reported as an invalid argument.
		if strings.Contains(strings.ToLower(st.Message()), "not found") {
			return apperrors.NewNotFoundError("point", fmt.Sprintf("qdrant %s on %s: %s", op, collection, st.Message()))
		}
	case codes.Unavailable, codes.DeadlineExceeded:
		return apperrors.NewUnavailableError("qdrant", err)
	}

	return fmt.Errorf("qdrant %s on %s: %w", op, collection, err)
}
