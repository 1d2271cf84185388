package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/pkg/database"
)

// pgUndefinedTable is the SQLSTATE for a missing relation.
const pgUndefinedTable = "42P01"

// PostgresStore keeps each collection in its own table:
// seq (insertion order), id, payload jsonb and embedding vector(n).
// Similarity is cosine (pgvector <=>), score = 1 - distance.
type PostgresStore struct {
	db *pgxpool.Pool
}

// Ensure PostgresStore implements ReadWriter interface
var _ ReadWriter = (*PostgresStore)(nil)

// NewPostgresStore creates the vector extension if needed and opens a pool with the
// pgvector types registered.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if err := database.EnsureExtension(ctx, databaseURL, "vector"); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, fmt.Errorf("prepare pgvector: %w", err)
		}

		return nil, apperrors.NewUnavailableError("postgres", err)
	}

	pool, err := database.NewPostgresPool(ctx, databaseURL, database.WithVectorTypes())
	if err != nil {
		return nil, apperrors.NewUnavailableError("postgres", err)
	}

	return NewPostgresStoreFromPool(pool), nil
}

// NewPostgresStoreFromPool wraps an existing pool. The pool must have the pgvector types registered.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func tableName(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}

// ListPage implements Store.
func (s *PostgresStore) ListPage(ctx context.Context, collection string, pageSize int) ([]models.Record, error) {
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT id, payload FROM %s ORDER BY seq LIMIT $1`, tableName(collection)),
		pageSize,
	)
	if err != nil {
		return nil, postgresError("list page", collection, err)
	}

	return scanRecords(rows, false)
}

// Recommend implements Store: the seed's stored vector is the query and the seed row is excluded.
func (s *PostgresStore) Recommend(ctx context.Context, collection, seedID string, limit int) ([]models.Record, error) {
	var seed pgvector.Vector

	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT embedding FROM %s WHERE id = $1`, tableName(collection)),
		seedID,
	).Scan(&seed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("record", fmt.Sprintf("record %s not found in %s", seedID, collection))
		}

		return nil, postgresError("recommend", collection, err)
	}

	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT id, payload, (1 - (embedding <=> $1)) AS score
		FROM %s
		WHERE id <> $2
		ORDER BY embedding <=> $1
		LIMIT $3`, tableName(collection)),
		seed, seedID, limit,
	)
	if err != nil {
		return nil, postgresError("recommend", collection, err)
	}

	return scanRecords(rows, true)
}

// SearchByVector implements Store.
func (s *PostgresStore) SearchByVector(ctx context.Context, collection string, vector []float32, limit int) ([]models.Record, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT id, payload, (1 - (embedding <=> $1)) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, tableName(collection)),
		pgvector.NewVector(vector), limit,
	)
	if err != nil {
		return nil, postgresError("search", collection, err)
	}

	return scanRecords(rows, true)
}

func scanRecords(rows pgx.Rows, withScore bool) ([]models.Record, error) {
	defer rows.Close()

	records := []models.Record{}

	for rows.Next() {
		var (
			r     models.Record
			score float64
			err   error
		)

		if withScore {
			err = rows.Scan(&r.ID, &r.Payload, &score)
		} else {
			err = rows.Scan(&r.ID, &r.Payload)
		}

		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		r.Score = float32(score)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

// EnsureCollection implements Writer with an HNSW cosine index on the embedding column.
func (s *PostgresStore) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	table := tableName(collection)
	index := pgx.Identifier{collection + "_embedding_idx"}.Sanitize()

	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq bigserial,
			id text PRIMARY KEY,
			payload jsonb NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL
		)`, table, dimensions))
	if err != nil {
		return postgresError("create table", collection, err)
	}

	_, err = s.db.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, index, table))
	if err != nil {
		return postgresError("create index", collection, err)
	}

	return nil
}

// Upsert implements Writer in one batch.
func (s *PostgresStore) Upsert(ctx context.Context, collection string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, payload, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET payload = EXCLUDED.payload, embedding = EXCLUDED.embedding`, tableName(collection))

	batch := &pgx.Batch{}

	for _, r := range records {
		if len(r.Vector) == 0 {
			return apperrors.NewValidationError("vector", fmt.Sprintf("record %s has no vector", r.ID))
		}

		payload := r.Payload
		if payload == nil {
			payload = map[string]any{}
		}

		batch.Queue(query, r.ID, payload, pgvector.NewVector(r.Vector))
	}

	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return postgresError("upsert", collection, err)
	}

	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()

	return nil
}

func postgresError(op, collection string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return apperrors.NewNotFoundError("collection "+collection, fmt.Sprintf("collection %s does not exist", collection))
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return apperrors.NewUnavailableError("postgres", err)
	}

	return fmt.Errorf("postgres %s on %s: %w", op, collection, err)
}
