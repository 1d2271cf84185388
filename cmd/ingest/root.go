package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/formbricks/lookalike/internal/config"
	"github.com/formbricks/lookalike/internal/embeddings"
	"github.com/formbricks/lookalike/internal/service"
	"github.com/formbricks/lookalike/internal/vectorstore"
)

var errNotDirectory = errors.New("not a directory")

type ingestOptions struct {
	collection string
	batchSize  int
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Embed a directory of images into a vector collection",
		Long: `Embed every JPEG and PNG under <dir> and upsert it into the collection.

The collection is created with cosine distance if it does not exist. Each point
gets a name-based UUID of the image bytes, a "base64" payload with the image and
a "filename" payload with its path relative to <dir>. Re-running is idempotent.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.collection, "collection", "c", "", "collection name (default: COLLECTION_NAME)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", service.DefaultIngestBatchSize, "records per upsert")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log skipped files")

	return cmd
}

func runIngest(ctx context.Context, dir string, opts *ingestOptions) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, errNotDirectory)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	collection := cfg.CollectionName
	if opts.collection != "" {
		collection = opts.collection
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, closeEmbedder, err := openEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	store, err := vectorstore.Open(ctx, vectorstore.Options{
		Backend:      cfg.VectorStore,
		QdrantURL:    cfg.QdrantURL,
		QdrantAPIKey: cfg.QdrantAPIKey,
		DatabaseURL:  cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("close vector store", "error", err)
		}
	}()

	ingest := service.NewIngestService(service.IngestServiceParams{
		Store:      store,
		Embedder:   embeddings.WithRateLimit(embedder, cfg.EmbeddingRateLimit),
		Collection: collection,
		BatchSize:  opts.batchSize,
	})

	result, err := ingest.IngestDir(ctx, dir)
	if err != nil {
		slog.Error("ingest stopped", "error", err, "ingested", result.Ingested, "skipped", result.Skipped)

		return err
	}

	slog.Info("ingest complete", "collection", collection, "ingested", result.Ingested, "skipped", result.Skipped)
	fmt.Printf("Stored %d image(s) in %s, skipped %d file(s).\n", result.Ingested, collection, result.Skipped)

	return nil
}

// openEmbedder builds the configured model eagerly; a CLI run has no reason to defer failures.
func openEmbedder(cfg *config.Config) (embeddings.Client, func(), error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderCLIP:
		client, err := embeddings.NewCLIPClient(cfg.CLIPModelDir, cfg.ONNXLibraryPath, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, nil, fmt.Errorf("load CLIP model: %w", err)
		}

		return client, func() { _ = client.Close() }, nil
	case config.EmbeddingProviderHTTP:
		return embeddings.NewHTTPClient(embeddings.HTTPClientOptions{
			URL:        cfg.EmbeddingURL,
			APIKey:     cfg.EmbeddingAPIKey,
			Dimensions: cfg.EmbeddingDimensions,
			RetryMax:   cfg.EmbeddingMaxRetries,
		}), func() {}, nil
	case config.EmbeddingProviderMock:
		return embeddings.NewMockClient(cfg.EmbeddingDimensions), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}
