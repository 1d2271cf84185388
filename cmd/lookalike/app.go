package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/formbricks/lookalike/internal/api/handlers"
	"github.com/formbricks/lookalike/internal/api/middleware"
	"github.com/formbricks/lookalike/internal/config"
	"github.com/formbricks/lookalike/internal/embeddings"
	"github.com/formbricks/lookalike/internal/observability"
	"github.com/formbricks/lookalike/internal/service"
	"github.com/formbricks/lookalike/internal/session"
	"github.com/formbricks/lookalike/internal/vectorstore"
	"github.com/formbricks/lookalike/internal/view"
)

const serviceName = "lookalike"

var errUnsupportedEmbeddingProvider = errors.New("unsupported embedding provider")

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	server         *http.Server
	store          vectorstore.ReadWriter
	embedder       *embeddings.Lazy
	meterProvider  observability.MeterProviderShutdown
	tracerProvider *sdktrace.TracerProvider
}

// NewApp builds and wires all components. The vector store and the embedding model are
// connected lazily on first use, so NewApp succeeds while either is unreachable.
// Call Run to start serving.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	meterProvider, metricsHandler, metrics, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{
		ServiceName: serviceName,
		Exporter:    cfg.OtelMetricsExporter,
	})
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	if meterProvider == nil {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unset)")
	}

	tracerProvider, err := observability.NewTracerProvider(ctx, serviceName, cfg.OtelTracesExporter)
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(ctx, meterProvider); err2 != nil {
			slog.Error("shutdown meter provider after tracer provider error", "error", err2)
		}

		return nil, fmt.Errorf("create tracer provider: %w", err)
	}

	if tracerProvider == nil {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	}

	// Install TraceContextHandler unconditionally so request_id (and trace_id/span_id when tracing is on) appear in logs.
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(slog.Default().Handler())))

	var (
		storeMetrics     observability.StoreMetrics
		embeddingMetrics observability.EmbeddingMetrics
		cacheMetrics     observability.CacheMetrics
		renderMetrics    observability.RenderMetrics
		apiMetrics       observability.APIMetrics
	)

	if metrics != nil {
		storeMetrics = metrics.Store
		embeddingMetrics = metrics.Embedding
		cacheMetrics = metrics.Cache
		renderMetrics = metrics.Render
		apiMetrics = metrics.API
	}

	lazyEmbedder, err := newEmbedder(cfg)
	if err != nil {
		_ = shutdownObservability(ctx, tracerProvider, meterProvider)

		return nil, err
	}

	embedder := embeddings.NewInstrumented(
		embeddings.WithRateLimit(lazyEmbedder, cfg.EmbeddingRateLimit),
		cfg.EmbeddingProvider,
		embeddingMetrics,
	)

	store := vectorstore.NewInstrumented(newStore(cfg), storeMetrics)

	similarity, err := service.NewSimilarityService(service.SimilarityServiceParams{
		Store:           store,
		Embedder:        embedder,
		Collection:      cfg.CollectionName,
		Limit:           cfg.PageSize,
		UploadCacheSize: cfg.UploadCacheSize,
		CacheMetrics:    cacheMetrics,
		Logger:          slog.Default(),
	})
	if err != nil {
		_ = shutdownObservability(ctx, tracerProvider, meterProvider)

		return nil, fmt.Errorf("create similarity service: %w", err)
	}

	controller := view.NewController(view.ControllerParams{
		Finder:        similarity,
		Title:         cfg.PageTitle,
		UploadEnabled: cfg.UploadEnabled,
		Metrics:       renderMetrics,
		Logger:        slog.Default(),
	})

	browser := handlers.NewBrowserHandler(handlers.BrowserHandlerParams{
		Renderer:      controller,
		State:         session.New(),
		Title:         cfg.PageTitle,
		UploadEnabled: cfg.UploadEnabled,
		Metrics:       apiMetrics,
		Logger:        slog.Default(),
	})

	router := newRouter(routerParams{
		Browser:        browser,
		Health:         handlers.NewHealthHandler(),
		MetricsHandler: metricsHandler,
		APIMetrics:     apiMetrics,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	slog.Info("lookalike configured",
		"collection", cfg.CollectionName,
		"vector_store", cfg.VectorStore,
		"embedding_provider", cfg.EmbeddingProvider,
		"upload_enabled", cfg.UploadEnabled,
	)

	return &App{
		cfg:            cfg,
		server:         newHTTPServer(cfg, router, meterProvider, tracerProvider),
		store:          store,
		embedder:       lazyEmbedder,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
	}, nil
}

// newEmbedder returns the configured embedding client behind a Lazy, so model files and
// remote endpoints are only touched by the first upload.
func newEmbedder(cfg *config.Config) (*embeddings.Lazy, error) {
	var factory func() (embeddings.Client, error)

	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderCLIP:
		factory = func() (embeddings.Client, error) {
			client, err := embeddings.NewCLIPClient(cfg.CLIPModelDir, cfg.ONNXLibraryPath, cfg.EmbeddingDimensions)
			if err != nil {
				return nil, err
			}

			return client, nil
		}
	case config.EmbeddingProviderHTTP:
		factory = func() (embeddings.Client, error) {
			return embeddings.NewHTTPClient(embeddings.HTTPClientOptions{
				URL:        cfg.EmbeddingURL,
				APIKey:     cfg.EmbeddingAPIKey,
				Dimensions: cfg.EmbeddingDimensions,
				RetryMax:   cfg.EmbeddingMaxRetries,
			}), nil
		}
	case config.EmbeddingProviderMock:
		factory = func() (embeddings.Client, error) {
			return embeddings.NewMockClient(cfg.EmbeddingDimensions), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedEmbeddingProvider, cfg.EmbeddingProvider)
	}

	return embeddings.NewLazy(cfg.EmbeddingDimensions, factory), nil
}

func newStore(cfg *config.Config) *vectorstore.Lazy {
	opts := vectorstore.Options{
		Backend:      cfg.VectorStore,
		QdrantURL:    cfg.QdrantURL,
		QdrantAPIKey: cfg.QdrantAPIKey,
		DatabaseURL:  cfg.DatabaseURL,
	}

	return vectorstore.NewLazy(func(ctx context.Context) (vectorstore.ReadWriter, error) {
		return vectorstore.Open(ctx, opts)
	})
}

type routerParams struct {
	Browser        *handlers.BrowserHandler
	Health         *handlers.HealthHandler
	MetricsHandler http.Handler
	APIMetrics     observability.APIMetrics
	MaxUploadBytes int64
}

// newRouter registers the browser routes. /metrics is only mounted for the prometheus exporter.
func newRouter(p routerParams) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Metrics(p.APIMetrics))
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", p.Health.Check)

	if p.MetricsHandler != nil {
		router.Handle("/metrics", p.MetricsHandler)
	}

	router.Get("/", p.Browser.Page)
	router.Get("/api/v1/page", p.Browser.PageJSON)
	router.Post("/records/{id}/similar", p.Browser.Similar)
	router.Post("/upload/clear", p.Browser.ClearUpload)

	router.With(middleware.MaxBody(p.MaxUploadBytes, p.APIMetrics)).Post("/upload", p.Browser.Upload)

	return router
}

// newHTTPServer wraps the router with the outer chain:
// RequestID -> otelhttp(Logging(router)) so access logs get trace_id/span_id from context.
func newHTTPServer(
	cfg *config.Config,
	router http.Handler,
	meterProvider observability.MeterProviderShutdown,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	otelOpts := []otelhttp.Option{
		// Skip tracing and HTTP metrics for health checks and scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}

	if mp, ok := meterProvider.(metric.MeterProvider); ok {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(mp))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	inner := middleware.Logging(slog.Default())(router)
	handler := otelhttp.NewHandler(inner, serviceName, otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readTimeout = 15 * time.Second
		// Uploads embed on the next render, but the CLIP model can take seconds on first load.
		writeTimeout = 60 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled (e.g. signal) or the
// server fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- fmt.Errorf("server: %w", err)
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter observability.MeterProviderShutdown) error {
	var first error

	if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
		first = err
	}

	if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
		if first == nil {
			first = err
		} else {
			slog.Error("shutdown meter provider", "error", err)
		}
	}

	return first
}

// Shutdown stops the server, then releases the store connection and the model.
// Observability is shut down last so in-flight spans are flushed.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server shutdown: %w", err)
	}

	err = errors.Join(a.store.Close(), a.embedder.Close())
	if err != nil {
		return fmt.Errorf("release backends: %w", err)
	}

	return nil
}
