// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Vector store backends.
const (
	VectorStoreQdrant   = "qdrant"
	VectorStorePostgres = "postgres"
)

// Embedding providers.
const (
	EmbeddingProviderCLIP = "clip"
	EmbeddingProviderHTTP = "http"
	EmbeddingProviderMock = "mock"
)

// Config holds all application configuration.
// The env tag names the variable each field is read from; it is also used in validation messages.
type Config struct {
	Port      string `env:"PORT" validate:"required,numeric"`
	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	PageTitle string `env:"PAGE_TITLE" validate:"required"`

	// Collection browsed by this instance (e.g. animal_images, svkara_casts).
	CollectionName string `env:"COLLECTION_NAME" validate:"required"`
	// Number of records per grid and per similarity query.
	PageSize int `env:"PAGE_SIZE" validate:"gte=1,lte=100"`

	// UploadEnabled turns on the upload control (interactive variant).
	UploadEnabled  bool  `env:"UPLOAD_ENABLED"`
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" validate:"gte=1024"`

	VectorStore  string `env:"VECTOR_STORE" validate:"oneof=qdrant postgres"`
	QdrantURL    string `env:"QDRANT_URL" validate:"required_if=VectorStore qdrant"`
	QdrantAPIKey string `env:"QDRANT_API_KEY"`
	DatabaseURL  string `env:"DATABASE_URL" validate:"required_if=VectorStore postgres"`

	EmbeddingProvider   string  `env:"EMBEDDING_PROVIDER" validate:"oneof=clip http mock"`
	EmbeddingDimensions int     `env:"EMBEDDING_DIMENSIONS" validate:"gte=1"`
	CLIPModelDir        string  `env:"CLIP_MODEL_DIR" validate:"required_if=EmbeddingProvider clip"`
	ONNXLibraryPath     string  `env:"ONNX_LIBRARY_PATH"`
	EmbeddingURL        string  `env:"EMBEDDING_URL" validate:"required_if=EmbeddingProvider http"`
	EmbeddingAPIKey     string  `env:"EMBEDDING_API_KEY"`
	EmbeddingMaxRetries int     `env:"EMBEDDING_MAX_RETRIES" validate:"gte=0,lte=10"`
	EmbeddingRateLimit  float64 `env:"EMBEDDING_RATE_LIMIT" validate:"gte=0"`

	// Upload embeddings cached by content hash so redraws do not re-run the model.
	UploadCacheSize int `env:"UPLOAD_CACHE_SIZE" validate:"gte=1"`

	// Observability: "prometheus" serves /metrics; traces go to "otlp" or "stdout".
	OtelMetricsExporter string `env:"OTEL_METRICS_EXPORTER" validate:"omitempty,oneof=prometheus otlp"`
	OtelTracesExporter  string `env:"OTEL_TRACES_EXPORTER" validate:"omitempty,oneof=otlp stdout"`
}

// validate is safe for concurrent use; the tag name func is registered once in init.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}

		return field.Name
	})
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool retrieves an environment variable as a bool (strconv.ParseBool syntax) or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// Load reads configuration from environment variables and returns a validated Config.
// It automatically loads .env file if it exists.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	const (
		defaultPageSize       = 12
		defaultMaxUploadBytes = 10 << 20
		defaultDimensions     = 512
		defaultUploadCache    = 64
	)

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		PageTitle: getEnv("PAGE_TITLE", "Find similar images"),

		CollectionName: getEnv("COLLECTION_NAME", "animal_images"),
		PageSize:       getEnvAsInt("PAGE_SIZE", defaultPageSize),

		UploadEnabled:  getEnvAsBool("UPLOAD_ENABLED", true),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),

		VectorStore:  strings.ToLower(getEnv("VECTOR_STORE", VectorStoreQdrant)),
		QdrantURL:    os.Getenv("QDRANT_URL"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		EmbeddingProvider:   strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderCLIP)),
		EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", defaultDimensions),
		CLIPModelDir:        getEnv("CLIP_MODEL_DIR", "./onnx/models"),
		ONNXLibraryPath:     os.Getenv("ONNX_LIBRARY_PATH"),
		EmbeddingURL:        os.Getenv("EMBEDDING_URL"),
		EmbeddingAPIKey:     os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingMaxRetries: getEnvAsInt("EMBEDDING_MAX_RETRIES", 0),
		EmbeddingRateLimit:  getEnvAsFloat("EMBEDDING_RATE_LIMIT", 0),

		UploadCacheSize: getEnvAsInt("UPLOAD_CACHE_SIZE", defaultUploadCache),

		OtelMetricsExporter: strings.ToLower(os.Getenv("OTEL_METRICS_EXPORTER")),
		OtelTracesExporter:  strings.ToLower(os.Getenv("OTEL_TRACES_EXPORTER")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and reports every violation in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate config: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatFieldError(fieldError))
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// formatFieldError formats a single field validation error using the env variable name.
func formatFieldError(fieldError validator.FieldError) string {
	field := fieldError.Field()

	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return field + " is required when " + strings.Replace(fieldError.Param(), " ", "=", 1)
	case "numeric":
		return field + " must be numeric"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fieldError.Param())
	default:
		return field + " is invalid"
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
