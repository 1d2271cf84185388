package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/pkg/embeddings"
)

// HTTPClientOptions configures an HTTPClient.
type HTTPClientOptions struct {
	// URL is the inference endpoint; it receives the image as a PNG body.
	URL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Dimensions is the expected embedding length.
	Dimensions int
	// RetryMax is passed to retryablehttp (default 0: one attempt).
	RetryMax int
	// Timeout is the per-attempt HTTP timeout (default: 30 seconds)
	Timeout time.Duration
}

// HTTPClient embeds images through a remote inference service.
// The service answers {"embedding": [...]} for a PNG request body.
type HTTPClient struct {
	url        string
	apiKey     string
	dimensions int
	httpClient *retryablehttp.Client
}

// Ensure HTTPClient implements Client interface
var _ Client = (*HTTPClient)(nil)

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewHTTPClient creates a remote embedding client.
func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(opts.RetryMax, 0)
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil
	retryClient.ErrorHandler = keepLastResponse

	return &HTTPClient{
		url:        opts.URL,
		apiKey:     opts.APIKey,
		dimensions: opts.Dimensions,
		httpClient: retryClient,
	}
}

// keepLastResponse hands back the final response once retries are exhausted so the
// status and body of a failed call can be reported.
func keepLastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}

	return nil, err
}

// EmbedImage implements Client.
func (c *HTTPClient) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if img == nil {
		return nil, ErrNilImage
	}

	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUnavailableError("embedding service", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, apperrors.NewUnavailableError("embedding service",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(parsed.Embedding) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(parsed.Embedding), c.dimensions)
	}

	if err := embeddings.NormalizeL2(parsed.Embedding); err != nil {
		return nil, fmt.Errorf("embedding service response: %w", err)
	}

	return parsed.Embedding, nil
}

// Dimension implements Client.
func (c *HTTPClient) Dimension() int {
	return c.dimensions
}
