package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/internal/session"
	"github.com/formbricks/lookalike/internal/view"
)

func tinyPNG(t *testing.T, c color.Color) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func imageRecords(t *testing.T, n int) []models.Record {
	t.Helper()

	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.NewImageRecord(fmt.Sprintf("r%d", i+1), tinyPNG(t, color.NRGBA{G: uint8(i * 20), A: 255}), nil)
	}

	return records
}

// mockFinder serves fixed records; nil functions fall back to records.
type mockFinder struct {
	mu                sync.Mutex
	records           []models.Record
	initialPageFunc   func(ctx context.Context) ([]models.Record, error)
	similarFunc       func(ctx context.Context, seedID string) ([]models.Record, error)
	searchByImageFunc func(ctx context.Context, data []byte) ([]models.Record, error)
	similarSeeds      []string
	searches          int
}

func (m *mockFinder) InitialPage(ctx context.Context) ([]models.Record, error) {
	if m.initialPageFunc != nil {
		return m.initialPageFunc(ctx)
	}

	return m.records, nil
}

func (m *mockFinder) Similar(ctx context.Context, seedID string) ([]models.Record, error) {
	m.mu.Lock()
	m.similarSeeds = append(m.similarSeeds, seedID)
	m.mu.Unlock()

	if m.similarFunc != nil {
		return m.similarFunc(ctx, seedID)
	}

	return m.records, nil
}

func (m *mockFinder) SearchByImage(ctx context.Context, data []byte) ([]models.Record, error) {
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()

	if m.searchByImageFunc != nil {
		return m.searchByImageFunc(ctx, data)
	}

	return m.records, nil
}

type fakeUploadMetrics struct {
	mu       sync.Mutex
	rejected []string
}

func (f *fakeUploadMetrics) RecordRequest(context.Context, string, string, string, time.Duration) {}

func (f *fakeUploadMetrics) RecordRequestBodyTooLarge(context.Context) {}

func (f *fakeUploadMetrics) RecordUploadRejected(_ context.Context, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rejected = append(f.rejected, reason)
}

type testServer struct {
	router  http.Handler
	finder  *mockFinder
	state   *session.State
	metrics *fakeUploadMetrics
}

func newTestServer(t *testing.T, finder *mockFinder, uploadEnabled bool) *testServer {
	t.Helper()

	state := session.New()
	metrics := &fakeUploadMetrics{}

	controller := view.NewController(view.ControllerParams{
		Finder:        finder,
		Title:         "Find similar images",
		UploadEnabled: uploadEnabled,
	})

	browser := NewBrowserHandler(BrowserHandlerParams{
		Renderer:      controller,
		State:         state,
		Title:         "Find similar images",
		UploadEnabled: uploadEnabled,
		Metrics:       metrics,
	})

	router := chi.NewRouter()
	router.Get("/", browser.Page)
	router.Post("/records/{id}/similar", browser.Similar)
	router.Post("/upload", browser.Upload)
	router.Post("/upload/clear", browser.ClearUpload)
	router.Get("/api/v1/page", browser.PageJSON)
	router.Get("/health", NewHealthHandler().Check)

	return &testServer{router: router, finder: finder, state: state, metrics: metrics}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	return rec
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()

	return s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (s *testServer) post(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()

	return s.do(t, httptest.NewRequest(http.MethodPost, target, nil))
}

// uploadRequest builds a multipart POST /upload; an empty filename omits the file part.
func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile(UploadField, filename)
		require.NoError(t, err)

		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "value"))
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}
