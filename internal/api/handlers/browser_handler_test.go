package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/internal/session"
	"github.com/formbricks/lookalike/internal/view"
)

func TestBrowserHandler_Page_initial(t *testing.T) {
	srv := newTestServer(t, &mockFinder{records: imageRecords(t, 5)}, true)

	rec := srv.get(t, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Find similar images</h1>")
	assert.Contains(t, body, `action="/upload"`)
	assert.Contains(t, body, `class="initial"`)
	assert.Equal(t, 2, strings.Count(body, `class="grid-row"`))
	assert.Equal(t, 5, strings.Count(body, view.ActionLabel))
	assert.Contains(t, body, `action="/records/r5/similar"`)
	assert.Contains(t, body, "data:image/png;base64,")
	assert.NotContains(t, body, view.HeaderText)
	assert.NotContains(t, body, "/upload/clear")
}

func TestBrowserHandler_Page_upload_disabled_hides_form(t *testing.T) {
	srv := newTestServer(t, &mockFinder{records: imageRecords(t, 1)}, false)

	rec := srv.get(t, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `action="/upload"`)
}

func TestBrowserHandler_Similar(t *testing.T) {
	records := imageRecords(t, 4)
	srv := newTestServer(t, &mockFinder{records: records}, true)

	require.Equal(t, http.StatusOK, srv.get(t, "/").Code)

	rec := srv.post(t, "/records/r2/similar")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	snap := srv.state.Snapshot()
	require.True(t, snap.HasSelection())
	assert.Equal(t, "r2", snap.Selected.ID)

	page := srv.get(t, "/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), view.HeaderText)
	assert.Contains(t, page.Body.String(), `class="similar"`)
	assert.Equal(t, []string{"r2"}, srv.finder.similarSeeds)
}

func TestBrowserHandler_Similar_unknown_record(t *testing.T) {
	srv := newTestServer(t, &mockFinder{records: imageRecords(t, 2)}, true)

	require.Equal(t, http.StatusOK, srv.get(t, "/").Code)

	rec := srv.post(t, "/records/r99/similar")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "r99")
	assert.False(t, srv.state.Snapshot().HasSelection())
}

func TestBrowserHandler_Upload(t *testing.T) {
	srv := newTestServer(t, &mockFinder{records: imageRecords(t, 3)}, true)
	data := tinyPNG(t, color.NRGBA{B: 200, A: 255})

	rec := srv.do(t, uploadRequest(t, "cat.png", data))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	snap := srv.state.Snapshot()
	require.True(t, snap.HasUpload())
	assert.Equal(t, "cat.png", snap.Upload.Filename)
	assert.Equal(t, "image/png", snap.Upload.ContentType)
	assert.Equal(t, data, snap.Upload.Data)

	page := srv.get(t, "/")
	require.Equal(t, http.StatusOK, page.Code)

	body := page.Body.String()
	assert.Contains(t, body, `class="upload"`)
	assert.Contains(t, body, "cat.png")
	assert.Contains(t, body, `action="/upload/clear"`)
	assert.Equal(t, 1, srv.finder.searches)

	require.Equal(t, http.StatusSeeOther, srv.post(t, "/upload/clear").Code)
	assert.False(t, srv.state.Snapshot().HasUpload())
	assert.NotContains(t, srv.get(t, "/").Body.String(), "cat.png")
}

func TestBrowserHandler_Upload_rejected(t *testing.T) {
	png := tinyPNG(t, color.White)

	tests := []struct {
		name       string
		filename   string
		data       []byte
		wantStatus int
		wantReason string
	}{
		{"gif extension", "cat.gif", png, http.StatusBadRequest, rejectExtension},
		{"text behind png name", "cat.png", []byte("not an image at all"), http.StatusBadRequest, rejectContentType},
		{"no file", "", nil, http.StatusBadRequest, rejectMissingFile},
		{"truncated png", "cat.png", png[:40], http.StatusBadRequest, rejectDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockFinder{records: imageRecords(t, 1)}, true)

			rec := srv.do(t, uploadRequest(t, tt.filename, tt.data))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, []string{tt.wantReason}, srv.metrics.rejected)
			assert.False(t, srv.state.Snapshot().HasUpload())

			require.Equal(t, http.StatusOK, srv.get(t, "/").Code)
			assert.Zero(t, srv.finder.searches)
		})
	}
}

func TestBrowserHandler_Upload_failing_render_offers_clear(t *testing.T) {
	finder := &mockFinder{
		records: imageRecords(t, 3),
		searchByImageFunc: func(context.Context, []byte) ([]models.Record, error) {
			return nil, errors.New("decode image: unexpected EOF")
		},
	}
	srv := newTestServer(t, finder, true)
	srv.state.SetUpload(session.Upload{Filename: "cat.png", ContentType: "image/png", Data: tinyPNG(t, color.White)})

	for range 2 {
		rec := srv.get(t, "/")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "unexpected EOF")
		assert.Contains(t, rec.Body.String(), `action="/upload/clear"`)
	}

	require.Equal(t, http.StatusSeeOther, srv.post(t, "/upload/clear").Code)

	rec := srv.get(t, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="initial"`)
}

func TestBrowserHandler_Upload_rejected_json(t *testing.T) {
	srv := newTestServer(t, &mockFinder{}, true)

	req := uploadRequest(t, "cat.bmp", tinyPNG(t, color.Black))
	req.Header.Set("Accept", "application/json")

	rec := srv.do(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"location":"Filename"`)
}

func TestBrowserHandler_Upload_disabled(t *testing.T) {
	srv := newTestServer(t, &mockFinder{}, false)

	rec := srv.do(t, uploadRequest(t, "cat.png", tinyPNG(t, color.White)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{rejectUploadsDisabled}, srv.metrics.rejected)
	assert.False(t, srv.state.Snapshot().HasUpload())
}

func TestBrowserHandler_Page_errors(t *testing.T) {
	tests := []struct {
		name       string
		finder     *mockFinder
		wantStatus int
		wantText   string
	}{
		{
			name: "store unavailable",
			finder: &mockFinder{initialPageFunc: func(context.Context) ([]models.Record, error) {
				return nil, apperrors.NewUnavailableError("qdrant", errors.New("connection refused"))
			}},
			wantStatus: http.StatusBadGateway,
			wantText:   "qdrant unavailable: connection refused",
		},
		{
			name: "missing collection",
			finder: &mockFinder{initialPageFunc: func(context.Context) ([]models.Record, error) {
				return nil, apperrors.NewNotFoundError("collection", "collection animal_images not found")
			}},
			wantStatus: http.StatusNotFound,
			wantText:   "collection animal_images not found",
		},
		{
			name: "record without image",
			finder: &mockFinder{records: []models.Record{
				{ID: "broken", Payload: map[string]any{"name": "x"}},
			}},
			wantStatus: http.StatusInternalServerError,
			wantText:   "record broken: payload key base64: missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.finder, true)

			rec := srv.get(t, "/")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.NotContains(t, rec.Body.String(), `action="/upload/clear"`)
		})
	}
}

func TestBrowserHandler_PageJSON(t *testing.T) {
	srv := newTestServer(t, &mockFinder{records: imageRecords(t, 4)}, true)

	t.Run("with images", func(t *testing.T) {
		rec := srv.get(t, "/api/v1/page")
		require.Equal(t, http.StatusOK, rec.Code)

		var page PageResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))

		assert.Equal(t, "Find similar images", page.Title)
		assert.True(t, page.UploadEnabled)
		assert.Nil(t, page.Upload)
		require.NotNil(t, page.Main)
		assert.Equal(t, string(view.ModeInitial), page.Main.Mode)
		require.Len(t, page.Main.Rows, 2)
		assert.Len(t, page.Main.Rows[0], 3)
		assert.Len(t, page.Main.Rows[1], 1)
		assert.Equal(t, "r4", page.Main.Rows[1][0].ID)
		assert.Equal(t, 1, page.Main.Rows[1][0].Row)
		require.NotNil(t, page.Main.Rows[0][0].Image)
		assert.Equal(t, "image/png", page.Main.Rows[0][0].Image.ContentType)
		assert.NotEmpty(t, page.Main.Rows[0][0].Image.Data)
	})

	t.Run("without images", func(t *testing.T) {
		rec := srv.get(t, "/api/v1/page?include_images=false")
		require.Equal(t, http.StatusOK, rec.Code)

		var page PageResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		require.NotNil(t, page.Main)
		assert.Nil(t, page.Main.Rows[0][0].Image)
	})

	t.Run("bad query", func(t *testing.T) {
		rec := srv.get(t, "/api/v1/page?include_images=maybe")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("json render remembers shown records", func(t *testing.T) {
		require.Equal(t, http.StatusOK, srv.get(t, "/api/v1/page?include_images=false").Code)

		assert.Equal(t, http.StatusSeeOther, srv.post(t, "/records/r3/similar").Code)
	})
}

func TestBrowserHandler_PageJSON_unavailable(t *testing.T) {
	srv := newTestServer(t, &mockFinder{initialPageFunc: func(context.Context) ([]models.Record, error) {
		return nil, apperrors.NewUnavailableError("embedding service", errors.New("timeout"))
	}}, true)

	rec := srv.get(t, "/api/v1/page")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHealthHandler_Check(t *testing.T) {
	srv := newTestServer(t, &mockFinder{}, true)

	rec := srv.get(t, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
