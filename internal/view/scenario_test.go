package view_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/lookalike/internal/embeddings"
	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/internal/service"
	"github.com/formbricks/lookalike/internal/session"
	"github.com/formbricks/lookalike/internal/view"
)

type storeCall struct {
	op     string
	seed   string
	limit  int
	vector []float32
}

// collectionStore serves a fixed collection and records every call.
type collectionStore struct {
	records []models.Record
	calls   []storeCall
}

func (s *collectionStore) ListPage(_ context.Context, _ string, pageSize int) ([]models.Record, error) {
	s.calls = append(s.calls, storeCall{op: "list_page", limit: pageSize})
	return s.records[:min(pageSize, len(s.records))], nil
}

func (s *collectionStore) Recommend(_ context.Context, _ string, seedID string, limit int) ([]models.Record, error) {
	s.calls = append(s.calls, storeCall{op: "recommend", seed: seedID, limit: limit})
	var out []models.Record
	for _, r := range s.records {
		if r.ID != seedID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *collectionStore) SearchByVector(_ context.Context, _ string, vector []float32, limit int) ([]models.Record, error) {
	s.calls = append(s.calls, storeCall{op: "search_by_vector", limit: limit, vector: vector})
	return s.records[:min(limit, len(s.records))], nil
}

func (s *collectionStore) Close() error { return nil }

func pngOf(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func setup(t *testing.T, n int) (*collectionStore, *view.Controller, embeddings.Client) {
	t.Helper()
	store := &collectionStore{}
	for i := 1; i <= n; i++ {
		store.records = append(store.records,
			models.NewImageRecord(fmt.Sprintf("r%d", i), pngOf(t, color.NRGBA{G: uint8(i), A: 255}), nil))
	}

	embedder := embeddings.NewMockClient(16)
	svc, err := service.NewSimilarityService(service.SimilarityServiceParams{
		Store:           store,
		Embedder:        embedder,
		Collection:      "animal_images",
		UploadCacheSize: 8,
	})
	require.NoError(t, err)

	controller := view.NewController(view.ControllerParams{
		Finder:        svc,
		Title:         "Find similar images",
		UploadEnabled: true,
	})

	return store, controller, embedder
}

func TestScenario_browse_click_upload(t *testing.T) {
	ctx := context.Background()
	store, controller, embedder := setup(t, 14)
	state := session.New()

	// Empty session: one list_page(12), 12 images in 4 rows of 3, no header.
	page, err := controller.Render(ctx, state.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, []storeCall{{op: "list_page", limit: 12}}, store.calls)
	require.Len(t, page.Main.Rows, 4)
	for _, row := range page.Main.Rows {
		assert.Len(t, row.Cells, 3)
	}
	assert.Nil(t, page.Main.Header)
	state.Remember(page.Shown())

	// Clicking r7 selects exactly that record; the next pass recommends from it.
	clicked, err := state.SelectShown("r7")
	require.NoError(t, err)
	assert.Equal(t, store.records[6], clicked)

	store.calls = nil
	page, err = controller.Render(ctx, state.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, []storeCall{{op: "recommend", seed: "r7", limit: 12}}, store.calls)
	require.NotNil(t, page.Main.Header)
	assert.Equal(t, "Images similar to:", page.Main.Header.Text)
	assert.Equal(t, "r7", page.Main.Header.Record.ID)
	for _, r := range page.Main.Records() {
		assert.NotEqual(t, "r7", r.ID)
	}
	state.Remember(page.Shown())

	// Uploading cat.png searches by its embedding and still renders the selection section.
	upload := pngOf(t, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	state.SetUpload(session.Upload{Filename: "cat.png", ContentType: "image/png", Data: upload})

	decoded, err := embeddings.DecodeImage(upload)
	require.NoError(t, err)
	want, err := embedder.EmbedImage(ctx, decoded)
	require.NoError(t, err)

	store.calls = nil
	page, err = controller.Render(ctx, state.Snapshot())
	require.NoError(t, err)
	require.Len(t, store.calls, 2)
	assert.Equal(t, "search_by_vector", store.calls[0].op)
	assert.Equal(t, 12, store.calls[0].limit)
	assert.Equal(t, want, store.calls[0].vector)
	assert.Equal(t, storeCall{op: "recommend", seed: "r7", limit: 12}, store.calls[1])
	require.NotNil(t, page.Upload)
	assert.Equal(t, "cat.png", page.Upload.Preview.Filename)
	assert.NotNil(t, page.Main.Header)

	// Removing the upload goes back to the selection only.
	state.ClearUpload()
	store.calls = nil
	page, err = controller.Render(ctx, state.Snapshot())
	require.NoError(t, err)
	assert.Nil(t, page.Upload)
	assert.Equal(t, []storeCall{{op: "recommend", seed: "r7", limit: 12}}, store.calls)
}
