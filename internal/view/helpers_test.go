package view

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/formbricks/lookalike/internal/models"
)

func tinyPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// imageRecords returns n records "r1".."rn", each carrying a distinct PNG.
func imageRecords(t *testing.T, n int) []models.Record {
	t.Helper()
	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.NewImageRecord(fmt.Sprintf("r%d", i+1), tinyPNG(t, color.NRGBA{R: uint8(i * 10), A: 255}), nil)
	}
	return records
}

// fakeFinder records which lookups ran; nil functions return no records.
type fakeFinder struct {
	InitialPageFunc   func(ctx context.Context) ([]models.Record, error)
	SimilarFunc       func(ctx context.Context, seedID string) ([]models.Record, error)
	SearchByImageFunc func(ctx context.Context, data []byte) ([]models.Record, error)
	calls             []string
}

func (f *fakeFinder) InitialPage(ctx context.Context) ([]models.Record, error) {
	f.calls = append(f.calls, "initial")
	if f.InitialPageFunc != nil {
		return f.InitialPageFunc(ctx)
	}
	return nil, nil
}

func (f *fakeFinder) Similar(ctx context.Context, seedID string) ([]models.Record, error) {
	f.calls = append(f.calls, "similar:"+seedID)
	if f.SimilarFunc != nil {
		return f.SimilarFunc(ctx, seedID)
	}
	return nil, nil
}

func (f *fakeFinder) SearchByImage(ctx context.Context, data []byte) ([]models.Record, error) {
	f.calls = append(f.calls, "search")
	if f.SearchByImageFunc != nil {
		return f.SearchByImageFunc(ctx, data)
	}
	return nil, nil
}
