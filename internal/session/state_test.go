package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/internal/models"
)

func TestState_initially_empty(t *testing.T) {
	snap := New().Snapshot()

	assert.False(t, snap.HasSelection())
	assert.False(t, snap.HasUpload())
}

func TestState_Select(t *testing.T) {
	s := New()

	s.Select(models.Record{ID: "r7"})
	assert.Equal(t, "r7", s.Snapshot().Selected.ID)

	s.Select(models.Record{ID: "r9"})
	assert.Equal(t, "r9", s.Snapshot().Selected.ID, "selection is replaced, never cleared")
}

func TestState_SelectShown(t *testing.T) {
	s := New()
	shown := []models.Record{
		{ID: "r1", Payload: map[string]any{"base64": "a"}},
		{ID: "r7", Payload: map[string]any{"base64": "b"}},
	}
	s.Remember(shown)

	got, err := s.SelectShown("r7")
	require.NoError(t, err)
	assert.Equal(t, shown[1], got, "exactly the clicked record")
	assert.Equal(t, shown[1], *s.Snapshot().Selected)

	_, err = s.SelectShown("r42")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "r7", s.Snapshot().Selected.ID, "unknown id leaves the selection alone")

	s.Remember(nil)
	_, err = s.SelectShown("r1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "only the last pass counts")
}

func TestState_upload_is_independent_of_selection(t *testing.T) {
	s := New()
	s.Select(models.Record{ID: "r7"})

	data := []byte{1, 2, 3}
	s.SetUpload(Upload{Filename: "cat.png", ContentType: "image/png", Data: data})
	data[0] = 9

	snap := s.Snapshot()
	require.True(t, snap.HasUpload())
	assert.Equal(t, "cat.png", snap.Upload.Filename)
	assert.Equal(t, []byte{1, 2, 3}, snap.Upload.Data, "upload data is copied")
	assert.Equal(t, "r7", snap.Selected.ID)

	s.ClearUpload()
	snap = s.Snapshot()
	assert.False(t, snap.HasUpload())
	assert.True(t, snap.HasSelection())
}

func TestState_snapshot_is_a_copy(t *testing.T) {
	s := New()
	s.Select(models.Record{ID: "r1"})

	snap := s.Snapshot()
	s.Select(models.Record{ID: "r2"})

	assert.Equal(t, "r1", snap.Selected.ID)
}

func TestState_concurrent_use(t *testing.T) {
	s := New()
	s.Remember([]models.Record{{ID: "a"}, {ID: "b"}})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = s.SelectShown("a")
			} else {
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, "a", s.Snapshot().Selected.ID)
}
