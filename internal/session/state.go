// Package session holds the browser's in-memory UI state: the selected record and the
// pending upload. It is process-local and volatile.
package session

import (
	"bytes"
	"sync"

	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/internal/models"
)

// Upload is an image the user submitted for search-by-image.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Snapshot is a point-in-time copy of the state handed to one render pass.
// Its fields must be treated as read-only.
type Snapshot struct {
	Selected *models.Record
	Upload   *Upload
}

// HasSelection reports whether a record is selected.
func (s Snapshot) HasSelection() bool {
	return s.Selected != nil
}

// HasUpload reports whether an upload is pending.
func (s Snapshot) HasUpload() bool {
	return s.Upload != nil
}

// State moves from Empty to Selected(r) on Select; there is no way back to Empty.
// The upload is independent of the selection. Safe for concurrent use.
type State struct {
	mu       sync.RWMutex
	selected *models.Record
	upload   *Upload
	shown    map[string]models.Record
}

// New returns an empty state.
func New() *State {
	return &State{}
}

// Select makes r the selection, replacing any previous one.
func (s *State) Select(r models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = &r
}

// Remember stores the records displayed by the last render pass, replacing the previous set.
func (s *State) Remember(records []models.Record) {
	shown := make(map[string]models.Record, len(records))
	for _, r := range records {
		shown[r.ID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.shown = shown
}

// SelectShown selects the displayed record with the given id.
// Ids that were not part of the last render pass yield a *apperrors.NotFoundError and leave the state unchanged.
func (s *State) SelectShown(id string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.shown[id]
	if !ok {
		return models.Record{}, apperrors.NewNotFoundError("record", "record "+id+" is not on the current page")
	}

	s.selected = &r

	return r, nil
}

// SetUpload makes u the pending upload. The data is copied.
func (s *State) SetUpload(u Upload) {
	u.Data = bytes.Clone(u.Data)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upload = &u
}

// ClearUpload removes the pending upload, if any.
func (s *State) ClearUpload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upload = nil
}

// Snapshot returns the current selection and upload.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot

	if s.selected != nil {
		r := *s.selected
		snap.Selected = &r
	}

	if s.upload != nil {
		u := *s.upload
		snap.Upload = &u
	}

	return snap
}
