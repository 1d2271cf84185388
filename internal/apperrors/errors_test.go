package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsMatchByType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "not found", err: NewNotFoundError("collection", ""), sentinel: ErrNotFound},
		{name: "validation", err: NewValidationError("file", "unsupported file type"), sentinel: ErrValidation},
		{name: "payload", err: NewPayloadError("r7", "base64", "missing"), sentinel: ErrPayload},
		{name: "unavailable", err: NewUnavailableError("qdrant", errors.New("connection refused")), sentinel: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("render: %w", tt.err)

			assert.ErrorIs(t, wrapped, tt.sentinel)

			for _, other := range tests {
				if other.name != tt.name {
					assert.NotErrorIs(t, wrapped, other.sentinel)
				}
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "collection not found", NewNotFoundError("collection", "").Error())
	assert.Equal(t, "resource not found", ErrNotFound.Error())
	assert.Equal(t, "validation failed for field: file", NewValidationError("file", "").Error())
	assert.Equal(t, "record r7: payload key base64: missing", NewPayloadError("r7", "base64", "missing").Error())
	assert.Equal(t, "record r7: malformed payload", NewPayloadError("r7", "", "").Error())
	assert.Equal(t, "qdrant unavailable: dial tcp", NewUnavailableError("qdrant", errors.New("dial tcp")).Error())
}

func TestUnavailableError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUnavailableError("embedding backend", cause)

	assert.ErrorIs(t, err, cause)
}
