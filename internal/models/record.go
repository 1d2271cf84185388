package models

import (
	"encoding/base64"
	"fmt"

	"github.com/formbricks/lookalike/internal/apperrors"
)

// PayloadKeyBase64 is the payload key holding the standard base64 encoded image bytes.
const PayloadKeyBase64 = "base64"

// PayloadKeyFilename is the optional payload key with the source file name (set by ingest).
const PayloadKeyFilename = "filename"

// Record is one point of a vector collection: an opaque id, a free-form payload and,
// only when the store was asked for it, the stored vector. Score is the store's
// similarity to the query for recommend and search results (zero for plain listings).
type Record struct {
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload,omitempty"`
	Vector  []float32      `json:"vector,omitempty"`
	Score   float32        `json:"score,omitempty"`
}

// Image returns the decoded image bytes stored under the base64 payload key.
// It returns a *apperrors.PayloadError when the key is missing, is not a string,
// or does not hold valid standard base64.
func (r Record) Image() ([]byte, error) {
	raw, ok := r.Payload[PayloadKeyBase64]
	if !ok {
		return nil, apperrors.NewPayloadError(r.ID, PayloadKeyBase64, "missing")
	}

	encoded, ok := raw.(string)
	if !ok {
		return nil, apperrors.NewPayloadError(r.ID, PayloadKeyBase64, fmt.Sprintf("expected string, got %T", raw))
	}

	if encoded == "" {
		return nil, apperrors.NewPayloadError(r.ID, PayloadKeyBase64, "empty")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.NewPayloadError(r.ID, PayloadKeyBase64, "invalid base64: "+err.Error())
	}

	return data, nil
}

// Filename returns the payload's file name, if any.
func (r Record) Filename() string {
	name, _ := r.Payload[PayloadKeyFilename].(string)

	return name
}

// NewImageRecord builds a record whose payload carries image as standard base64.
func NewImageRecord(id string, image []byte, vector []float32) Record {
	return Record{
		ID: id,
		Payload: map[string]any{
			PayloadKeyBase64: base64.StdEncoding.EncodeToString(image),
		},
		Vector: vector,
	}
}
