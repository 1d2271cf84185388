package validation

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/lookalike/internal/apperrors"
)

func TestValidateStruct_Upload(t *testing.T) {
	tests := []struct {
		name       string
		upload     Upload
		wantFields []string
	}{
		{
			name:   "png",
			upload: Upload{Filename: "cat.png", ContentType: "image/png", Size: 10},
		},
		{
			name:   "uppercase jpeg",
			upload: Upload{Filename: "DOG.JPEG", ContentType: "image/jpeg", Size: 10},
		},
		{
			name:       "gif extension",
			upload:     Upload{Filename: "cat.gif", ContentType: "image/png", Size: 10},
			wantFields: []string{"Filename"},
		},
		{
			name:       "png name with text content",
			upload:     Upload{Filename: "cat.png", ContentType: "text/plain; charset=utf-8", Size: 10},
			wantFields: []string{"ContentType"},
		},
		{
			name:       "empty",
			upload:     Upload{},
			wantFields: []string{"Filename", "ContentType", "Size"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.upload)
			if tt.wantFields == nil {
				require.NoError(t, err)

				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantFields, verr.FailedFields())
			assert.Len(t, GetValidationErrorDetails(err), len(tt.wantFields))
		})
	}
}

func TestValidationError_message(t *testing.T) {
	err := ValidateStruct(Upload{Filename: "notes.txt", ContentType: "image/png", Size: 1})

	require.Error(t, err)
	assert.Equal(t, "validation failed: Filename must end in one of: jpg, jpeg, png", err.Error())
}

func TestHasImageExtension(t *testing.T) {
	assert.True(t, HasImageExtension("a.jpg"))
	assert.True(t, HasImageExtension("dir/b.PNG"))
	assert.False(t, HasImageExtension("c.webp"))
	assert.False(t, HasImageExtension("png"))
}

func TestDecodeQueryParams_PageQuery(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"include_images=true", true},
		{"include_images=false", false},
		{"include_images=0", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/page?"+tt.query, nil)

			var q PageQuery
			require.NoError(t, ValidateAndDecodeQueryParams(req, &q))
			assert.Equal(t, tt.want, q.WantImages())
		})
	}
}

func TestDecodeQueryParams_invalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/page?include_images=maybe", nil)

	var q PageQuery
	err := DecodeQueryParams(req, &q)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode query parameters")
}

func TestRespondValidationError(t *testing.T) {
	err := ValidateStruct(Upload{Filename: "a.bmp", ContentType: "image/bmp", Size: 1})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	RespondValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"location":"Filename"`)
}

func TestValidationError_is_apperrors_validation(t *testing.T) {
	err := ValidateStruct(Upload{Filename: "a.gif", ContentType: "image/gif", Size: 1})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
