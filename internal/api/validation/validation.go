// Package validation provides request validation and custom validators.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/formbricks/lookalike/internal/api/response"
	"github.com/formbricks/lookalike/internal/apperrors"
)

// AllowedImageExtensions are the upload file extensions accepted (case-insensitive, without dot).
var AllowedImageExtensions = []string{"jpg", "jpeg", "png"}

// AllowedImageTypes are the sniffed content types accepted for uploads.
var AllowedImageTypes = []string{"image/jpeg", "image/png"}

var (
	// validate and decoder are package-level singletons that are safe for concurrent
	// read-only access (validate.Struct() and decoder.Decode() are thread-safe).
	// All registrations (RegisterValidation, RegisterCustomTypeFunc, etc.) MUST happen
	// in init() only, as these methods are NOT thread-safe. Do NOT modify these
	// instances after init() completes.
	validate *validator.Validate
	decoder  *form.Decoder
)

func init() {
	validate = validator.New()
	decoder = form.NewDecoder()

	if err := validate.RegisterValidation("image_ext", validateImageExt); err != nil {
		slog.Error("Failed to register image_ext validator", "error", err)
	}

	if err := validate.RegisterValidation("image_type", validateImageType); err != nil {
		slog.Error("Failed to register image_type validator", "error", err)
	}
}

// Upload describes a submitted file before it is accepted.
// ContentType must be the sniffed type, not the client's Content-Type header.
type Upload struct {
	Filename    string `validate:"required,image_ext"`
	ContentType string `validate:"required,image_type"`
	Size        int64  `validate:"gt=0"`
}

// PageQuery holds the query parameters of the JSON page endpoint.
type PageQuery struct {
	// IncludeImages adds base64 image data to each cell (default true).
	IncludeImages *bool `form:"include_images"`
}

// WantImages reports whether image data was requested.
func (q PageQuery) WantImages() bool {
	return q.IncludeImages == nil || *q.IncludeImages
}

// ValidateStruct validates a struct using go-playground/validator
// Returns validation errors formatted as RFC 7807 Problem Details.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// ValidationError carries the validator's field errors behind a readable message.
type ValidationError struct {
	fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.fields))
	for _, fieldError := range e.fields {
		messages = append(messages, formatFieldError(fieldError))
	}

	return "validation failed: " + strings.Join(messages, "; ")
}

// Unwrap exposes the underlying validator errors.
func (e *ValidationError) Unwrap() error {
	return e.fields
}

// Is matches apperrors.ErrValidation so callers can classify it like any other validation failure.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*apperrors.ValidationError)

	return ok
}

// FailedFields returns the names of the fields that failed, in order.
func (e *ValidationError) FailedFields() []string {
	names := make([]string, 0, len(e.fields))
	for _, fieldError := range e.fields {
		names = append(names, fieldError.Field())
	}

	return names
}

// formatValidationErrors converts validator errors to a *ValidationError.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return &ValidationError{fields: validationErrors}
	}

	return err
}

// formatFieldError formats a single field validation error.
func formatFieldError(fieldError validator.FieldError) string {
	field := fieldError.Field()

	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fieldError.Param())
	case "image_ext":
		return fmt.Sprintf("%s must end in one of: %s", field, strings.Join(AllowedImageExtensions, ", "))
	case "image_type":
		return fmt.Sprintf("%s must be one of: %s (got %v)", field, strings.Join(AllowedImageTypes, ", "), fieldError.Value())
	default:
		return field + " is invalid"
	}
}

// GetValidationErrorDetails extracts field-level error details from validation errors
// Returns a slice of ErrorDetail for RFC 7807 Problem Details.
func GetValidationErrorDetails(err error) []response.ErrorDetail {
	var details []response.ErrorDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			details = append(details, response.ErrorDetail{
				Location: fieldError.Field(),
				Message:  formatFieldError(fieldError),
				Value:    fieldError.Value(),
			})
		}
	}

	return details
}

// RespondValidationError writes a validation error response with RFC 7807 Problem Details.
func RespondValidationError(w http.ResponseWriter, err error) {
	problem := response.ProblemDetails{
		Type:   "about:blank",
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: err.Error(),
		Errors: GetValidationErrorDetails(err),
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusBadRequest)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		slog.Error("Failed to encode validation error response", "error", err)
	}
}

// DecodeQueryParams decodes URL query parameters into a struct.
func DecodeQueryParams(r *http.Request, dst any) error {
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("failed to decode query parameters: %w", err)
	}

	return nil
}

// ValidateAndDecodeQueryParams decodes and validates query parameters in one step.
func ValidateAndDecodeQueryParams(r *http.Request, dst any) error {
	if err := DecodeQueryParams(r, dst); err != nil {
		return err
	}

	return ValidateStruct(dst)
}

// HasImageExtension reports whether name ends in an allowed image extension.
func HasImageExtension(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")

	return slices.Contains(AllowedImageExtensions, ext)
}

func validateImageExt(fl validator.FieldLevel) bool {
	return HasImageExtension(fl.Field().String())
}

func validateImageType(fl validator.FieldLevel) bool {
	return slices.Contains(AllowedImageTypes, fl.Field().String())
}
