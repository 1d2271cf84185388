// Package apperrors provides sentinel and custom error types for the application.
package apperrors

// ErrNotFound represents a "not found" error.
// Use when a collection, seed record, or displayed record doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input (e.g. an uploaded file) is rejected at the HTTP boundary.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrPayload is the sentinel for malformed record payloads (missing or corrupt image data).
var ErrPayload = &PayloadError{}

// PayloadError reports a record whose payload cannot be displayed.
type PayloadError struct {
	RecordID string
	Key      string
	Message  string
}

// NewPayloadError creates a PayloadError for the given record and payload key.
func NewPayloadError(recordID, key, message string) *PayloadError {
	return &PayloadError{
		RecordID: recordID,
		Key:      key,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *PayloadError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "malformed payload"
	}

	if e.RecordID == "" {
		return msg
	}

	if e.Key == "" {
		return "record " + e.RecordID + ": " + msg
	}

	return "record " + e.RecordID + ": payload key " + e.Key + ": " + msg
}

// Is implements the error interface for error comparison.
func (e *PayloadError) Is(target error) bool {
	_, ok := target.(*PayloadError)

	return ok
}

// ErrUnavailable is the sentinel for an external service (vector database, model backend)
// that could not be reached.
var ErrUnavailable = &UnavailableError{}

// UnavailableError wraps the transport error of an unreachable dependency.
type UnavailableError struct {
	Service string
	Err     error
}

// NewUnavailableError creates an UnavailableError for service wrapping err.
func NewUnavailableError(service string, err error) *UnavailableError {
	return &UnavailableError{Service: service, Err: err}
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	name := e.Service
	if name == "" {
		name = "service"
	}

	if e.Err == nil {
		return name + " unavailable"
	}

	return name + " unavailable: " + e.Err.Error()
}

// Unwrap returns the underlying transport error.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *UnavailableError) Is(target error) bool {
	_, ok := target.(*UnavailableError)

	return ok
}
