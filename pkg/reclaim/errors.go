package reclaim

import (
	"errors"
	"fmt"
	"net/http"
)

// Error categories. Match them with errors.Is.
var (
	ErrAuthentication       = errors.New("authentication failed")
	ErrRecordNotFound       = errors.New("record not found")
	ErrInvalidRecord        = errors.New("invalid record")
	ErrAPI                  = errors.New("reclaim api error")
	ErrValidation           = errors.New("validation failed")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrUnknownField         = errors.New("unknown field")
	ErrMissingID            = errors.New("resource has no id")
)

// APIError is returned for every failed round trip to the API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int // 0 for network failures
	Message    string

	kind  error
	cause error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.kind, e.cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed %d: %s: %s", e.Method, e.Path, e.StatusCode, e.kind, e.Message)
	}
	return fmt.Sprintf("%s %s failed %d: %s", e.Method, e.Path, e.StatusCode, e.kind)
}

func (e *APIError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// categorize maps a HTTP status to its error category.
func categorize(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusNotFound:
		return ErrRecordNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidRecord
	default:
		return ErrAPI
	}
}

// ValidationError is raised locally, before any request is sent.
type ValidationError struct {
	Resource string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", ErrValidation, e.Resource, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
