package errorModel

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnreadableDocument = errors.New("document unreadable")
	ErrEmptyDocument      = errors.New("no readable text found in document")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrLengthMismatch     = errors.New("embeddings and metadata length mismatch")
	ErrInvalidChunkWindow = errors.New("chunk size must be greater than overlap and overlap must not be negative")
	ErrProviderFailure    = errors.New("provider failure")
)

// ProviderError wraps a failed call to an embedding or generation provider.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}

func NewProviderError(provider, operation string, err error) error {
	return &ProviderError{Provider: provider, Operation: operation, Err: err}
}

// Unreadable marks an extraction failure, keeping the cause for logs.
func Unreadable(cause error) error {
	if cause == nil {
		return ErrUnreadableDocument
	}
	return fmt.Errorf("%w: %v", ErrUnreadableDocument, cause)
}

func IsClientError(err error) bool {
	return errors.Is(err, ErrUnreadableDocument) || errors.Is(err, ErrEmptyDocument)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderFailure)
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsClientError(err):
		return http.StatusBadRequest
	case IsRetryable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what a caller may see; internal defects are not described.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyDocument):
		return ErrEmptyDocument.Error()
	case errors.Is(err, ErrUnreadableDocument):
		return "Failed to read document."
	case IsRetryable(err):
		return "Upstream model provider failed, please retry."
	default:
		return "Internal Server Error"
	}
}
