package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrInvalidIdentifier    = errors.New("invalid identifier")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrNoCredential         = errors.New("no completion credential configured")
	ErrMalformedResponse    = errors.New("malformed completion response")
	ErrUnparseableResponse  = errors.New("unparseable ai response")
	ErrPromptNotConfigured  = errors.New("prompt template not configured")
)

// ProviderError reports a non-2xx response from the completion provider.
// Message extraction from the error body is best-effort.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider error: status %d: %s", e.StatusCode, e.Message)
}
