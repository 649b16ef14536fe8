package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrModel signals an unavailable or misconfigured embedding model.
	ErrModel = errors.New("embedding model error")
	// ErrIndexState signals a desync between the document list and the similarity structure.
	ErrIndexState = errors.New("index state corrupted")
	// ErrExternalService signals a graph or generator collaborator failure.
	ErrExternalService = errors.New("external service error")
	// ErrSerialization signals a corrupt or incompatible persisted artifact.
	ErrSerialization = errors.New("serialization error")
)

// ModelError wraps ErrModel with the model name and underlying cause.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: model %q: %v", ErrModel.Error(), e.Model, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *ModelError) Unwrap() []error { return []error{ErrModel, e.Err} }

// NewModelError creates a model error.
func NewModelError(model string, err error) error {
	return &ModelError{Model: model, Err: err}
}

// IndexStateError wraps ErrIndexState with the observed counts.
type IndexStateError struct {
	Documents int
	Vectors   int
}

func (e *IndexStateError) Error() string {
	return fmt.Sprintf("%s: %d documents but %d vectors", ErrIndexState.Error(), e.Documents, e.Vectors)
}

func (e *IndexStateError) Unwrap() error { return ErrIndexState }

// ExternalServiceError wraps ErrExternalService with the collaborator name.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExternalService.Error(), e.Service, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *ExternalServiceError) Unwrap() []error { return []error{ErrExternalService, e.Err} }

// NewExternalServiceError creates an external service error.
func NewExternalServiceError(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

// SerializationError wraps ErrSerialization with the artifact name.
type SerializationError struct {
	Artifact string
	Err      error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSerialization.Error(), e.Artifact, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *SerializationError) Unwrap() []error { return []error{ErrSerialization, e.Err} }

// NewSerializationError creates a serialization error.
func NewSerializationError(artifact string, err error) error {
	return &SerializationError{Artifact: artifact, Err: err}
}
