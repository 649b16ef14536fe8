package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/usecase/vectorstore"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeNotFound          ErrorCode = "not_found"
	CodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	CodeModelError        ErrorCode = "embedding_model_error"
	CodeIndexCorrupted    ErrorCode = "index_corrupted"
	CodeExternalService   ErrorCode = "external_service_error"
	CodeSerialization     ErrorCode = "serialization_error"
	CodeNotConfigured     ErrorCode = "not_configured"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// sentinels is the ordered set of errors whose text is safe to return.
var sentinels = []error{
	domain.ErrNotFound,
	domain.ErrInvalidRequest,
	domain.ErrVectorDimMismatch,
	domain.ErrModel,
	domain.ErrIndexState,
	domain.ErrExternalService,
	domain.ErrSerialization,
	vectorstore.ErrNoSnapshotRepository,
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusConflict, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrModel, http.StatusBadGateway, CodeModelError),
		sentinelHandler(domain.ErrIndexState, http.StatusInternalServerError, CodeIndexCorrupted),
		sentinelHandler(domain.ErrExternalService, http.StatusBadGateway, CodeExternalService),
		sentinelHandler(domain.ErrSerialization, http.StatusInternalServerError, CodeSerialization),
		sentinelHandler(vectorstore.ErrNoSnapshotRepository, http.StatusNotImplemented, CodeNotConfigured),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation failures keep their detail since it only describes the request.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(usage.TotalTokens(), 10))
	}
}
