// Package chi exposes the chatbot, search and index over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	"github.com/kailas-cloud/ragcore/internal/domain/search/filter"
	"github.com/kailas-cloud/ragcore/internal/domain/search/mode"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	searchuc "github.com/kailas-cloud/ragcore/internal/usecase/search"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Defaults fill search parameters a request leaves unset.
type Defaults struct {
	TopK         int
	Alpha        float64
	RerankFactor int
}

// Services are the use cases served over HTTP.
type Services struct {
	Chat   Chatbot
	Search Searcher
	Index  Index
	Ingest Ingester
	Health HealthChecker
}

// Server is the HTTP API.
type Server struct {
	svc           Services
	defaults      Defaults
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, defaults Defaults, logger *zap.Logger) *Server {
	if defaults.TopK <= 0 {
		defaults.TopK = 5
	}
	if defaults.RerankFactor <= 0 {
		defaults.RerankFactor = searchuc.DefaultRerankFactor
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		svc:           svc,
		defaults:      defaults,
		validate:      v,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the middleware chain. Requests carrying
// a key from apiKeys are accepted; an empty list disables authentication.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.Chat)
		r.Post("/search", s.SearchDocuments)
		r.Post("/documents", s.AddDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Get("/stats", s.Stats)
		r.Post("/index/save", s.SaveIndex)
	})
	return r
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	var resp answer.Response
	if req.Location != nil {
		resp = s.svc.Chat.ProcessGeospatial(ctx, req.Query, req.Location.toDomain(), req.SessionID)
	} else {
		resp = s.svc.Chat.Process(ctx, req.Query, req.SessionID)
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// SearchDocuments handles POST /v1/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}

	f, err := filter.New(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	sr := searchuc.Request{
		Query:        req.Query,
		K:            req.K,
		Mode:         req.Mode,
		Alpha:        s.defaults.Alpha,
		RerankFactor: req.RerankFactor,
		Filter:       f,
	}
	if sr.K == 0 {
		sr.K = s.defaults.TopK
	}
	if sr.Mode == "" {
		sr.Mode = mode.Semantic
	}
	if req.Alpha != nil {
		sr.Alpha = *req.Alpha
	}
	if sr.RerankFactor == 0 {
		sr.RerankFactor = s.defaults.RerankFactor
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.svc.Search.Search(ctx, sr)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse(results))
}

// AddDocuments handles POST /v1/documents.
func (s *Server) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentsRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.svc.Ingest.IngestRecords(ctx, req.toRecords())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if report.Added > 0 {
		status = http.StatusCreated
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, status, addDocumentsResponse(&report))
}

// GetDocument handles GET /v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.Index.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(&doc))
}

// Stats handles GET /v1/stats.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Index.Stats())
}

// SaveIndex handles POST /v1/index/save.
func (s *Server) SaveIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Index.Persist(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Status: "saved", Documents: s.svc.Index.Len()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads a JSON body into dst and validates it. On failure the error
// response is written and false returned.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

// validationMessage lists failed fields by their JSON path.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
