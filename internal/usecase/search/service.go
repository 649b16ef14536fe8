package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/entity"
	"github.com/kailas-cloud/ragcore/internal/domain/search/filter"
	"github.com/kailas-cloud/ragcore/internal/domain/search/mode"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// Defaults for hybrid fusion and reranking.
const (
	DefaultAlpha        = 0.7
	DefaultRerankFactor = 3
	// MaxRerankCandidates bounds the candidate set scanned by the reranker.
	MaxRerankCandidates = 50
)

// Request is a search over the index in one of the supported modes.
type Request struct {
	Query        string
	K            int
	Mode         mode.Mode
	Alpha        float64
	RerankFactor int
	Filter       filter.Filter
}

// Service handles document search across semantic, hybrid and rerank modes.
type Service struct {
	store Store
}

// New creates a search service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Search dispatches req to the mode's strategy.
func (s *Service) Search(ctx context.Context, req Request) ([]result.Result, error) {
	switch req.Mode {
	case mode.Semantic, "":
		results, err := s.store.Search(ctx, req.Query, req.K, req.Filter)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		return results, nil
	case mode.Hybrid:
		return s.hybrid(ctx, req.Query, req.K, req.Alpha, req.Filter)
	case mode.Rerank:
		return s.rerank(ctx, req.Query, req.K, req.RerankFactor, req.Filter)
	default:
		return nil, fmt.Errorf("%w: unsupported search mode %q", domain.ErrInvalidRequest, req.Mode)
	}
}

// HybridSearch fuses semantic and lexical scores: alpha*semantic + (1-alpha)*lexical.
func (s *Service) HybridSearch(ctx context.Context, query string, k int, alpha float64) ([]result.Result, error) {
	return s.hybrid(ctx, query, k, alpha, nil)
}

// SearchWithReranking re-scores an enlarged semantic candidate set.
func (s *Service) SearchWithReranking(ctx context.Context, query string, k, factor int) ([]result.Result, error) {
	return s.rerank(ctx, query, k, factor, nil)
}

// SemanticSearch restricts semantic search to documents tagged with any of
// the given entity texts. No entities means an unfiltered search.
func (s *Service) SemanticSearch(ctx context.Context, query string, entities []entity.Entity, k int) ([]result.Result, error) {
	var f filter.Filter
	if texts := entity.Texts(entities); len(texts) > 0 {
		f = filter.Filter{document.KeyEntities: texts}
	}
	results, err := s.store.Search(ctx, query, k, f)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return results, nil
}

func (s *Service) hybrid(
	ctx context.Context, query string, k int, alpha float64, f filter.Filter,
) ([]result.Result, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: alpha must be within [0, 1], got %g", domain.ErrInvalidRequest, alpha)
	}
	if k <= 0 {
		return []result.Result{}, nil
	}

	if alpha == 1 {
		results, err := s.store.Search(ctx, query, k, f)
		if err != nil {
			return nil, fmt.Errorf("hybrid search: %w", err)
		}
		return results, nil
	}

	start := time.Now()
	defer func() { metrics.SearchDuration.WithLabelValues(string(mode.Hybrid)).Observe(time.Since(start).Seconds()) }()

	semantic, err := s.store.Search(ctx, query, 2*k, f)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	lexical := lexicalSearch(s.store.Documents(), query, 2*k, f)

	return fuseWeighted(semantic, lexical, alpha, k), nil
}

func (s *Service) rerank(
	ctx context.Context, query string, k, factor int, f filter.Filter,
) ([]result.Result, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: rerank factor must be at least 1, got %d", domain.ErrInvalidRequest, factor)
	}
	if k <= 0 {
		return []result.Result{}, nil
	}

	start := time.Now()
	defer func() { metrics.SearchDuration.WithLabelValues(string(mode.Rerank)).Observe(time.Since(start).Seconds()) }()

	n := k * factor
	if n > MaxRerankCandidates {
		n = MaxRerankCandidates
	}
	candidates, err := s.store.Search(ctx, query, n, f)
	if err != nil {
		return nil, fmt.Errorf("rerank search: %w", err)
	}
	if len(candidates) <= k {
		return candidates, nil
	}
	return rerank(query, candidates, k), nil
}
