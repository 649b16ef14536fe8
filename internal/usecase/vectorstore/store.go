// Package vectorstore maintains the ordered document list, the id→position
// map and the inner-product index over unit-normalized embeddings.
//
// Adds are serialized by addMu. Embedding runs outside the state lock; the
// append to the document list and the index insert happen under one write
// lock, so readers see either the pre-add or the post-add state.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/search/filter"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
	"github.com/kailas-cloud/ragcore/internal/index"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	"github.com/kailas-cloud/ragcore/internal/vecmath"
)

// ErrNoSnapshotRepository is returned by Persist/Restore when no repository is configured.
var ErrNoSnapshotRepository = errors.New("no snapshot repository configured")

// Stats describes the index.
type Stats struct {
	TotalDocuments int     `json:"total_documents"`
	IndexSize      int     `json:"index_size"`
	Dimension      int     `json:"dimension"`
	ModelName      string  `json:"model_name"`
	IndexType      string  `json:"index_type"`
	MemoryUsageMB  float64 `json:"memory_usage_mb"`
}

// RestoreReport describes the outcome of Restore.
type RestoreReport struct {
	Loaded        bool
	Documents     int
	ModelMismatch bool
	SavedModel    string
}

// Store is the vector index store.
type Store struct {
	emb    Embedder
	repo   SnapshotRepository
	logger *zap.Logger
	now    func() time.Time

	addMu sync.Mutex

	mu        sync.RWMutex
	docs      []domdoc.Document
	positions map[string]int
	idx       *index.Flat
	broken    error
}

// New creates an empty store. repo may be nil when persistence is disabled.
func New(emb Embedder, repo SnapshotRepository, logger *zap.Logger) *Store {
	return &Store{
		emb:       emb,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
		positions: make(map[string]int),
		idx:       index.NewFlat(emb.Dimension()),
	}
}

// Add embeds and inserts documents whose ids are not yet stored.
// Existing ids and repeats within the batch are skipped, not updated.
func (s *Store) Add(ctx context.Context, docs []domdoc.Document) (int, error) {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	s.mu.RLock()
	err := s.checkLocked()
	var fresh []domdoc.Document
	if err == nil {
		seen := make(map[string]struct{}, len(docs))
		for i := range docs {
			id := docs[i].ID()
			if _, ok := s.positions[id]; ok {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			fresh = append(fresh, docs[i])
		}
	}
	s.mu.RUnlock()
	if err != nil {
		return 0, s.markBroken(err)
	}

	skipped := len(docs) - len(fresh)
	metrics.IndexAddedTotal.WithLabelValues("skipped").Add(float64(skipped))
	if len(fresh) == 0 {
		return 0, nil
	}

	texts := make([]string, len(fresh))
	for i := range fresh {
		texts[i] = fresh[i].Content()
	}
	raw, err := s.emb.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	if len(raw) != len(fresh) {
		return 0, fmt.Errorf("add documents: %w", domain.NewModelError(s.emb.Model(),
			fmt.Errorf("got %d vectors for %d documents", len(raw), len(fresh))))
	}

	vecs := make([][]float32, len(raw))
	for i, v := range raw {
		n, err := vecmath.Normalize(v)
		if err != nil {
			return 0, fmt.Errorf("add document %q: %w", fresh[i].ID(),
				domain.NewModelError(s.emb.Model(), err))
		}
		vecs[i] = n
		fresh[i] = fresh[i].WithEmbedding(n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		s.broken = err
		return 0, err
	}
	if err := s.idx.Add(vecs...); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	base := len(s.docs)
	s.docs = append(s.docs, fresh...)
	for i := range fresh {
		s.positions[fresh[i].ID()] = base + i
	}
	if err := s.checkLocked(); err != nil {
		s.broken = err
		return 0, err
	}

	metrics.IndexAddedTotal.WithLabelValues("added").Add(float64(len(fresh)))
	metrics.IndexDocuments.Set(float64(len(s.docs)))

	s.logger.Debug("Documents indexed",
		zap.Int("added", len(fresh)),
		zap.Int("skipped", skipped),
		zap.Int("total", len(s.docs)),
	)
	return len(fresh), nil
}

// Search returns up to k documents by cosine similarity to query, best first.
// Without a filter min(2k, n) neighbours are scanned; with a filter every
// document is a candidate.
func (s *Store) Search(ctx context.Context, query string, k int, f filter.Filter) ([]result.Result, error) {
	start := time.Now()
	defer func() { metrics.SearchDuration.WithLabelValues("semantic").Observe(time.Since(start).Seconds()) }()

	if k <= 0 {
		return []result.Result{}, nil
	}

	s.mu.RLock()
	err := s.checkLocked()
	empty := len(s.docs) == 0
	s.mu.RUnlock()
	if err != nil {
		return nil, s.markBroken(err)
	}
	if empty {
		return []result.Result{}, nil
	}

	raw, err := s.emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(raw) != 1 {
		return nil, fmt.Errorf("embed query: %w", domain.NewModelError(s.emb.Model(),
			fmt.Errorf("got %d vectors for 1 query", len(raw))))
	}
	q, err := vecmath.Normalize(raw[0])
	if err != nil {
		// A query with no features has no direction to compare against.
		return []result.Result{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkLocked(); err != nil {
		return nil, err
	}

	n := len(s.docs)
	candidates := n
	if f.IsEmpty() && 2*k < n {
		candidates = 2 * k
	}

	hits, err := s.idx.Search(q, candidates)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	out := make([]result.Result, 0, k)
	for _, h := range hits {
		doc := s.docs[h.Position]
		if !f.IsEmpty() && !f.Matches(doc.Metadata()) {
			continue
		}
		out = append(out, result.New(doc, float64(h.Score), 0))
		if len(out) == k {
			break
		}
	}
	return result.Ranked(out), nil
}

// Get returns a stored document by id.
func (s *Store) Get(id string) (domdoc.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.positions[id]
	if !ok {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return s.docs[pos], nil
}

// Documents returns the stored documents in insertion order.
func (s *Store) Documents() []domdoc.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domdoc.Document(nil), s.docs...)
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Stats returns index statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		TotalDocuments: len(s.docs),
		IndexSize:      s.idx.Len(),
		Dimension:      s.idx.Dim(),
		ModelName:      s.emb.Model(),
		IndexType:      index.TypeFlatIP,
		MemoryUsageMB:  float64(s.idx.MemoryBytes()) / 1024 / 1024,
	}
}

// Model returns the configured embedding model name.
func (s *Store) Model() string { return s.emb.Model() }

// checkLocked verifies the document/vector count invariant. Caller holds mu.
func (s *Store) checkLocked() error {
	if s.broken != nil {
		return s.broken
	}
	if s.idx.Len() != len(s.docs) || len(s.positions) != len(s.docs) {
		return &domain.IndexStateError{Documents: len(s.docs), Vectors: s.idx.Len()}
	}
	return nil
}

func (s *Store) markBroken(err error) error {
	var ise *domain.IndexStateError
	if !errors.As(err, &ise) {
		return err
	}
	s.mu.Lock()
	if s.broken == nil {
		s.broken = err
		s.logger.Error("Index state corrupted, refusing further mutation",
			zap.Int("documents", ise.Documents),
			zap.Int("vectors", ise.Vectors),
		)
	}
	s.mu.Unlock()
	return err
}

// Healthy reports the document/vector consistency check.
func (s *Store) Healthy() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkLocked()
}
