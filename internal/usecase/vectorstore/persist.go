package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/index"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	"github.com/kailas-cloud/ragcore/internal/repository/snapshot"
)

// Persist writes a point-in-time snapshot. The copy is taken under the read
// lock; the write itself is not transactional with later adds.
func (s *Store) Persist(ctx context.Context) error {
	if s.repo == nil {
		return ErrNoSnapshotRepository
	}

	s.mu.RLock()
	if err := s.checkLocked(); err != nil {
		s.mu.RUnlock()
		return err
	}
	snap := snapshot.Snapshot{
		Config: snapshot.Config{
			ModelName:      s.emb.Model(),
			Dimension:      s.idx.Dim(),
			TotalDocuments: len(s.docs),
			IndexType:      index.TypeFlatIP,
			CreatedAt:      s.now().UTC(),
		},
		Documents: append([]domdoc.Document(nil), s.docs...),
		Index:     s.idx.Clone(),
	}
	s.mu.RUnlock()

	if err := s.repo.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	s.logger.Info("Index persisted",
		zap.Int("documents", snap.Config.TotalDocuments),
		zap.String("model", snap.Config.ModelName),
	)
	return nil
}

// Restore replaces the in-memory state with the stored snapshot. On any
// error the current state is left untouched. A snapshot from another model
// is loaded but flagged in the report.
func (s *Store) Restore(ctx context.Context) (RestoreReport, error) {
	if s.repo == nil {
		return RestoreReport{}, ErrNoSnapshotRepository
	}

	s.addMu.Lock()
	defer s.addMu.Unlock()

	snap, found, err := s.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSerialization) {
			return RestoreReport{}, fmt.Errorf("restore index: %w", err)
		}
		return RestoreReport{}, err
	}
	if !found {
		s.logger.Info("No index snapshot found")
		return RestoreReport{}, nil
	}

	if want := s.emb.Dimension(); snap.Config.Dimension != want || (snap.Index.Len() > 0 && snap.Index.Dim() != want) {
		return RestoreReport{}, domain.NewSerializationError(snapshot.ConfigArtifact,
			fmt.Errorf("snapshot dimension %d, configured model dimension %d: %w",
				snap.Config.Dimension, want, domain.ErrVectorDimMismatch))
	}
	if snap.Index.Dim() != s.emb.Dimension() {
		snap.Index = index.NewFlat(s.emb.Dimension())
	}

	positions := make(map[string]int, len(snap.Documents))
	for i := range snap.Documents {
		positions[snap.Documents[i].ID()] = i
	}

	report := RestoreReport{
		Loaded:        true,
		Documents:     len(snap.Documents),
		SavedModel:    snap.Config.ModelName,
		ModelMismatch: snap.Config.ModelName != s.emb.Model(),
	}
	if report.ModelMismatch {
		s.logger.Warn("Snapshot was built with a different embedding model; reindex recommended",
			zap.String("saved_model", snap.Config.ModelName),
			zap.String("current_model", s.emb.Model()),
		)
	}

	s.mu.Lock()
	s.docs = snap.Documents
	s.positions = positions
	s.idx = snap.Index
	s.broken = nil
	s.mu.Unlock()

	metrics.IndexDocuments.Set(float64(report.Documents))
	s.logger.Info("Index restored",
		zap.Int("documents", report.Documents),
		zap.String("model", report.SavedModel),
	)
	return report, nil
}
