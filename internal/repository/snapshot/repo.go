// Package snapshot persists the vector index as three artifacts: the binary
// similarity structure, the document metadata with embeddings, and a config
// record. The config is written last and marks a complete snapshot.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/index"
)

// Snapshot is a point-in-time copy of the index state.
type Snapshot struct {
	Config    Config
	Documents []domdoc.Document
	Index     *index.Flat
}

// Repo reads and writes snapshots through a Storage.
type Repo struct {
	storage Storage
}

// New creates a snapshot repository.
func New(s Storage) *Repo {
	return &Repo{storage: s}
}

// Save writes all artifacts. Config goes last.
func (r *Repo) Save(ctx context.Context, snap Snapshot) error {
	if snap.Index == nil {
		return fmt.Errorf("save snapshot: nil index")
	}

	idxBytes, err := snap.Index.MarshalBinary()
	if err != nil {
		return domain.NewSerializationError(IndexArtifact, err)
	}

	meta := metadataFile{
		ModelName:    snap.Config.ModelName,
		Dimension:    snap.Config.Dimension,
		Documents:    make([]documentRecord, len(snap.Documents)),
		IDToPosition: make(map[string]int, len(snap.Documents)),
	}
	for i := range snap.Documents {
		meta.Documents[i] = toRecord(&snap.Documents[i])
		meta.IDToPosition[snap.Documents[i].ID()] = i
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return domain.NewSerializationError(MetadataArtifact, err)
	}

	cfgBytes, err := json.MarshalIndent(snap.Config, "", "  ")
	if err != nil {
		return domain.NewSerializationError(ConfigArtifact, err)
	}

	if err := r.storage.Write(ctx, IndexArtifact, idxBytes); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := r.storage.Write(ctx, MetadataArtifact, metaBytes); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := r.storage.Write(ctx, ConfigArtifact, cfgBytes); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads and cross-checks all artifacts. found is false when no snapshot
// exists; a partial or inconsistent snapshot is a SerializationError.
func (r *Repo) Load(ctx context.Context) (snap Snapshot, found bool, err error) {
	cfgBytes, err := r.storage.Read(ctx, ConfigArtifact)
	if errors.Is(err, ErrArtifactNotFound) {
		_, idxErr := r.storage.Read(ctx, IndexArtifact)
		switch {
		case errors.Is(idxErr, ErrArtifactNotFound):
			return Snapshot{}, false, nil
		case idxErr != nil:
			return Snapshot{}, false, fmt.Errorf("load snapshot: %w", idxErr)
		}
		return Snapshot{}, false, domain.NewSerializationError(ConfigArtifact, ErrArtifactNotFound)
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
		return Snapshot{}, false, domain.NewSerializationError(ConfigArtifact, err)
	}

	idxBytes, err := r.read(ctx, IndexArtifact)
	if err != nil {
		return Snapshot{}, false, err
	}
	idx := index.NewFlat(0)
	if err := idx.UnmarshalBinary(idxBytes); err != nil {
		return Snapshot{}, false, domain.NewSerializationError(IndexArtifact, err)
	}

	metaBytes, err := r.read(ctx, MetadataArtifact)
	if err != nil {
		return Snapshot{}, false, err
	}
	var meta metadataFile
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return Snapshot{}, false, domain.NewSerializationError(MetadataArtifact, err)
	}

	docs, err := validate(&cfg, &meta, idx)
	if err != nil {
		return Snapshot{}, false, err
	}

	return Snapshot{Config: cfg, Documents: docs, Index: idx}, true, nil
}

func (r *Repo) read(ctx context.Context, name string) ([]byte, error) {
	data, err := r.storage.Read(ctx, name)
	if errors.Is(err, ErrArtifactNotFound) {
		return nil, domain.NewSerializationError(name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

func validate(cfg *Config, meta *metadataFile, idx *index.Flat) ([]domdoc.Document, error) {
	n := len(meta.Documents)
	if idx.Len() != n {
		return nil, domain.NewSerializationError(IndexArtifact,
			fmt.Errorf("index holds %d vectors for %d documents", idx.Len(), n))
	}
	if cfg.TotalDocuments != n {
		return nil, domain.NewSerializationError(ConfigArtifact,
			fmt.Errorf("config records %d documents, metadata has %d", cfg.TotalDocuments, n))
	}
	if n > 0 && (cfg.Dimension != idx.Dim() || meta.Dimension != idx.Dim()) {
		return nil, domain.NewSerializationError(ConfigArtifact,
			fmt.Errorf("dimension %d/%d does not match index dimension %d", cfg.Dimension, meta.Dimension, idx.Dim()))
	}
	if len(meta.IDToPosition) != n {
		return nil, domain.NewSerializationError(MetadataArtifact,
			fmt.Errorf("id map has %d entries for %d documents", len(meta.IDToPosition), n))
	}

	docs := make([]domdoc.Document, n)
	for i := range meta.Documents {
		rec := &meta.Documents[i]
		if pos, ok := meta.IDToPosition[rec.ID]; !ok || pos != i {
			return nil, domain.NewSerializationError(MetadataArtifact,
				fmt.Errorf("id map disagrees for document %q at position %d", rec.ID, i))
		}
		if len(rec.Embedding) != idx.Dim() {
			return nil, domain.NewSerializationError(MetadataArtifact,
				fmt.Errorf("document %q embedding has %d dimensions, want %d", rec.ID, len(rec.Embedding), idx.Dim()))
		}
		if !sameVector(rec.Embedding, idx.Vector(i)) {
			return nil, domain.NewSerializationError(MetadataArtifact,
				fmt.Errorf("document %q embedding differs from index vector %d", rec.ID, i))
		}
		docs[i] = rec.toDomain()
	}
	return docs, nil
}

func sameVector(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
