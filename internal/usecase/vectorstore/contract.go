package vectorstore

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/repository/snapshot"
)

// Embedder vectorizes texts with a fixed model and dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Dimension() int
}

// SnapshotRepository persists and restores index snapshots.
type SnapshotRepository interface {
	Save(ctx context.Context, snap snapshot.Snapshot) error
	Load(ctx context.Context) (snapshot.Snapshot, bool, error)
}
