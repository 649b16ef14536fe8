package ingest

import (
	"context"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// Indexer adds documents, skipping ids it already holds.
type Indexer interface {
	Add(ctx context.Context, docs []domdoc.Document) (int, error)
}
