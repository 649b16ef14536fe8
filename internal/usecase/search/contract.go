package search

import (
	"context"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/search/filter"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
)

// Store is the vector index consulted for semantic candidates and lexical scans.
type Store interface {
	Search(ctx context.Context, query string, k int, f filter.Filter) ([]result.Result, error)
	Documents() []domdoc.Document
}
