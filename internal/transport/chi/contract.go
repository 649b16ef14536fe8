package chi

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
	"github.com/kailas-cloud/ragcore/internal/usecase/rag"
	searchuc "github.com/kailas-cloud/ragcore/internal/usecase/search"
	"github.com/kailas-cloud/ragcore/internal/usecase/vectorstore"
)

// Chatbot answers natural-language queries.
type Chatbot interface {
	Process(ctx context.Context, query, session string) answer.Response
	ProcessGeospatial(ctx context.Context, query string, loc rag.Location, session string) answer.Response
}

// Searcher runs search requests against the index.
type Searcher interface {
	Search(ctx context.Context, req searchuc.Request) ([]result.Result, error)
}

// Index exposes document lookup, statistics and persistence.
type Index interface {
	Get(id string) (domdoc.Document, error)
	Stats() vectorstore.Stats
	Persist(ctx context.Context) error
	Len() int
}

// Ingester validates and indexes records.
type Ingester interface {
	IngestRecords(ctx context.Context, records []ingest.Record) (ingest.Report, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
