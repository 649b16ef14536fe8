package health

import "context"

// IndexChecker verifies the document list and the vector index agree.
type IndexChecker interface {
	Healthy() error
}

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
