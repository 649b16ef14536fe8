package rag

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain/entity"
	domgraph "github.com/kailas-cloud/ragcore/internal/domain/graph"
	domquery "github.com/kailas-cloud/ragcore/internal/domain/query"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
)

// Analyzer extracts entities and classifies queries.
type Analyzer interface {
	Extract(text string) []entity.Entity
	Classify(query string, entities []entity.Entity) domquery.Type
}

// Retriever runs hybrid vector retrieval.
type Retriever interface {
	HybridSearch(ctx context.Context, query string, k int, alpha float64) ([]result.Result, error)
}

// GraphProvider returns knowledge graph facts for named entities.
type GraphProvider interface {
	QueryForChatbot(ctx context.Context, names []string, mode domgraph.Mode) ([]domgraph.Fact, error)
}

// Generator produces answer text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
