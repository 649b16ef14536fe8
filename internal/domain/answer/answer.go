package answer

import (
	"github.com/kailas-cloud/ragcore/internal/domain/entity"
	"github.com/kailas-cloud/ragcore/internal/domain/query"
)

// Confidence bounds.
const (
	MinConfidence = 0.1
	MaxConfidence = 0.95
)

// SourceKind tags the origin of a source entry.
type SourceKind string

// Source kinds.
const (
	KindDocument       SourceKind = "document"
	KindKnowledgeGraph SourceKind = "knowledge_graph"
)

// Source is one piece of evidence behind an answer.
type Source struct {
	Kind       SourceKind     `json:"type"`
	Title      string         `json:"title,omitempty"`
	URL        string         `json:"url,omitempty"`
	Snippet    string         `json:"content,omitempty"`
	Entity     string         `json:"entity,omitempty"`
	EntityType string         `json:"entity_type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Relevance  float64        `json:"relevance"`
}

// Response is the final chatbot answer.
type Response struct {
	Answer     string          `json:"response"`
	Sources    []Source        `json:"sources"`
	Entities   []entity.Entity `json:"entities"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
	QueryType  query.Type      `json:"query_type"`
	SessionID  string          `json:"session_id,omitempty"`
}

// ClampConfidence bounds c to [MinConfidence, MaxConfidence].
func ClampConfidence(c float64) float64 {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
