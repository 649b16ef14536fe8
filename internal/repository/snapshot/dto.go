package snapshot

import (
	"time"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// Artifact names.
const (
	IndexArtifact    = "index.bin"
	MetadataArtifact = "metadata.json"
	ConfigArtifact   = "config.json"
)

// Config is the human-readable snapshot record.
type Config struct {
	ModelName      string    `json:"model_name"`
	Dimension      int       `json:"dimension"`
	TotalDocuments int       `json:"total_documents"`
	IndexType      string    `json:"index_type"`
	CreatedAt      time.Time `json:"created_at"`
}

type metadataFile struct {
	ModelName    string           `json:"model_name"`
	Dimension    int              `json:"dimension"`
	Documents    []documentRecord `json:"documents"`
	IDToPosition map[string]int   `json:"id_to_index"`
}

type documentRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding"`
}

func toRecord(doc *domdoc.Document) documentRecord {
	return documentRecord{
		ID:        doc.ID(),
		Content:   doc.Content(),
		Metadata:  doc.Metadata(),
		Embedding: doc.Embedding(),
	}
}

func (r *documentRecord) toDomain() domdoc.Document {
	var meta domdoc.Metadata
	if r.Metadata != nil {
		meta = domdoc.Metadata(r.Metadata)
	}
	return domdoc.Reconstruct(r.ID, r.Content, meta, r.Embedding)
}
