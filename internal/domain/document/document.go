package document

import (
	"fmt"
)

// Document limits.
const (
	// MaxIDLength is the maximum document identifier length.
	MaxIDLength = 256
	// MaxContentSize is the maximum document content size in bytes.
	MaxContentSize = 163840 // 160KB
)

// Document is an ingested passage (immutable value object).
type Document struct {
	id        string
	content   string
	metadata  Metadata
	embedding []float32
}

// New validates and creates a Document without an embedding.
func New(id, content string, metadata Metadata) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	return Document{
		id:       id,
		content:  content,
		metadata: metadata.Clone(),
	}, nil
}

// Reconstruct creates a Document without validation (snapshot hydration).
func Reconstruct(id, content string, metadata Metadata, embedding []float32) Document {
	return Document{id: id, content: content, metadata: metadata, embedding: embedding}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// Metadata returns the document metadata.
func (d *Document) Metadata() Metadata { return d.metadata }

// Embedding returns the unit-normalized embedding, nil until indexed.
func (d *Document) Embedding() []float32 { return d.embedding }

// Indexed reports whether the document carries an embedding.
func (d *Document) Indexed() bool { return d.embedding != nil }

// WithEmbedding returns a copy with the given embedding set.
func (d *Document) WithEmbedding(v []float32) Document {
	return Document{id: d.id, content: d.content, metadata: d.metadata, embedding: v}
}
