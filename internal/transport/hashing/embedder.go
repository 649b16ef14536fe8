// Package hashing is an offline embedding provider based on signed feature
// hashing of lower-cased alphanumeric tokens. Deterministic per dimension.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// ModelName identifies vectors produced by this provider in snapshots.
const ModelName = "feature-hashing-v1"

// Embedder hashes tokens into a fixed number of signed buckets.
type Embedder struct {
	dim int
}

// NewEmbedder creates a hashing embedder with dim buckets.
func NewEmbedder(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing embedder: dimension must be positive, got %d", dim)
	}
	return &Embedder{dim: dim}, nil
}

// Embed returns the term-frequency vector of text. Text without tokens
// yields a zero vector, which the store rejects as a model error.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("hashing embed: %w", err)
	}

	vec := make([]float32, e.dim)
	tokens := Tokenize(text)
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dim))
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: len(tokens),
		TotalTokens:  len(tokens),
	}, nil
}

// BatchEmbed embeds each text in order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchFallback(ctx, e, texts)
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

// Tokenize splits text into lower-cased runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
