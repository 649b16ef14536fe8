package vectorstore

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

var testVocab = []string{"insat", "rainfall", "forecast", "ocean", "color", "cyclone", "soil", "moisture"}

// wordEmbedder counts vocabulary words; unknown words contribute nothing.
type wordEmbedder struct {
	model string
	dim   int
	err   error

	mu    sync.Mutex
	calls int
}

func newWordEmbedder() *wordEmbedder {
	return &wordEmbedder{model: "word-model", dim: len(testVocab)}
}

func (e *wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, e.dim)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			for j, term := range testVocab {
				if j < e.dim && w == term {
					v[j] += 2
				}
			}
		}
		out[i] = v
	}
	return out, nil
}

func (e *wordEmbedder) Model() string  { return e.model }
func (e *wordEmbedder) Dimension() int { return e.dim }

func (e *wordEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func mustDoc(t *testing.T, id, content string, meta domdoc.Metadata) domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, content, meta)
	if err != nil {
		t.Fatalf("document.New(%q): %v", id, err)
	}
	return d
}

func newTestStore(emb Embedder, repo SnapshotRepository) *Store {
	return New(emb, repo, zap.NewNop())
}
