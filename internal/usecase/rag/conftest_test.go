package rag

import (
	"context"
	"sync"
	"testing"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	domgraph "github.com/kailas-cloud/ragcore/internal/domain/graph"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
)

type mockRetriever struct {
	mu      sync.Mutex
	results []result.Result
	err     error
	panics  bool
	queries []string
}

func (m *mockRetriever) HybridSearch(_ context.Context, q string, k int, _ float64) ([]result.Result, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.panics {
		panic("retriever exploded")
	}
	if m.err != nil {
		return nil, m.err
	}
	out := m.results
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type mockGraph struct {
	mu    sync.Mutex
	facts []domgraph.Fact
	err   error
	modes []domgraph.Mode
	names [][]string
}

func (m *mockGraph) QueryForChatbot(_ context.Context, names []string, mode domgraph.Mode) ([]domgraph.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes = append(m.modes, mode)
	m.names = append(m.names, names)
	if m.err != nil {
		return nil, m.err
	}
	return m.facts, nil
}

type mockGenerator struct {
	text    string
	err     error
	panics  bool
	block   bool
	prompts []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.panics {
		panic("generator exploded")
	}
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.text, m.err
}

func passage(t *testing.T, id, content string, meta domdoc.Metadata, score float64) result.Result {
	t.Helper()
	d, err := domdoc.New(id, content, meta)
	if err != nil {
		t.Fatal(err)
	}
	return result.New(d, score, 0)
}
