package search

import (
	"context"
	"sync"
	"testing"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/search/filter"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
)

// mockStore returns its canned semantic ranking truncated to k.
type mockStore struct {
	mu        sync.Mutex
	semantic  []result.Result
	docs      []domdoc.Document
	err       error
	ks        []int
	filters   []filter.Filter
	docsCalls int
}

func (m *mockStore) Search(_ context.Context, _ string, k int, f filter.Filter) ([]result.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ks = append(m.ks, k)
	m.filters = append(m.filters, f)
	if m.err != nil {
		return nil, m.err
	}
	out := append([]result.Result(nil), m.semantic...)
	if len(out) > k {
		out = out[:k]
	}
	return result.Ranked(out), nil
}

func (m *mockStore) Documents() []domdoc.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docsCalls++
	return m.docs
}

func doc(t *testing.T, id, content string, meta domdoc.Metadata) domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, content, meta)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func hit(d domdoc.Document, score float64) result.Result {
	return result.New(d, score, 0)
}

func ids(results []result.Result) []string {
	out := make([]string, len(results))
	for i := range results {
		out[i] = results[i].ID()
	}
	return out
}
