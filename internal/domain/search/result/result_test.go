package result

import (
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain/document"
)

func TestNew(t *testing.T) {
	doc := document.Reconstruct("doc-1", "hello", nil, []float32{1, 0})

	r := New(doc, 0.95, 1)

	if r.ID() != "doc-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Score() != 0.95 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Rank() != 1 {
		t.Errorf("Rank() = %d", r.Rank())
	}
	if d := r.Document(); d.Content() != "hello" {
		t.Errorf("Document().Content() = %q", d.Content())
	}
}

func TestWithScore(t *testing.T) {
	r := New(document.Reconstruct("a", "x", nil, nil), 0.5, 3)
	c := r.WithScore(0.9)

	if c.Score() != 0.9 || c.Rank() != 3 {
		t.Errorf("WithScore = %f/%d", c.Score(), c.Rank())
	}
	if r.Score() != 0.5 {
		t.Error("original result mutated")
	}
}

func TestRanked(t *testing.T) {
	rs := []Result{
		New(document.Reconstruct("a", "x", nil, nil), 0.9, 7),
		New(document.Reconstruct("b", "y", nil, nil), 0.8, 0),
	}
	Ranked(rs)
	for i, r := range rs {
		if r.Rank() != i+1 {
			t.Errorf("rs[%d].Rank() = %d", i, r.Rank())
		}
	}
}
