package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// gatedEmbedder blocks every call until release is closed.
type gatedEmbedder struct {
	dim     int
	release chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func newGatedEmbedder(dim int) *gatedEmbedder {
	return &gatedEmbedder{dim: dim, release: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (g *gatedEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return domain.EmbeddingResult{}, ctx.Err()
	}
	return domain.EmbeddingResult{Embedding: make([]float32, g.dim)}, nil
}

func newTestProvider(t *testing.T, inner domain.Embedder, dim, workers int) *Provider {
	t.Helper()
	p, err := NewProvider(inner, PoolConfig{Model: "test-model", Dimension: dim, Workers: workers, QueueSize: 8}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestNewProvider_InvalidDimension(t *testing.T) {
	if _, err := NewProvider(&mockEmbedder{}, PoolConfig{Dimension: 0}, zap.NewNop()); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestProvider_Embed(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2, 3}}}
	p := newTestProvider(t, inner, 3, 2)

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 || len(vecs[1]) != 3 {
		t.Errorf("vecs = %v", vecs)
	}
	if p.Dimension() != 3 || p.Model() != "test-model" {
		t.Errorf("Dimension/Model = %d/%q", p.Dimension(), p.Model())
	}
}

func TestProvider_EmptyInput(t *testing.T) {
	inner := &mockEmbedder{}
	p := newTestProvider(t, inner, 3, 1)

	vecs, err := p.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("Embed(nil) = %v, %v", vecs, err)
	}
	if inner.batchCalls != 0 {
		t.Errorf("inner called %d times", inner.batchCalls)
	}
}

func TestProvider_DimensionMismatch(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	p := newTestProvider(t, inner, 3, 1)

	_, err := p.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestProvider_WrapsProviderFailureAsModelError(t *testing.T) {
	inner := &mockEmbedder{batchErr: errors.New("connection refused")}
	p := newTestProvider(t, inner, 3, 1)

	_, err := p.Embed(context.Background(), []string{"a"})
	var me *domain.ModelError
	if !errors.As(err, &me) || me.Model != "test-model" {
		t.Errorf("expected ModelError, got %v", err)
	}
}

func TestProvider_CountMismatch(t *testing.T) {
	inner := &mockEmbedder{batchResult: domain.BatchEmbeddingResult{Embeddings: [][]float32{{1, 2, 3}}}}
	p := newTestProvider(t, inner, 3, 1)

	_, err := p.Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrModel) {
		t.Errorf("expected ErrModel, got %v", err)
	}
}

func TestProvider_RunsInParallel(t *testing.T) {
	inner := newGatedEmbedder(2)
	p := newTestProvider(t, inner, 2, 2)
	ctx := context.Background()

	f1, err := p.Submit(ctx, []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	f2, err := p.Submit(ctx, []string{"b"})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-inner.started:
		case <-time.After(2 * time.Second):
			t.Fatal("both jobs should start concurrently")
		}
	}
	close(inner.release)

	if _, err := f1.Await(ctx); err != nil {
		t.Errorf("f1: %v", err)
	}
	if _, err := f2.Await(ctx); err != nil {
		t.Errorf("f2: %v", err)
	}
}

func TestProvider_AwaitReturnsOnCallerCancel(t *testing.T) {
	inner := newGatedEmbedder(2)
	p := newTestProvider(t, inner, 2, 1)
	defer close(inner.release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Embed(ctx, []string{"a"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestProvider_SkipsCancelledQueuedJob(t *testing.T) {
	inner := newGatedEmbedder(2)
	p := newTestProvider(t, inner, 2, 1)
	bg := context.Background()

	blocker, err := p.Submit(bg, []string{"first"})
	if err != nil {
		t.Fatal(err)
	}
	<-inner.started

	ctx, cancel := context.WithCancel(bg)
	queued, err := p.Submit(ctx, []string{"second"})
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	close(inner.release)

	if _, err := blocker.Await(bg); err != nil {
		t.Fatalf("blocker: %v", err)
	}
	if _, err := queued.Await(bg); !errors.Is(err, context.Canceled) {
		t.Errorf("expected Canceled for skipped job, got %v", err)
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}
}

func TestProvider_SubmitAfterClose(t *testing.T) {
	p, err := NewProvider(&mockEmbedder{}, PoolConfig{Dimension: 1, Workers: 1}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	p.Close()
	p.Close()

	if _, err := p.Submit(context.Background(), []string{"a"}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}
