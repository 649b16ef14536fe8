package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("embedding pool closed")

// Pool defaults.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

// PoolConfig sizes the worker pool and fixes the output contract.
type PoolConfig struct {
	Model     string
	Dimension int
	Workers   int
	QueueSize int
}

// Provider runs embedding jobs on a bounded worker pool and checks every
// returned vector against the configured dimension.
//
// Cancellation is cooperative: the job context is handed to the inner
// embedder, a job whose context is done when a worker picks it up is
// skipped, and Await returns as soon as the caller's context ends even if
// the computation is still running.
type Provider struct {
	inner  domain.BatchEmbedder
	model  string
	dim    int
	jobs   chan *job
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type job struct {
	ctx      context.Context
	texts    []string
	enqueued time.Time
	fut      *Future
}

// Future is the pending result of a submitted job.
type Future struct {
	done    chan struct{}
	vectors [][]float32
	err     error
}

// Await blocks until the job finishes or ctx ends.
func (f *Future) Await(ctx context.Context) ([][]float32, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("await embedding: %w", ctx.Err())
	case <-f.done:
		return f.vectors, f.err
	}
}

func (f *Future) resolve(vectors [][]float32, err error) {
	f.vectors, f.err = vectors, err
	close(f.done)
}

// NewProvider starts cfg.Workers goroutines embedding through inner.
func NewProvider(inner domain.Embedder, cfg PoolConfig, logger *zap.Logger) (*Provider, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding pool: dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	p := &Provider{
		inner:  domain.BatchOf(inner),
		model:  cfg.Model,
		dim:    cfg.Dimension,
		jobs:   make(chan *job, cfg.QueueSize),
		logger: logger,
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}
	return p, nil
}

// Model returns the configured model name.
func (p *Provider) Model() string { return p.model }

// Dimension returns the fixed output dimension.
func (p *Provider) Dimension() int { return p.dim }

// Embed submits texts and awaits their vectors.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	fut, err := p.Submit(ctx, texts)
	if err != nil {
		return nil, err
	}
	return fut.Await(ctx)
}

// Submit enqueues a job, blocking while the queue is full.
func (p *Provider) Submit(ctx context.Context, texts []string) (*Future, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return nil, ErrPoolClosed
	}

	j := &job{ctx: ctx, texts: texts, enqueued: time.Now(), fut: &Future{done: make(chan struct{})}}
	select {
	case p.jobs <- j:
		return j.fut, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("submit embedding: %w", ctx.Err())
	}
}

// Close stops accepting jobs, lets queued jobs finish and waits for the workers.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Provider) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		metrics.EmbeddingPoolQueueWait.Observe(time.Since(j.enqueued).Seconds())

		if err := j.ctx.Err(); err != nil {
			metrics.EmbeddingPoolSkippedTotal.Inc()
			j.fut.resolve(nil, fmt.Errorf("embedding skipped: %w", err))
			continue
		}

		metrics.EmbeddingPoolInFlight.Inc()
		vectors, err := p.run(j)
		metrics.EmbeddingPoolInFlight.Dec()
		j.fut.resolve(vectors, err)
	}
}

func (p *Provider) run(j *job) (vecs [][]float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Embedding provider panicked", zap.Any("panic", r))
			vecs, err = nil, domain.NewModelError(p.model, fmt.Errorf("provider panic: %v", r))
		}
	}()

	res, err := p.inner.BatchEmbed(j.ctx, j.texts)
	if err != nil {
		if errors.Is(err, domain.ErrModel) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.NewModelError(p.model, err)
	}
	if len(res.Embeddings) != len(j.texts) {
		return nil, domain.NewModelError(p.model,
			fmt.Errorf("got %d vectors for %d texts", len(res.Embeddings), len(j.texts)))
	}
	for i, v := range res.Embeddings {
		if len(v) != p.dim {
			return nil, fmt.Errorf("embedding [%d] of model %q: got %d, want %d: %w",
				i, p.model, len(v), p.dim, domain.ErrVectorDimMismatch)
		}
	}
	return res.Embeddings, nil
}
