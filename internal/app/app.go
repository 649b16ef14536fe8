// Package app is the composition root: it turns a Config into wired services.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/db"
	dbRedis "github.com/kailas-cloud/ragcore/internal/db/redis"
	"github.com/kailas-cloud/ragcore/internal/db/sqlite"
	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	"github.com/kailas-cloud/ragcore/internal/repository/embcache"
	"github.com/kailas-cloud/ragcore/internal/repository/graph"
	"github.com/kailas-cloud/ragcore/internal/repository/snapshot"
	"github.com/kailas-cloud/ragcore/internal/transport/hashing"
	openaiEmb "github.com/kailas-cloud/ragcore/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/ragcore/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
	"github.com/kailas-cloud/ragcore/internal/usecase/query"
	"github.com/kailas-cloud/ragcore/internal/usecase/rag"
	searchuc "github.com/kailas-cloud/ragcore/internal/usecase/search"
	"github.com/kailas-cloud/ragcore/internal/usecase/vectorstore"
)

// memoryCacheCleanup is the eviction sweep interval of the in-process cache.
const memoryCacheCleanup = 10 * time.Minute

// App holds the wired services of one process.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Store   *vectorstore.Store
	Search  *searchuc.Service
	RAG     *rag.Service
	Ingest  *ingest.Service
	Health  *healthuc.Service
	Graph   *graph.Graph
	Restore vectorstore.RestoreReport

	pool   *embeddinguc.Provider
	kv     db.Store
	sqlite *sqlite.Store
}

// New builds every component from cfg. When cfg.Index.LoadOnStart is set the
// last snapshot is restored before New returns.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEngineMetrics()

	a := &App{Config: cfg, Logger: logger}

	if err := a.openStores(ctx); err != nil {
		a.closeStores()
		return nil, err
	}

	base, model, err := buildBaseEmbedder(cfg.Embedding, logger)
	if err != nil {
		a.closeStores()
		return nil, err
	}

	var embedder domain.Embedder = base
	if cache := a.cacheStore(); cache != nil {
		ttl := time.Duration(cfg.Embedding.Cache.TTLSec) * time.Second
		embedder = embcache.New(base, cache, model, ttl, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, model, logger)

	a.pool, err = embeddinguc.NewProvider(embedder, embeddinguc.PoolConfig{
		Model:     model,
		Dimension: cfg.Embedding.Dimensions,
		Workers:   cfg.Embedding.Workers,
		QueueSize: cfg.Embedding.QueueSize,
	}, logger)
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("embedding pool: %w", err)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("cache", cfg.Embedding.Cache.Driver),
	)

	a.Store = vectorstore.New(a.pool, snapshot.New(a.snapshotStorage()), logger)
	a.Search = searchuc.New(a.Store)
	a.Ingest = ingest.New(a.Store, logger).WithBatchSize(cfg.Index.BatchSize)

	a.Graph, err = graph.Load(cfg.Graph.Path)
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("knowledge graph: %w", err)
	}
	logger.Info("Knowledge graph loaded",
		zap.String("path", cfg.Graph.Path),
		zap.Int("entities", a.Graph.Len()),
	)

	// A typed nil *Generator wrapped in rag.Generator is not nil.
	var generator rag.Generator
	if cfg.Generator.Provider == "openai" {
		generator = openaiEmb.NewGenerator(&openaiEmb.GeneratorConfig{
			APIKey:      cfg.Generator.APIKey,
			BaseURL:     cfg.Generator.BaseURL,
			Model:       cfg.Generator.Model,
			MaxTokens:   cfg.Generator.MaxTokens,
			Temperature: cfg.Generator.Temperature,
			Logger:      logger,
		})
	}

	a.RAG = rag.New(query.Analyzer{}, a.Search, a.Graph, generator, rag.Options{
		TopK:             cfg.Retrieval.TopK,
		Alpha:            *cfg.Retrieval.Alpha,
		GeneratorTimeout: time.Duration(cfg.Generator.TimeoutSec) * time.Second,
	})

	a.Health = healthuc.New(a.Store, a.dbPinger(), healthChecker(base))

	if cfg.Index.LoadOnStart {
		report, err := a.Store.Restore(ctx)
		if err != nil {
			a.shutdown()
			return nil, fmt.Errorf("restore index: %w", err)
		}
		a.Restore = report
		logger.Info("Index restored",
			zap.Bool("loaded", report.Loaded),
			zap.Int("documents", report.Documents),
			zap.Bool("model_mismatch", report.ModelMismatch),
		)
	}

	return a, nil
}

// Close drains the embedding pool, saves the index when configured and
// releases the database handles.
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.Config.Index.SaveOnShutdown {
		if perr := a.Store.Persist(ctx); perr != nil {
			err = fmt.Errorf("persist index: %w", perr)
		} else {
			a.Logger.Info("Index saved", zap.Int("documents", a.Store.Len()))
		}
	}
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	if a.pool != nil {
		a.pool.Close()
	}
	a.closeStores()
}

func (a *App) openStores(ctx context.Context) error {
	cfg := a.Config
	if cfg.UsesKV() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		a.kv = store

		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			return fmt.Errorf("%s not ready: %w", cfg.Database.Driver, err)
		}
		a.Logger.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
		)
	}
	if cfg.UsesSQLite() {
		store, err := sqlite.NewStore(cfg.Database.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.sqlite = store
		a.Logger.Info("Opened sqlite store", zap.String("path", cfg.Database.SQLitePath))
	}
	return nil
}

func (a *App) closeStores() {
	if a.kv != nil {
		a.kv.Close()
		a.kv = nil
	}
	if a.sqlite != nil {
		a.sqlite.Close()
		a.sqlite = nil
	}
}

// cacheStore returns the embedding cache backend, nil when caching is off.
func (a *App) cacheStore() db.KVStore {
	switch a.Config.Embedding.Cache.Driver {
	case "memory":
		ttl := time.Duration(a.Config.Embedding.Cache.TTLSec) * time.Second
		return embcache.NewMemoryStore(ttl, memoryCacheCleanup)
	case "redis", "valkey":
		return a.kv
	case "sqlite":
		return a.sqlite
	default:
		return nil
	}
}

func (a *App) snapshotStorage() snapshot.Storage {
	switch a.Config.Index.Storage {
	case "redis", "valkey":
		return snapshot.NewKVStorage(a.kv, a.Config.Index.KeyPrefix)
	case "sqlite":
		return snapshot.NewKVStorage(a.sqlite, a.Config.Index.KeyPrefix)
	default:
		return snapshot.NewDirStorage(a.Config.Index.Path)
	}
}

// dbPinger returns nil when no database is configured.
func (a *App) dbPinger() healthuc.DBPinger {
	var ps pingers
	if a.kv != nil {
		ps = append(ps, a.kv)
	}
	if a.sqlite != nil {
		ps = append(ps, a.sqlite)
	}
	if len(ps) == 0 {
		return nil
	}
	return ps
}

type pingers []db.Pinger

func (ps pingers) Ping(ctx context.Context) error {
	var errs []error
	for _, p := range ps {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildBaseEmbedder returns the provider adapter and the model name written
// into snapshots.
func buildBaseEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, string, error) {
	switch cfg.Provider {
	case "openai":
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:     logger,
		}), cfg.Model, nil
	case "hashing":
		e, err := hashing.NewEmbedder(cfg.Dimensions)
		if err != nil {
			return nil, "", fmt.Errorf("hashing embedder: %w", err)
		}
		return e, hashing.ModelName, nil
	default:
		return nil, "", fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// embeddingHealthChecker adapts the base provider to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func healthChecker(embedder domain.Embedder) healthuc.EmbeddingChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
