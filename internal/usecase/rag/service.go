// Package rag orchestrates one chatbot turn: entity extraction,
// classification, concurrent vector and graph retrieval, generation and
// confidence scoring.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	"github.com/kailas-cloud/ragcore/internal/domain/entity"
	domgraph "github.com/kailas-cloud/ragcore/internal/domain/graph"
	domquery "github.com/kailas-cloud/ragcore/internal/domain/query"
	"github.com/kailas-cloud/ragcore/internal/logger"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// Pipeline defaults.
const (
	DefaultTopK             = 5
	DefaultAlpha            = 0.7
	DefaultGeneratorTimeout = 30 * time.Second

	graphRelevance = 0.8
)

// ApologyAnswer is returned when the pipeline cannot produce an answer.
const ApologyAnswer = "I apologize, but I encountered an error while processing your question. " +
	"Please try again in a moment."

// Options tunes retrieval and generation.
type Options struct {
	TopK             int
	Alpha            float64
	GeneratorTimeout time.Duration
}

// Service is the context aggregator.
type Service struct {
	analyzer  Analyzer
	retriever Retriever
	graph     GraphProvider
	generator Generator
	opts      Options
}

// New creates the pipeline. graph and generator may be nil.
func New(analyzer Analyzer, retriever Retriever, graph GraphProvider, generator Generator, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.GeneratorTimeout <= 0 {
		opts.GeneratorTimeout = DefaultGeneratorTimeout
	}
	return &Service{
		analyzer:  analyzer,
		retriever: retriever,
		graph:     graph,
		generator: generator,
		opts:      opts,
	}
}

// Location is a geospatial hint attached to a query.
type Location struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// ProcessGeospatial prefixes the location to the query and processes it.
func (s *Service) ProcessGeospatial(ctx context.Context, query string, loc Location, session string) answer.Response {
	prefix := loc.Address
	if prefix == "" {
		prefix = fmt.Sprintf("%g, %g", loc.Lat, loc.Lon)
	}
	return s.Process(ctx, "Location: "+prefix+". "+query, session)
}

// Process answers one query. Failures never escape: retrieval errors and
// panics produce the apology response with query type "error".
func (s *Service) Process(ctx context.Context, query, session string) (resp answer.Response) {
	if session != "" {
		ctx = logger.WithFields(ctx, zap.String("session_id", session))
	}
	log := logger.FromContext(ctx)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Pipeline panic", zap.Any("panic", r), zap.String("query", query))
			resp = apology(session, nil)
		}
		metrics.PipelineRequestsTotal.WithLabelValues(string(resp.QueryType)).Inc()
		metrics.AnswerConfidence.Observe(resp.Confidence)
		log.Debug("Query processed",
			zap.String("query_type", string(resp.QueryType)),
			zap.Float64("confidence", resp.Confidence),
			zap.Int("sources", len(resp.Sources)),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	qc := &domquery.Context{Query: query}
	qc.Entities = s.analyzer.Extract(query)
	qc.Type = s.analyzer.Classify(query, qc.Entities)

	if err := s.retrieve(ctx, qc); err != nil {
		log.Error("Retrieval failed", zap.Error(err), zap.String("query", query))
		return apology(session, qc.Entities)
	}

	sources := buildSources(qc)
	text := s.generate(ctx, qc)

	return answer.Response{
		Answer:     text,
		Sources:    sources,
		Entities:   orEmpty(qc.Entities),
		Confidence: confidence(qc, text, sources),
		Reasoning: fmt.Sprintf("Generated response based on %d documents and %d knowledge graph entities",
			len(qc.Results), len(qc.Facts)),
		QueryType: qc.Type,
		SessionID: session,
	}
}

// retrieve fetches vector and graph context concurrently. Graph failures
// degrade to no facts; vector failures are returned.
func (s *Service) retrieve(ctx context.Context, qc *domquery.Context) error {
	log := logger.FromContext(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(guard(func() error {
		results, err := s.retriever.HybridSearch(gctx, qc.Query, s.opts.TopK, s.opts.Alpha)
		if err != nil {
			return fmt.Errorf("vector context: %w", err)
		}
		qc.Results = results
		return nil
	}))

	if s.graph != nil && len(qc.Entities) > 0 {
		mode := graphMode(qc.Type)
		names := entity.Texts(qc.Entities)
		g.Go(guard(func() error {
			facts, err := s.graph.QueryForChatbot(gctx, names, mode)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					metrics.GraphErrorsTotal.Inc()
					log.Warn("Graph context unavailable", zap.Error(err), zap.String("mode", string(mode)))
				}
				return nil
			}
			qc.Facts = facts
			return nil
		}))
	}

	return g.Wait()
}

// generate asks the generator for an answer, falling back to a template.
func (s *Service) generate(ctx context.Context, qc *domquery.Context) string {
	if s.generator == nil {
		metrics.GeneratorFallbackTotal.WithLabelValues("absent").Inc()
		return fallbackAnswer(qc)
	}

	gctx, cancel := context.WithTimeout(ctx, s.opts.GeneratorTimeout)
	defer cancel()

	text, err := s.generator.Generate(gctx, buildPrompt(qc.Query, buildContext(qc)))
	if err != nil {
		metrics.GeneratorFallbackTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx).Warn("Generator failed, using template answer", zap.Error(err))
		return fallbackAnswer(qc)
	}
	if text == "" {
		metrics.GeneratorFallbackTotal.WithLabelValues("empty").Inc()
		return fallbackAnswer(qc)
	}
	return text
}

// guard turns a panic in fn into an error so it surfaces through Wait.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}
}

func graphMode(t domquery.Type) domgraph.Mode {
	switch t {
	case domquery.Weather, domquery.Ocean:
		return domgraph.Direct
	default:
		return domgraph.Related
	}
}

func buildSources(qc *domquery.Context) []answer.Source {
	sources := make([]answer.Source, 0, len(qc.Results)+len(qc.Facts))
	for i := range qc.Results {
		doc := qc.Results[i].Document()
		src := answer.Source{
			Kind:      answer.KindDocument,
			Title:     title(&doc),
			Snippet:   truncate(doc.Content(), snippetLimit),
			Relevance: qc.Results[i].Score(),
		}
		if u, ok := doc.Metadata().URL(); ok {
			src.URL = u
		}
		sources = append(sources, src)
	}
	for _, f := range qc.Facts {
		sources = append(sources, answer.Source{
			Kind:       answer.KindKnowledgeGraph,
			Entity:     f.Entity,
			EntityType: f.Type,
			Properties: f.Properties,
			Relevance:  graphRelevance,
		})
	}
	return sources
}

// confidence scores the answer from retrieval strength, graph support,
// answer length and source presence.
func confidence(qc *domquery.Context, text string, sources []answer.Source) float64 {
	c := 0.5 + 0.3*qc.MeanScore()
	c += min(0.1*float64(len(qc.Facts)), 0.2)
	if utf8.RuneCountInString(text) > 100 {
		c += 0.1
	}
	if len(sources) > 0 {
		c += 0.1
	}
	return answer.ClampConfidence(c)
}

func apology(session string, entities []entity.Entity) answer.Response {
	return answer.Response{
		Answer:     ApologyAnswer,
		Sources:    []answer.Source{},
		Entities:   orEmpty(entities),
		Confidence: answer.MinConfidence,
		Reasoning:  "An error occurred while processing the query",
		QueryType:  domquery.Error,
		SessionID:  session,
	}
}

func orEmpty(entities []entity.Entity) []entity.Entity {
	if entities == nil {
		return []entity.Entity{}
	}
	return entities
}
