package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and pipeline Prometheus metrics.
var (
	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_documents",
			Help:      "Documents held by the vector index",
		},
	)

	IndexAddedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_documents_added_total",
			Help:      "Documents offered to the index by outcome",
		},
		[]string{"result"}, // "added" / "skipped"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds by mode",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	PipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pipeline_requests_total",
			Help:      "Processed chat queries by classified type",
		},
		[]string{"query_type"},
	)

	GeneratorFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generator_fallback_total",
			Help:      "Answers produced by the deterministic template",
		},
		[]string{"reason"}, // "absent" / "error" / "empty"
	)

	GraphErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "graph_errors_total",
			Help:      "Graph context lookups that failed and were degraded",
		},
	)

	AnswerConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "answer_confidence",
			Help:      "Confidence of produced answers",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers retrieval and pipeline metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(IndexAddedTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(PipelineRequestsTotal)
	prometheus.MustRegister(GeneratorFallbackTotal)
	prometheus.MustRegister(GraphErrorsTotal)
	prometheus.MustRegister(AnswerConfidence)
	engineMetricsRegistered = true
}
