package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legal_lens_search_duration_seconds",
			Help:    "Search request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"endpoint"},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legal_lens_search_total",
			Help: "Total number of searches processed",
		},
		[]string{"status"},
	)

	ResultsBySource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legal_lens_results_by_source_total",
			Help: "Fused results attributed to each retrieval source",
		},
		[]string{"source"},
	)

	SemanticFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "legal_lens_semantic_fallbacks_total",
			Help: "Searches where semantic retrieval degraded to lexical",
		},
	)

	StatuteResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legal_lens_statute_resolutions_total",
			Help: "Statute reference lookups by outcome",
		},
		[]string{"outcome"},
	)

	FusedResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "legal_lens_fused_results_count",
			Help:    "Number of fused results per search",
			Buckets: []float64{0, 1, 2, 5, 10},
		},
	)

	EmbeddingTokensUsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "legal_lens_embedding_tokens_used",
			Help: "Total embedding tokens used",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legal_lens_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legal_lens_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	CorpusDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "legal_lens_corpus_documents",
			Help: "Documents in the active corpus snapshot",
		},
	)

	KGNodesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "legal_lens_kg_nodes_total",
			Help: "Total nodes in knowledge graph",
		},
	)

	KGEdgesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "legal_lens_kg_edges_total",
			Help: "Total edges in knowledge graph",
		},
	)

	UserSatisfaction = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "legal_lens_satisfaction_score",
			Help: "User feedback satisfaction score",
		},
		[]string{"helpful"},
	)
)

func Init() {
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(ResultsBySource)
	prometheus.MustRegister(SemanticFallbacks)
	prometheus.MustRegister(StatuteResolutions)
	prometheus.MustRegister(FusedResultsCount)
	prometheus.MustRegister(EmbeddingTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CorpusDocuments)
	prometheus.MustRegister(KGNodesTotal)
	prometheus.MustRegister(KGEdgesTotal)
	prometheus.MustRegister(UserSatisfaction)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
