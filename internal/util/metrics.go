package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsServedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_served_total",
		Help: "Total number of recommendation requests served",
	})

	RecommendationStageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_stage_total",
		Help: "Cascade stage that produced the returned candidates",
	}, []string{"stage"})

	RecommendationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_latency_seconds",
		Help:    "End-to-end latency of recommendation requests",
		Buckets: prometheus.DefBuckets,
	})

	RankingFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranking_failures_total",
		Help: "Ranking attempts degraded to unranked output",
	})

	ProductsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "products_ingested_total",
		Help: "Total number of products upserted from sources",
	}, []string{"source"})

	SourceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "source_failures_total",
		Help: "Source fetches that failed and were skipped",
	}, []string{"source"})

	IngestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_latency_seconds",
		Help:    "Latency of full ingestion runs",
		Buckets: prometheus.DefBuckets,
	})

	EmbeddingCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embedding_cache_hits_total",
		Help: "Embedding lookups answered from cache",
	})

	EmbeddingCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embedding_cache_misses_total",
		Help: "Embedding lookups that required a service call",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
