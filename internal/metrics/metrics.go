// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	// PointQueries counts per-file point queries by result.
	PointQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sst_point_queries_total",
		Help: "Total per-file point queries by result",
	}, []string{"result"})

	// ExtractDuration tracks the latency of a whole extraction request.
	ExtractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sst_extract_duration_seconds",
		Help:    "Extraction request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// DatasetLoads counts dataset file loads by result.
	DatasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sst_dataset_loads_total",
		Help: "Total dataset file loads by result",
	}, []string{"result"})

	// DatasetLoadDuration tracks the time to read one file.
	DatasetLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sst_dataset_load_duration_seconds",
		Help:    "Dataset file load duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	})

	// DatasetCache counts dataset cache lookups by outcome.
	DatasetCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sst_dataset_cache_lookups_total",
		Help: "Total dataset cache lookups by outcome",
	}, []string{"outcome"}) // "hit" or "miss"

	// DatasetCacheEvictions counts datasets dropped from the cache.
	DatasetCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sst_dataset_cache_evictions_total",
		Help: "Total datasets evicted from the cache",
	})

	// MatchupsSaved counts persisted match-up records.
	MatchupsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sst_matchups_saved_total",
		Help: "Total match-up records saved",
	})
)
