package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	// CacheHits counts cache hits by layer.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsio_cache_hits_total",
		Help: "Total cache hits by layer",
	}, []string{"layer"})

	// CacheMisses counts cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsio_cache_misses_total",
		Help: "Total cache misses",
	})

	// CacheErrors counts cache operation errors by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsio_cache_errors_total",
		Help: "Total cache operation errors by operation",
	}, []string{"operation"})

	// CacheSize tracks bytes read from cache by layer.
	CacheSize = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsio_cache_read_bytes_total",
		Help: "Total bytes served from cache by layer",
	}, []string{"layer"})
)
