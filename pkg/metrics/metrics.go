// Package metrics provides the central Prometheus registry reference
// for the splits.io client. Metrics are defined in their respective
// packages (client, cache, ratelimit) via promauto to maintain
// modularity and avoid circular dependencies; this package documents
// them in one place.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - splitsio_requests_total{endpoint, status} (Counter): Total requests
//     by endpoint and HTTP status ("cached" for cache hits,
//     "network_error" for transport failures)
//   - splitsio_request_duration_seconds{endpoint} (Histogram): Request
//     duration by endpoint, cache hits included
//   - splitsio_errors_total{class} (Counter): Errors by class
//     (client, server, network)
//
// Cache Metrics (pkg/cache):
//   - splitsio_cache_hits_total{layer} (Counter): Cache hits by layer
//   - splitsio_cache_misses_total (Counter): Cache misses
//   - splitsio_cache_read_bytes_total{layer} (Counter): Bytes served
//     from cache
//   - splitsio_cache_errors_total{operation} (Counter): Cache operation
//     errors
//
// Pacing Metrics (pkg/ratelimit):
//   - splitsio_pace_waits_total (Counter): Requests delayed by the pacer
//   - splitsio_pace_wait_seconds (Histogram): Pacer wait durations
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(splitsio_cache_hits_total[5m])) /
//	(sum(rate(splitsio_cache_hits_total[5m])) + sum(rate(splitsio_cache_misses_total[5m])))
//
//	# Request Error Rate
//	rate(splitsio_errors_total[5m])
//
//	# P95 Request Latency
//	histogram_quantile(0.95, rate(splitsio_request_duration_seconds_bucket[5m]))
