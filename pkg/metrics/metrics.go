// Package metrics provides the centralized Prometheus metrics registry
// reference for the storefront client. All metrics are defined in their
// respective packages (api, query) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the storefront
// client. All metrics are automatically registered via promauto in
// their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/api):
//   - storefront_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - storefront_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - storefront_request_errors_total{class} (Counter): Errors by class (auth, client, server, network)
//   - storefront_request_retries_total{error_class} (Counter): Retry attempts by error class
//
// Query Cache Metrics (pkg/query):
//   - storefront_query_cache_hits_total (Counter): Reads served from cache
//   - storefront_query_cache_misses_total (Counter): Reads that fetched upstream
//   - storefront_query_invalidations_total (Counter): Entries marked stale
//   - storefront_query_refetches_total (Counter): Background refetches after invalidation
//   - storefront_query_fetch_errors_total{origin} (Counter): Failed fetches by origin (get, refetch)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(storefront_query_cache_hits_total[5m])) /
//   (sum(rate(storefront_query_cache_hits_total[5m])) + sum(rate(storefront_query_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(storefront_request_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(storefront_request_duration_seconds_bucket[5m]))
//
//   # Session Expiry Rate
//   rate(storefront_request_errors_total{class="auth"}[5m])
