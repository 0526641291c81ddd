package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks reads served from a fresh cache entry.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_query_cache_hits_total",
			Help: "Total number of query reads served from cache",
		},
	)

	// CacheMisses tracks reads that required an upstream fetch.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_query_cache_misses_total",
			Help: "Total number of query reads that fetched upstream",
		},
	)

	// Invalidations tracks entries marked stale by prefix invalidation.
	Invalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_query_invalidations_total",
			Help: "Total number of cache entries marked stale",
		},
	)

	// Refetches tracks background refetches triggered for subscribed
	// entries after invalidation.
	Refetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_query_refetches_total",
			Help: "Total number of background refetches after invalidation",
		},
	)

	// FetchErrors tracks failed fetches by origin.
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_query_fetch_errors_total",
			Help: "Total number of failed query fetches",
		},
		[]string{"origin"}, // "get", "refetch"
	)
)
