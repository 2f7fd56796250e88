package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by namespace family
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swproxy_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"family"}, // "static", "pages"
	)

	// CacheMisses tracks cache misses by namespace family
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swproxy_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"family"},
	)

	// CacheWriteBytes tracks bytes written into the cache
	CacheWriteBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swproxy_cache_write_bytes_total",
			Help: "Total bytes written into the cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swproxy_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan", "drop"
	)
)
