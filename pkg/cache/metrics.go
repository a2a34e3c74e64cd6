package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by layer (redis).
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opcall_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// cacheMisses tracks cache misses.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opcall_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// cacheSize tracks cache size in bytes by layer.
	cacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "opcall_cache_size_bytes",
			Help: "Current size of response cache in bytes",
		},
		[]string{"layer"}, // "redis"
	)

	// cacheErrors tracks cache operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opcall_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
