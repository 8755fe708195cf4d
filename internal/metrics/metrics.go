// Package metrics holds Prometheus instruments for the bundle registry and
// the downstream caches.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BundleCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_cache_hits_total",
			Help: "Bundle lookups answered from the registry identity caches.",
		}, []string{"kind"})

	BundleCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_cache_misses_total",
			Help: "Bundle lookups that fell through to the store.",
		}, []string{"kind"})

	BundleBuildTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_build_total",
			Help: "Bundles constructed from live content and built-in defaults.",
		}, []string{"kind"})

	BundleSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_sync_total",
			Help: "Persisted bundles upgraded to newer built-in defaults.",
		}, []string{"kind"})

	BundleValidationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_validation_errors_total",
			Help: "Merged bundles that failed validation and were not saved.",
		}, []string{"kind"})

	BundleStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_store_errors_total",
			Help: "Store operations that failed, by operation.",
		}, []string{"op"})

	BundleInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_invalidations_total",
			Help: "Bundle invalidations, by trigger.",
		}, []string{"trigger"})

	DownstreamInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seobundle_downstream_invalidations_total",
			Help: "Entries dropped from the rendered-meta and sitemap caches.",
		}, []string{"cache"})
)

func init() {
	prometheus.MustRegister(
		BundleCacheHits,
		BundleCacheMisses,
		BundleBuildTotal,
		BundleSyncTotal,
		BundleValidationErrorsTotal,
		BundleStoreErrorsTotal,
		BundleInvalidationsTotal,
		DownstreamInvalidationsTotal,
	)
}
