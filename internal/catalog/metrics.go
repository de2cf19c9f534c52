package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetches_total",
		Help: "Catalog fetches by outcome",
	}, []string{"outcome"})

	metricFetchMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fetch_ms",
		Help:    "Catalog fetch latency (ms)",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})
)
