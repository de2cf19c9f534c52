package convlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convlog_writes_total",
		Help: "Conversation log writes by outcome",
	}, []string{"outcome"})

	metricWriteMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "convlog_write_ms",
		Help:    "Conversation log write latency (ms)",
		Buckets: prometheus.ExponentialBuckets(5, 2, 10),
	})

	metricRegenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "convlog_conversation_id_regenerated_total",
		Help: "Turns whose conversation id had to be regenerated",
	})
)
