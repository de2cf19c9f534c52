package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_session_transitions_total",
		Help: "Agent session state transitions",
	}, []string{"from", "to"})

	metricCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_calls_total",
		Help: "Agent service calls by operation and outcome",
	}, []string{"op", "outcome"}) // outcome: ok, error, stale

	metricCallMS = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_call_ms",
		Help:    "Agent service call latency (ms)",
		Buckets: prometheus.ExponentialBuckets(50, 1.8, 10),
	}, []string{"op"})

	metricBusyRejects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_busy_rejects_total",
		Help: "Questions rejected because another was outstanding",
	})
)
