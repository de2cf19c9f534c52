package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_connections_total",
		Help: "Surface connections by outcome",
	}, []string{"outcome"})

	metricActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_connections_active",
		Help: "Open surface connections",
	})

	metricMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_messages_total",
		Help: "Inbound surface messages by type",
	}, []string{"type"})
)
