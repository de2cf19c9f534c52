package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "widget_instances_active",
		Help: "Registered widget instances",
	})

	metricRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "widget_instances_rejected_total",
		Help: "Activations refused because the key was already held",
	})
)
