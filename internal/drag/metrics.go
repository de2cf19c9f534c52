package drag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricGestures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drag_gestures_total",
		Help: "Drag gestures started",
	})

	metricRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drag_rejected_total",
		Help: "Drag starts rejected by reason",
	}, []string{"reason"})

	metricSaveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drag_placement_save_errors_total",
		Help: "Failed placement writes",
	})
)
