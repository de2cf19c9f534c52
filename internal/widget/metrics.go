package widget

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "widget_activations_total",
		Help: "Widget instances activated",
	})

	metricSlideChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "widget_slide_changes_total",
		Help: "Carousel navigation by direction",
	}, []string{"direction"})

	metricQuestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "widget_questions_total",
		Help: "Questions emitted by modality",
	}, []string{"modality"})

	metricTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "widget_turns_total",
		Help: "Completed question/answer turns by modality",
	}, []string{"modality"})

	metricDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "widget_questions_dropped_total",
		Help: "Questions or answers dropped by reason",
	}, []string{"reason"})

	metricNotices = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "widget_notices_total",
		Help: "Transient notices shown by kind",
	}, []string{"kind"})
)
