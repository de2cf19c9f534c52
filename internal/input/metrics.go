package input

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricVoiceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "input_voice_transitions_total",
		Help: "Voice channel state transitions",
	}, []string{"from", "to"})

	metricCaptureOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "input_voice_captures_total",
		Help: "Voice captures by outcome",
	}, []string{"outcome"})
)
