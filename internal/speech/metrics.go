package speech

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCaptures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_captures_total",
		Help: "Speech captures started by recognizer",
	}, []string{"recognizer"})

	metricEventDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_event_drops_total",
		Help: "Events dropped due to slow consumer (channel backpressure)",
	})

	metricAudioBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_audio_bytes_total",
		Help: "Total audio bytes enqueued to the transcription provider",
	})

	metricAudioDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_audio_drops_total",
		Help: "Audio frames dropped due to backpressure",
	})

	metricConnectMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_connect_ms",
		Help:    "Time to establish provider connection (ms)",
		Buckets: prometheus.ExponentialBuckets(10, 1.8, 10),
	})
)
