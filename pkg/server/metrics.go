package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for the serving layer.
type metrics struct {
	eventsTotal    *prometheus.CounterVec
	framesTotal    prometheus.Counter
	frameBytes     prometheus.Counter
	flushDuration  prometheus.Histogram
	activeSessions prometheus.Gauge
	sessionErrors  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumen",
			Name:      "events_total",
			Help:      "Client events processed, by outcome.",
		}, []string{"status"}),

		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lumen",
			Name:      "frames_total",
			Help:      "Mutation frames sent to clients.",
		}),

		frameBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lumen",
			Name:      "frame_bytes_total",
			Help:      "Mutation frame bytes sent to clients.",
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lumen",
			Name:      "flush_duration_seconds",
			Help:      "Render flush duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lumen",
			Name:      "active_sessions",
			Help:      "Currently connected websocket sessions.",
		}),

		sessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumen",
			Name:      "session_errors_total",
			Help:      "Session failures, by stage.",
		}, []string{"stage"}),
	}
}
