package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamshield_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scamshield_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamshield_chat_turns_total",
			Help: "Total chat turns by outcome",
		},
		[]string{"outcome"}, // "completed" or "failed"
	)

	ChatFragments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scamshield_chat_fragments_total",
			Help: "Total reply fragments streamed",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scamshield_active_sessions",
			Help: "Chat sessions currently held in memory",
		},
	)

	// Analyzer metrics
	ImageAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamshield_image_analyses_total",
			Help: "Total image analyses by outcome",
		},
		[]string{"outcome"}, // "ok", "rejected" or "failed"
	)
)
