package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nosmoke_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nosmoke_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	JobsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nosmoke_jobs_published_total",
			Help: "Total inference jobs enqueued",
		},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nosmoke_jobs_processed_total",
			Help: "Total inference jobs consumed by the worker",
		},
		[]string{"status"}, // "ok", "inference_error", "inference_timeout", "persist_error"
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nosmoke_inference_duration_seconds",
			Help:    "External inference call duration",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 15},
		},
	)

	MessagesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nosmoke_messages_persisted_total",
			Help: "Total dialogue messages appended",
		},
		[]string{"type"}, // "USER", "REACTIVE", "PROACTIVE"
	)

	// Real-time metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nosmoke_ws_sessions_active",
			Help: "Currently subscribed WebSocket sessions",
		},
	)

	PayloadsPushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nosmoke_ws_payloads_pushed_total",
			Help: "Total payloads delivered to live sessions",
		},
	)

	GreetingsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nosmoke_greetings_sent_total",
			Help: "Total proactive greetings persisted and pushed",
		},
	)
)
