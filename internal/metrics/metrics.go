package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics (dev stub server)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsbot_widget_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsbot_widget_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Conversation metrics
	QuestionsAsked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docsbot_widget_questions_asked_total",
			Help: "Total questions sent to the bot",
		},
	)

	AskFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsbot_widget_ask_failures_total",
			Help: "Total failed ask calls",
		},
		[]string{"reason"}, // "rate_limited" or "error"
	)

	RatingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsbot_widget_ratings_submitted_total",
			Help: "Total answer ratings submitted",
		},
		[]string{"value"}, // "up" or "down"
	)

	RatingRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docsbot_widget_rating_rollbacks_total",
			Help: "Total optimistic ratings rolled back after a failed submit",
		},
	)

	Escalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsbot_widget_escalations_total",
			Help: "Total support escalations",
		},
		[]string{"outcome"}, // "navigated", "cancelled", "closed", "error"
	)

	LeadCaptures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsbot_widget_lead_captures_total",
			Help: "Total lead capture transitions",
		},
		[]string{"resolution"}, // "intercepted", "resolved", "cancelled"
	)

	CopyAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsbot_widget_copy_attempts_total",
			Help: "Total clipboard copies by fallback tier",
		},
		[]string{"tier"}, // "rich", "text", "legacy", "failed"
	)
)
