package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP handler latency by route and status class.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"route", "status"},
	)

	// TrackingEvents counts accepted offer tracking events by type.
	TrackingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_tracking_events_total",
			Help: "Accepted offer tracking events",
		},
		[]string{"event_type"},
	)

	// ModerationDecisions counts submission status updates by outcome.
	ModerationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_submission_decisions_total",
			Help: "Moderation decisions on community promo submissions",
		},
		[]string{"status"},
	)

	// WidgetFallbacks counts how often the neighbor hydration chain fell
	// through to the category query.
	WidgetFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_category_fallbacks_total",
			Help: "Recommendation widgets served by the category fallback",
		},
	)
)
