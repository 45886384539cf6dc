package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TemplateRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communication_template_renders_total",
			Help: "Total number of template renders by template and outcome",
		},
		[]string{"template", "outcome"},
	)

	NotificationsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communication_notifications_routed_total",
			Help: "Total number of notifications routed, by type and outcome",
		},
		[]string{"type", "priority", "outcome"},
	)

	DeliveriesQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communication_deliveries_queued_total",
			Help: "Total number of channel deliveries queued",
		},
		[]string{"channel"},
	)

	DeliveriesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communication_deliveries_completed_total",
			Help: "Total number of channel deliveries processed, by status",
		},
		[]string{"channel", "status"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "communication_delivery_duration_seconds",
			Help:    "Duration of a single channel send in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	PreferenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communication_preference_cache_lookups_total",
			Help: "Preference cache lookups by result",
		},
		[]string{"result"},
	)
)

// Outcome labels for NotificationsRouted.
const (
	OutcomeDispatched = "dispatched"
	OutcomeQuietHours = "quiet_hours"
	OutcomeNoChannel  = "no_channel"
	OutcomeRejected   = "rejected"
)
