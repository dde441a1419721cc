// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardSessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_sessions_started_total",
			Help: "Total number of application wizard sessions started",
		},
	)

	WizardStepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Total number of step transitions by direction",
		},
		[]string{"direction"},
	)

	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"outcome"},
	)

	PaymentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_requests_total",
			Help: "Total number of payment gateway requests by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	PaymentRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "payment_request_duration_seconds",
			Help: "Duration of payment gateway requests in seconds",
		},
		[]string{"stage"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of confirmation notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)
