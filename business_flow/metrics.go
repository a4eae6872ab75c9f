// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain metrics for reconciliation dashboards
var (
	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total gateway webhook deliveries by processing outcome",
		},
		[]string{"outcome"},
	)

	payoutTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_transitions_total",
			Help: "Total payout status transitions by target status",
		},
		[]string{"to_status"},
	)

	payoutCascadeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_cascade_failures_total",
			Help: "Completed payouts whose ledger cascade failed and needs reconciliation",
		},
	)
)

// Webhook outcome label values
const (
	webhookOutcomeCompleted = "completed"
	webhookOutcomeFailed    = "failed"
	webhookOutcomeDuplicate = "duplicate"
	webhookOutcomeRejected  = "rejected"
)
