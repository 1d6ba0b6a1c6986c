// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DialogTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_turns_total",
			Help: "Total number of dialog turns handled, by intent and action",
		},
		[]string{"intent", "action"},
	)

	SlotValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_slot_validation_failures_total",
			Help: "Total number of slot values rejected, by slot",
		},
		[]string{"slot"},
	)

	RequestsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialog_requests_enqueued_total",
			Help: "Total number of dining requests submitted to the queue",
		},
	)

	DialogTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dialog_turn_duration_seconds",
			Help: "Duration of dialog turn handling in seconds",
		},
		[]string{"intent"},
	)

	FulfillmentExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_executions_total",
			Help: "Total number of fulfillment attempts, by status",
		},
		[]string{"status"},
	)

	FulfillmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fulfillment_duration_seconds",
			Help: "Duration of fulfillment processing in seconds",
		},
		[]string{"status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of suggestion emails sent, by outcome",
		},
		[]string{"outcome"},
	)
)
