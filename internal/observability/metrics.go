// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsCreated counts created access tickets by request type.
	TicketsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intranet_access_tickets_created_total",
		Help: "Total number of access tickets created by request type",
	}, []string{"request_type"})

	// TicketsActioned counts ticket transitions out of the New state by outcome.
	TicketsActioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intranet_access_tickets_actioned_total",
		Help: "Total number of access tickets moved to a terminal state by outcome",
	}, []string{"outcome"})

	// BatchItemOutcomes counts per-item batch classifications.
	BatchItemOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intranet_access_batch_item_outcomes_total",
		Help: "Total number of batch item outcomes by operation and class",
	}, []string{"operation", "class"})

	// ActiveEntitlements is the gauge of currently granted entitlements.
	ActiveEntitlements = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "intranet_active_entitlements",
		Help: "Number of currently active entitlements",
	})

	// AuthorizationDenials counts failed application-admin checks.
	AuthorizationDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intranet_authorization_denials_total",
		Help: "Total number of denied approve/reject/confirm attempts",
	})
)
