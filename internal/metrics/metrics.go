// Package metrics exposes Prometheus instrumentation for issue actions and
// the local page-state server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Action Metrics
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "janitor_actions_total",
			Help: "Total number of dispatched issue actions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "janitor_action_duration_seconds",
			Help:    "Duration of issue action round-trips in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	ActionsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "janitor_actions_in_flight",
			Help: "Current number of issue actions awaiting a server response",
		},
		[]string{"kind"},
	)

	IssueRefetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "janitor_issue_refetches_total",
			Help: "Total number of issue list loads by trigger",
		},
		[]string{"trigger"}, // "load", "reconcile", "manual"
	)

	// Local server metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "janitor_http_requests_total",
			Help: "Total number of page-state server requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "janitor_http_request_duration_seconds",
			Help:    "Page-state server request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Actions adapts the package metrics to the dispatcher's observer hooks
type Actions struct{}

// ActionStarted marks an action as in flight
func (Actions) ActionStarted(kind string) {
	ActionsInFlight.WithLabelValues(kind).Inc()
}

// ActionFinished records the outcome of an action that was in flight
func (Actions) ActionFinished(kind, outcome string, duration time.Duration) {
	ActionsInFlight.WithLabelValues(kind).Dec()
	RecordAction(kind, outcome, duration)
}

// RecordAction records a completed action
func RecordAction(kind, outcome string, duration time.Duration) {
	ActionsTotal.WithLabelValues(kind, outcome).Inc()
	if duration > 0 {
		ActionDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// RecordRefetch counts an issue list load
func RecordRefetch(trigger string) {
	IssueRefetches.WithLabelValues(trigger).Inc()
}

// RecordAPIRequest records a page-state server request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
