// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Punches counts ledger writes by kind (check_in, check_out, manual) and
	// outcome (created, updated, overnight, error).
	Punches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeclock",
		Name:      "punches_total",
		Help:      "Attendance ledger writes by kind and outcome.",
	}, []string{"kind", "outcome"})

	// AuthFailures counts rejected requests by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeclock",
		Name:      "auth_failures_total",
		Help:      "Requests rejected by the authorization guard.",
	}, []string{"reason"})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "timeclock",
		Name:      "sessions_swept_total",
		Help:      "Expired sessions removed by the sweep job.",
	})
)
