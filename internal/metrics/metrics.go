// Package metrics declares the Prometheus collectors shared by the
// authentication flow and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionOperations counts register/logon/logoff calls.
	// Labels:
	//   - operation: "register", "logon", "logoff"
	//   - outcome: "success", "rejected", "error"
	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskbox_session_operations_total",
			Help: "Total number of session lifecycle operations",
		},
		[]string{"operation", "outcome"},
	)

	// TokenVerifications counts session middleware decisions.
	// Labels:
	//   - result: "accepted" or the rejection reason
	TokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskbox_token_verifications_total",
			Help: "Total number of session token verifications by result",
		},
		[]string{"result"},
	)

	PasswordHashDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskbox_password_hash_duration_seconds",
			Help:    "Time spent deriving password keys",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskbox_http_requests_total",
			Help: "Total number of HTTP requests by method and status class",
		},
		[]string{"method", "status"},
	)
)
