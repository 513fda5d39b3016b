// Package metrics defines and registers all custom Prometheus metrics for the
// BANGKA console gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Auth flow metrics ─────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login submissions that reached the backend.
// Labels:
//   - outcome: "success", "rejected", "unavailable", "busy"
//   - role: the user role on success, "" otherwise
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome and role.",
	},
	[]string{"outcome", "role"},
)

// LogoutsTotal counts completed logouts, including acknowledgments after a
// password change.
// Label:
//   - trigger: "user" or "password_change"
var LogoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of console logouts, by trigger.",
	},
	[]string{"trigger"},
)

// PasswordChangesTotal counts forced password change submissions.
// Label:
//   - outcome: "success", "invalid", "rejected"
var PasswordChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of password change submissions, by outcome.",
	},
	[]string{"outcome"},
)

// GateDecisionsTotal counts auth gate decisions.
// Label:
//   - decision: "allow", "login", "force_change", "wrong_tree", "pending"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of auth gate decisions, by decision.",
	},
	[]string{"decision"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// UpstreamRequestDuration measures calls to the registry backend.
// Labels:
//   - endpoint: "login", "logout", "set_new_password", "password_reset", "password_reset_confirm"
//   - status: HTTP status code, or "error" on transport failure
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of registry backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint", "status"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsDroppedTotal counts audit events dropped because a queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped because the worker queue was full.",
	},
)
