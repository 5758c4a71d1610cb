// Package metrics defines and registers all custom Prometheus metrics for the
// identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default Prometheus registry at package
// init through promauto and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Labels:
//   - role: the declared role (e.g. "traveler"), or "unknown"
//   - outcome: "created", "invalid", "conflict" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by role and outcome.",
	},
	[]string{"role", "outcome"},
)

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "not_active", "throttled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Approval metrics ──────────────────────────────────────────────────────────

// ApprovalDecisionsTotal counts admin approval actions.
// Labels:
//   - action: "approve" or "reject"
//   - outcome: "applied", "already_processed" or "error"
var ApprovalDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_decisions_total",
		Help:      "Total number of provider approval decisions, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateRejectionsTotal counts requests stopped by the authentication or
// authorization gate.
// Labels:
//   - gate: "authentication" or "authorization"
//   - reason: "no_token", "token_expired", "token_invalid", "unknown_subject",
//     "not_active", "no_principal" or "role"
var GateRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_rejections_total",
		Help:      "Total number of requests rejected by the access gates.",
	},
	[]string{"gate", "reason"},
)

// ── Hashing metrics ───────────────────────────────────────────────────────────

// HashQueueDepth tracks how many password jobs are waiting for a hashing worker.
var HashQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hash_queue_depth",
		Help:      "Current number of password jobs pending in the hash worker pool.",
	},
)

// HashDuration measures how long a single hash or compare job takes on a worker.
// Label:
//   - op: "hash" or "compare"
var HashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of bcrypt hash and compare operations.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"op"},
)
