// Package metrics defines and registers all custom Prometheus metrics for the
// identity gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// through promauto and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitRejectedTotal counts requests turned away with 429.
// Label:
//   - class: endpoint class ("login", "register", "api")
var RateLimitRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejected_total",
		Help:      "Total number of requests rejected by the rate limiter, by endpoint class.",
	},
	[]string{"class"},
)

// RateLimitBuckets tracks how many buckets the in-process limiter holds.
// Buckets are never evicted, so this only grows.
var RateLimitBuckets = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rate_limit_buckets",
		Help:      "Current number of token buckets held in memory.",
	},
)

// ── Authentication ────────────────────────────────────────────────────────────

// AuthRejectedTotal counts protected requests rejected by the authentication gate.
// Label:
//   - reason: "missing", "malformed", "invalid_signature", "expired", "denied", "role"
var AuthRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejected_total",
		Help:      "Total number of requests rejected by the authentication gate, by reason.",
	},
	[]string{"reason"},
)

// ── Accounts ──────────────────────────────────────────────────────────────────

// AccountOperationsTotal counts register and login outcomes.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "conflict", "invalid_credentials", "invalid_input", "error"
var AccountOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_operations_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)
