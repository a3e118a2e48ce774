// Package metrics defines and registers the custom Prometheus metrics of the
// account service. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics register with the default Prometheus registry on package load
// (promauto); the /metrics handler exposes that registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "rejected" (bad credentials), "cache_error", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionCacheOpsTotal counts session cache operations.
// Labels:
//   - op: "put", "refresh", "get", "delete"
//   - result: "ok", "miss" (get and refresh), "error"
var SessionCacheOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_ops_total",
		Help:      "Total number of session cache operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// SessionVerificationsTotal counts role verification outcomes.
// Labels:
//   - role: "User" or "Admin"
//   - result: "authenticated", "unauthenticated", "error"
var SessionVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_verifications_total",
		Help:      "Total number of bearer token verifications, by role and result.",
	},
	[]string{"role", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsDroppedTotal counts audit events discarded because the worker
// queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped on a full queue.",
	},
)

// AuditQueueDepth tracks the number of events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each worker channel.",
	},
	[]string{"worker_id"},
)
