// Package metrics defines and registers all custom Prometheus metrics for the
// members system. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default Prometheus registry at
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "members"

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// MutationsTotal counts successful lifecycle mutations.
// Label:
//   - action: "Created", "Updated", "Deleted", or "Restored"
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of successful member lifecycle mutations, by action.",
	},
	[]string{"action"},
)

// MutationErrorsTotal counts lifecycle mutations that failed.
// Label:
//   - reason: short failure category ("validation", "not_found", "has_dependents", "store", "audit_inconsistency")
var MutationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutation_errors_total",
		Help:      "Total number of member lifecycle mutations that failed, by reason.",
	},
	[]string{"reason"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditAppendFailuresTotal counts audit entries that could not be persisted
// after the underlying mutation already succeeded. A non-zero value means the
// ledger needs manual reconciliation.
var AuditAppendFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_append_failures_total",
		Help:      "Total number of audit appends that failed after a successful mutation.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionMonitorsActive tracks the number of inactivity monitors currently
// attached to authenticated sessions.
var SessionMonitorsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_monitors_active",
		Help:      "Current number of attached session inactivity monitors.",
	},
)

// SessionExpirationsTotal counts sessions force-expired by the inactivity
// monitor (including explicit "logout now" from the warning dialog).
var SessionExpirationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_expirations_total",
		Help:      "Total number of sessions ended by the inactivity monitor.",
	},
)
