// Package metrics defines and registers all custom Prometheus metrics for
// the jar ledger API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics self-register with the default Prometheus registry via promauto at
// package load; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jarledger"

// ── Ledger operation metrics ──────────────────────────────────────────────────

// OperationsTotal counts ledger operations that committed successfully.
// Label:
//   - type: "fill", "spend" or "transfer"
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of ledger operations successfully applied.",
	},
	[]string{"type"},
)

// OperationErrorsTotal counts ledger operations that were rejected or failed.
// Label:
//   - reason: "invalid_amount", "invalid_destination", "jar_not_found",
//     "forbidden" or "persistence"
var OperationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Total number of ledger operations rejected or failed.",
	},
	[]string{"reason"},
)

// IdempotentReplaysTotal counts requests answered from a previously recorded
// operation instead of being re-applied.
// Label:
//   - type: "fill", "spend" or "transfer"
var IdempotentReplaysTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of ledger requests served as idempotent replays.",
	},
	[]string{"type"},
)

// OperationDuration measures how long one ledger operation takes end-to-end,
// including the storage transaction.
// Label:
//   - type: "fill", "spend" or "transfer"
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger operations from validation to commit.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"type"},
)

// ── Jar metrics ───────────────────────────────────────────────────────────────

// JarsCreatedTotal counts newly created jars.
// Label:
//   - tier: "free" or "pro"
var JarsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jars_created_total",
		Help:      "Total number of jars created, by owner tier.",
	},
	[]string{"tier"},
)

// JarsDeletedTotal counts cascade-deleted jars.
var JarsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jars_deleted_total",
		Help:      "Total number of jars deleted (including their transactions).",
	},
)
