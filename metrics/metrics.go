// Package metrics defines the Prometheus collectors exposed on /metrics.
// Collectors are registered at init via promauto so every binary that
// imports the engine exports the same series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerEntries counts entries appended to the ledger, by kind.
	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loyalty",
		Subsystem: "ledger",
		Name:      "entries_total",
		Help:      "Ledger entries appended, by kind.",
	}, []string{"kind"})

	// RuleRejections counts operations refused by a business rule.
	RuleRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loyalty",
		Name:      "rule_rejections_total",
		Help:      "Operations rejected by a business rule.",
	}, []string{"rule"})

	// BirthdayBonuses counts birthday bonus grants that won the yearly claim.
	BirthdayBonuses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loyalty",
		Name:      "birthday_bonus_grants_total",
		Help:      "Birthday bonuses granted.",
	})

	// ReconciliationRuns counts per-member audit passes.
	ReconciliationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loyalty",
		Subsystem: "reconciliation",
		Name:      "runs_total",
		Help:      "Per-member reconciliation audits performed.",
	})

	// ReconciliationRepairs counts audits that found and repaired drift.
	ReconciliationRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loyalty",
		Subsystem: "reconciliation",
		Name:      "repairs_total",
		Help:      "Cached balances repaired from the ledger.",
	})

	// ReconciliationDrift accumulates the absolute drift repaired, in points.
	ReconciliationDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loyalty",
		Subsystem: "reconciliation",
		Name:      "drift_points_total",
		Help:      "Absolute point drift repaired by reconciliation.",
	})

	// HTTPRequestDuration observes API latency by route and status class.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "loyalty",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
