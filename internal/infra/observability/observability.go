// Package observability exposes Prometheus metrics for the POS back office.
// Counters live here as package vars so services increment them without
// holding a registry reference; the API server mounts /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Credit Ledger Metrics ──────────────────────────────────────────────────

// CreditCharges tracks charges applied to credit accounts.
var CreditCharges = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tillpoint",
	Subsystem: "credit",
	Name:      "charges_total",
	Help:      "Total charges applied to credit accounts.",
})

// CreditPayments tracks payments applied to credit accounts.
var CreditPayments = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tillpoint",
	Subsystem: "credit",
	Name:      "payments_total",
	Help:      "Total payments applied to credit accounts.",
})

// CreditRejections tracks rejected ledger operations by reason.
var CreditRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tillpoint",
	Subsystem: "credit",
	Name:      "rejections_total",
	Help:      "Total rejected ledger operations by reason.",
}, []string{"reason"})

// CreditSalesSettled tracks credit sales marked paid.
var CreditSalesSettled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tillpoint",
	Subsystem: "credit",
	Name:      "sales_settled_total",
	Help:      "Total credit sales marked paid.",
})

// ─── Inventory Metrics ──────────────────────────────────────────────────────

// StockDeductions tracks stock decrements by source.
var StockDeductions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tillpoint",
	Subsystem: "inventory",
	Name:      "stock_deductions_total",
	Help:      "Total stock deductions by source (sale, settlement).",
}, []string{"source"})

// StockDeductionFailures tracks best-effort deductions that were skipped.
var StockDeductionFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tillpoint",
	Subsystem: "inventory",
	Name:      "stock_deduction_failures_total",
	Help:      "Total per-item stock deductions skipped (missing item or store error).",
})

// ─── Sales Metrics ──────────────────────────────────────────────────────────

// SalesRecorded tracks recorded sale transactions by kind.
var SalesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tillpoint",
	Subsystem: "sales",
	Name:      "recorded_total",
	Help:      "Total recorded transactions by kind (sale, credit_sale, payment).",
}, []string{"kind"})
