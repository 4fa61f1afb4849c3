// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebate_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rebate_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	TradeRowsImportedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebate_trade_rows_imported_total",
		Help: "Ingested trade rows by outcome.",
	}, []string{"source", "outcome"})

	SettlementsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rebate_settlements_settled_total",
		Help: "Settlement rows credited to user balances.",
	})

	SettlementsSettledAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rebate_settlements_settled_amount_total",
		Help: "Total rebate amount credited.",
	})

	WithdrawalTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebate_withdrawal_transitions_total",
		Help: "Withdrawal state transitions by target status.",
	}, []string{"status"})
)
