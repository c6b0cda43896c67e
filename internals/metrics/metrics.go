// Package metrics: counter Prometheus untuk rekonsiliasi pembayaran & payroll.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallbackOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahfidzku",
		Subsystem: "callbacks",
		Name:      "ingested_total",
		Help:      "Gateway callbacks by source and ingestion outcome.",
	}, []string{"source", "outcome"})

	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahfidzku",
		Subsystem: "payments",
		Name:      "transitions_total",
		Help:      "Applied payment status transitions.",
	}, []string{"from", "to"})

	PayrollTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahfidzku",
		Subsystem: "payroll",
		Name:      "transitions_total",
		Help:      "Applied payroll/disbursement status transitions.",
	}, []string{"entity", "to"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahfidzku",
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Scheduled job runs by job and result.",
	}, []string{"job", "result"})

	JobItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahfidzku",
		Subsystem: "jobs",
		Name:      "items_total",
		Help:      "Items processed by scheduled jobs.",
	}, []string{"job", "result"})
)
