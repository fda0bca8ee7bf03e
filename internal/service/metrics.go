// metrics.go — бизнес-метрики maker-checker.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// decisionsTotal — решения чекеров по команде и исходу.
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_maker_checker_decisions_total",
			Help: "Количество решений по записям maker-checker (approve, reject, delete) по исходам",
		},
		[]string{"command", "outcome"},
	)

	// gateChecksTotal — проверки гейта по результату.
	gateChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_maker_checker_gate_checks_total",
			Help: "Количество проверок необходимости одобрения операции",
		},
		[]string{"requires_approval"},
	)
)
