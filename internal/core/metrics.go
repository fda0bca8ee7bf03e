package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// coreRequestsTotal — запросы к ядру по операции и исходу.
	coreRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_core_requests_total",
			Help: "Количество запросов к ядру по операциям и исходам",
		},
		[]string{"operation", "outcome"},
	)

	// coreRequestDuration — длительность запросов к ядру.
	coreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcb_core_request_duration_seconds",
			Help:    "Длительность запросов к ядру в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// breakerState — 0 closed, 1 half-open, 2 open.
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcb_core_circuit_breaker_state",
			Help: "Состояние circuit breaker ядра (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	breakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_core_circuit_breaker_trips_total",
			Help: "Количество размыканий circuit breaker ядра",
		},
		[]string{"name"},
	)
)
