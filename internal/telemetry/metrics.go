package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safari_payments_initiated_total",
		Help: "STK push initiations by outcome.",
	}, []string{"outcome"})

	CallbacksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safari_mpesa_callbacks_total",
		Help: "M-PESA callbacks by handling result.",
	}, []string{"result"})

	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safari_bookings_created_total",
		Help: "Booking attempts by outcome.",
	}, []string{"outcome"})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "safari_mpesa_request_duration_seconds",
		Help:    "Latency of outbound Daraja API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	LedgerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safari_ledger_events_total",
		Help: "Payment events consumed by the ledger worker by result.",
	}, []string{"result"})
)
