package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsAppliedTotal,
		paymentsRevenueTotal,
		enrollmentsCompletedTotal,
		sideEffectFailuresTotal,
		ledgerAuditMismatches,
	)
}

var (
	paymentsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_applied_total",
			Help: "Successfully applied payment events by payment type (onetime/installment).",
		},
		[]string{"payment_type"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of applied payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	enrollmentsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrollments_completed_total",
			Help: "Enrollments that reached payment_status=completed.",
		},
	)

	sideEffectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Failed best-effort side effects by kind (email/referral).",
		},
		[]string{"kind"},
	)

	ledgerAuditMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_audit_mismatches_total",
			Help: "Enrollments whose ledger sum/count disagreed with the aggregate during audit.",
		},
	)
)

func IncPaymentApplied(paymentType string) {
	paymentsAppliedTotal.WithLabelValues(norm(paymentType)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncEnrollmentCompleted() { enrollmentsCompletedTotal.Inc() }

func IncSideEffectFailure(kind string) {
	sideEffectFailuresTotal.WithLabelValues(norm(kind)).Inc()
}

func IncLedgerAuditMismatch() { ledgerAuditMismatches.Inc() }
