package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "buzz_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "buzz_http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Rewards metrics
	RedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_redemptions_total",
			Help: "Redemption attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	MileageOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_mileage_operations_total",
			Help: "Mileage ledger operations by type and outcome",
		},
		[]string{"type", "outcome"},
	)
	MileageAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_mileage_amount_total",
			Help: "Mileage points moved by transaction type",
		},
		[]string{"type"},
	)
	SettlementTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_settlement_transitions_total",
			Help: "Settlement requests reaching a status",
		},
		[]string{"status"},
	)
	ReferralClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_referral_claims_total",
			Help: "Referral reward claims by reward and outcome",
		},
		[]string{"reward", "outcome"},
	)
	CouponsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "buzz_coupons_issued_total",
			Help: "Coupons issued",
		},
	)
	SweptTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_swept_total",
			Help: "Rows moved to expired by the sweeper",
		},
		[]string{"entity"},
	)
	SalesRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_sales_requests_total",
			Help: "Requests to the sales system by status",
		},
		[]string{"status"},
	)
)

var once sync.Once

// InitMetrics registers every collector with the default registry. Safe to
// call more than once.
func InitMetrics() {
	once.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(HTTPRequestsInFlight)

		prometheus.MustRegister(RedemptionsTotal)
		prometheus.MustRegister(MileageOpsTotal)
		prometheus.MustRegister(MileageAmountTotal)
		prometheus.MustRegister(SettlementTransitionsTotal)
		prometheus.MustRegister(ReferralClaimsTotal)
		prometheus.MustRegister(CouponsIssuedTotal)
		prometheus.MustRegister(SweptTotal)
		prometheus.MustRegister(SalesRequestsTotal)
	})
}
