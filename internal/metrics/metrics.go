// Package metrics holds the relay's Prometheus instrumentation, registered
// through promauto at package init the way Aigen6-preworker's
// internal/metrics package does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jpycpay_relay_submissions_total",
			Help: "Total number of submit_authorization calls, by terminal status",
		},
		[]string{"status"},
	)

	SubmissionFailuresByCode = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jpycpay_relay_submission_failures_total",
			Help: "Total number of failed submissions, by stable failure code",
		},
		[]string{"code"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jpycpay_relay_submission_duration_seconds",
			Help:    "End-to-end Submit duration, from admission start to terminal log update",
			Buckets: prometheus.DefBuckets,
		},
	)

	RPCCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jpycpay_relay_rpc_call_duration_seconds",
			Help:    "JSON-RPC call duration by method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	RPCCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jpycpay_relay_rpc_call_errors_total",
			Help: "JSON-RPC call errors by method and error kind (transport or application)",
		},
		[]string{"method", "kind"},
	)

	RelayerGasBalanceWei = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jpycpay_relay_gas_balance_wei",
			Help: "Most recently observed relayer native-coin balance, in wei",
		},
	)

	FeeMaxFeePerGasWei = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jpycpay_relay_fee_max_fee_per_gas_wei",
			Help: "maxFeePerGas of the most recently planned transaction, in wei",
		},
	)

	FeePriorityFeePerGasWei = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jpycpay_relay_fee_priority_fee_per_gas_wei",
			Help: "maxPriorityFeePerGas of the most recently planned transaction, in wei",
		},
	)

	AssetsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jpycpay_relay_assets_active",
			Help: "Number of assets currently in the Active lifecycle state",
		},
	)

	PauseState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jpycpay_relay_paused",
			Help: "Whether the relay is currently paused (1) or accepting submissions (0)",
		},
	)
)
