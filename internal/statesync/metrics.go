package statesync

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "statesync"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	SyncedVersion             metrics.Gauge
	AppliedTransactionOutputs metrics.Gauge
	ExecutedTransactions      metrics.Gauge
	StreamTimeouts            metrics.Counter
	TerminatedStreams         metrics.Counter
	VerificationFailures      metrics.Counter
}

// PrometheusMetrics returns Metrics built using the Prometheus client
// library. Optionally, labels can be provided along with their values
// ("foo", "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		SyncedVersion: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "synced_version",
			Help:      "The latest version committed to storage and confirmed synced.",
		}, labels).With(labelsAndValues...),
		AppliedTransactionOutputs: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "applied_transaction_outputs",
			Help:      "The highest version reached by applying transaction outputs.",
		}, labels).With(labelsAndValues...),
		ExecutedTransactions: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "executed_transactions",
			Help:      "The highest version reached by executing transactions.",
		}, labels).With(labelsAndValues...),
		StreamTimeouts: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "stream_timeouts",
			Help:      "The number of data stream fetches that timed out.",
		}, labels).With(labelsAndValues...),
		TerminatedStreams: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "terminated_streams",
			Help:      "The number of data streams that were terminated and rebuilt.",
		}, labels).With(labelsAndValues...),
		VerificationFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "verification_failures",
			Help:      "The number of ledger infos that failed quorum verification.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		SyncedVersion:             discard.NewGauge(),
		AppliedTransactionOutputs: discard.NewGauge(),
		ExecutedTransactions:      discard.NewGauge(),
		StreamTimeouts:            discard.NewCounter(),
		TerminatedStreams:         discard.NewCounter(),
		VerificationFailures:      discard.NewCounter(),
	}
}
