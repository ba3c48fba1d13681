package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics instruments ledger computations.
type LedgerMetrics struct {
	computeDuration *prometheus.HistogramVec
	identityChecks  *prometheus.CounterVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerMetrics     *LedgerMetrics
)

func Ledger() *LedgerMetrics {
	return LedgerWithConfig(Config{})
}

func LedgerWithConfig(cfg Config) *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerMetrics = newLedgerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ledgerMetrics
}

func ResetLedgerMetricsForTest() {
	ledgerMetricsOnce = sync.Once{}
	ledgerMetrics = nil
}

func newLedgerMetrics(registerer prometheus.Registerer, cfg Config) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := constLabelsFor(cfg)

	computeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "zmstore_ledger_compute_duration_seconds",
			Help:        "Time spent computing a customer ledger projection.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			ConstLabels: constLabels,
		},
		[]string{"op"}, // ledger | balance | summary
	)

	identityChecks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "zmstore_ledger_identity_checks_total",
			Help:        "Closing-balance identity verifications by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // ok | mismatch
	)

	registerer.MustRegister(computeDuration, identityChecks)

	return &LedgerMetrics{
		computeDuration: computeDuration,
		identityChecks:  identityChecks,
	}
}

func (m *LedgerMetrics) ObserveCompute(op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.computeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) IncIdentityCheck(result string) {
	if m == nil {
		return
	}
	m.identityChecks.WithLabelValues(result).Inc()
}

func constLabelsFor(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "zmstore"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}
