package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped onto every metric.
type Config struct {
	ServiceName string
	Environment string
}

// PlatformMetrics groups the credit-ledger and account-deletion instruments.
type PlatformMetrics struct {
	deductionsTotal  *prometheus.CounterVec
	creditedTotal    *prometheus.CounterVec
	creditedAmount   *prometheus.CounterVec
	deletionsTotal   *prometheus.CounterVec
	deletionDuration prometheus.Histogram
}

var (
	platformMetricsOnce sync.Once
	platformMetrics     *PlatformMetrics
)

// Platform returns the process-wide platform metrics.
func Platform() *PlatformMetrics {
	return PlatformWithConfig(Config{})
}

// PlatformWithConfig initializes the process-wide metrics on first use.
func PlatformWithConfig(cfg Config) *PlatformMetrics {
	platformMetricsOnce.Do(func() {
		platformMetrics = newPlatformMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return platformMetrics
}

// ResetPlatformMetricsForTest clears the singleton between test registries.
func ResetPlatformMetricsForTest() {
	platformMetricsOnce = sync.Once{}
	platformMetrics = nil
}

func newPlatformMetrics(registerer prometheus.Registerer, cfg Config) *PlatformMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "brandforge"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	deductionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "brandforge_credit_deductions_total",
			Help:        "Credit deduction attempts by outcome. Rejected attempts write no ledger row, so this counter is the abuse-monitoring signal.",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)
	creditedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "brandforge_credits_added_total",
			Help:        "Successful wallet credits by transaction type.",
			ConstLabels: constLabels,
		},
		[]string{"type"},
	)
	creditedAmount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "brandforge_credits_added_amount",
			Help:        "Sum of credits added by transaction type.",
			ConstLabels: constLabels,
		},
		[]string{"type"},
	)
	deletionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "brandforge_account_deletions_total",
			Help:        "Account deletion attempts by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)
	deletionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "brandforge_account_deletion_duration_seconds",
			Help:        "Wall time of the account deletion transaction.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	for _, collector := range []prometheus.Collector{
		deductionsTotal, creditedTotal, creditedAmount, deletionsTotal, deletionDuration,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &PlatformMetrics{
		deductionsTotal:  deductionsTotal,
		creditedTotal:    creditedTotal,
		creditedAmount:   creditedAmount,
		deletionsTotal:   deletionsTotal,
		deletionDuration: deletionDuration,
	}
}

// IncDeduction records one deduction attempt outcome.
func (m *PlatformMetrics) IncDeduction(result string) {
	if m == nil {
		return
	}
	m.deductionsTotal.WithLabelValues(result).Inc()
}

// AddCredited records a successful wallet credit.
func (m *PlatformMetrics) AddCredited(txType string, amount float64) {
	if m == nil {
		return
	}
	m.creditedTotal.WithLabelValues(txType).Inc()
	if amount > 0 {
		m.creditedAmount.WithLabelValues(txType).Add(amount)
	}
}

// ObserveDeletion records one account deletion attempt.
func (m *PlatformMetrics) ObserveDeletion(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.deletionsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		m.deletionDuration.Observe(duration.Seconds())
	}
}
