package metrics

import (
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aimerchant"

// Metrics holds the replenishment engine counters. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	accounts    *prometheus.CounterVec
	generated   prometheus.Counter
	executed    *prometheus.CounterVec
}

// New creates the collectors and registers them on registerer.
// A nil registerer uses the default registry.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autoaction",
			Name:      "runs_total",
			Help:      "Auto-action runs started, by trigger.",
		}, []string{"trigger"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "autoaction",
			Name:      "run_duration_seconds",
			Help:      "Wall time of auto-action runs, by trigger.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"trigger"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autoaction",
			Name:      "accounts_total",
			Help:      "Accounts processed by auto-action runs, by outcome.",
		}, []string{"status"}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "generated_total",
			Help:      "Draft purchase-order recommendations written.",
		}),
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "executed_total",
			Help:      "Recommendations transitioned to executed, by source.",
		}, []string{"source"}),
	}

	registerer.MustRegister(m.runs, m.runDuration, m.accounts, m.generated, m.executed)
	return m
}

func (m *Metrics) RunStarted(trigger domain.Trigger) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(trigger)).Inc()
}

func (m *Metrics) RunFinished(trigger domain.Trigger, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(string(trigger)).Observe(elapsed.Seconds())
}

func (m *Metrics) AccountProcessed(status domain.AccountStatus) {
	if m == nil {
		return
	}
	m.accounts.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) RecommendationsGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.generated.Add(float64(n))
}

func (m *Metrics) RecommendationsExecuted(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.executed.WithLabelValues(source).Add(float64(n))
}
