package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeApplied   = "applied"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeNotFound  = "not_found"
	outcomeFailed    = "failed"
)

type metrics struct {
	actions       *prometheus.CounterVec
	rollbacks     *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "ledger",
			Name:      "actions_total",
			Help:      "Bet and win actions processed, by outcome.",
		}, []string{"kind", "outcome"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "ledger",
			Name:      "rollbacks_total",
			Help:      "Rollback requests processed, by outcome.",
		}, []string{"outcome"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "ledger",
			Name:      "store_errors_total",
			Help:      "Failed balance or log store calls, by operation.",
		}, []string{"op"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wallet",
			Subsystem: "ledger",
			Name:      "batch_duration_seconds",
			Help:      "Time spent applying one play batch, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.actions, m.rollbacks, m.storeErrors, m.batchDuration} {
		err := reg.Register(c)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *metrics) action(kind ActionKind, outcome string) {
	m.actions.WithLabelValues(string(kind), outcome).Inc()
}

func (m *metrics) rollback(outcome string) {
	m.rollbacks.WithLabelValues(outcome).Inc()
}

func (m *metrics) storeError(op string) {
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *metrics) observeBatch(start time.Time) {
	m.batchDuration.Observe(time.Since(start).Seconds())
}
