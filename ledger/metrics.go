package ledger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeReverted = "reverted"
	outcomeFailed   = "failed"
)

// Metrics holds the Prometheus collectors of a Transactor.
type Metrics struct {
	estimations        *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by another Transactor on the same registry are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		estimations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocean",
			Subsystem: "ledger",
			Name:      "estimations_total",
			Help:      "Gas estimations by method and outcome.",
		}, []string{"method", "outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocean",
			Subsystem: "ledger",
			Name:      "submissions_total",
			Help:      "Transaction submissions by method and outcome.",
		}, []string{"method", "outcome"}),
		submissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ocean",
			Subsystem: "ledger",
			Name:      "submission_duration_seconds",
			Help:      "Time from estimation start until inclusion.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"method"}),
	}
	if reg == nil {
		return m
	}
	m.estimations = register(reg, m.estimations)
	m.submissions = register(reg, m.submissions)
	m.submissionDuration = register(reg, m.submissionDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
