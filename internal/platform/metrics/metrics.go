package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// VotingMetrics records ballot, code and clock outcomes. It satisfies the
// voting-core metrics port.
type VotingMetrics struct {
	Ballots      *prometheus.CounterVec
	OTPRequests  *prometheus.CounterVec
	Transitions  *prometheus.CounterVec
	TickDuration prometheus.Histogram
	TickFailures prometheus.Counter
}

func NewVotingMetrics(registerer prometheus.Registerer, namespace string) *VotingMetrics {
	factory := promauto.With(registerer)
	return &VotingMetrics{
		Ballots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ballot",
				Name:      "cast_attempts_total",
				Help:      "Ballot cast attempts by outcome code",
			},
			[]string{"outcome"},
		),
		OTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "otp",
				Name:      "requests_total",
				Help:      "One-time code issue and verify requests by outcome code",
			},
			[]string{"action", "outcome"},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "election_clock",
				Name:      "transitions_total",
				Help:      "Election activations and deactivations written by the clock",
			},
			[]string{"kind"},
		),
		TickDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "election_clock",
				Name:      "tick_duration_seconds",
				Help:      "Wall time of one clock pass over all elections",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		TickFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "election_clock",
				Name:      "election_failures_total",
				Help:      "Per-election failures isolated during clock passes",
			},
		),
	}
}

func (m *VotingMetrics) ObserveBallot(outcome string) {
	m.Ballots.WithLabelValues(outcome).Inc()
}

func (m *VotingMetrics) ObserveOTP(action string, outcome string) {
	m.OTPRequests.WithLabelValues(action, outcome).Inc()
}

func (m *VotingMetrics) ObserveTransition(kind string) {
	m.Transitions.WithLabelValues(kind).Inc()
}

func (m *VotingMetrics) ObserveTick(duration time.Duration, failed int) {
	m.TickDuration.Observe(duration.Seconds())
	if failed > 0 {
		m.TickFailures.Add(float64(failed))
	}
}

// Handler exposes gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
