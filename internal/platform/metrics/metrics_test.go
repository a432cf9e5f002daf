package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestVotingMetricsCountOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewVotingMetrics(registry, "evote")

	m.ObserveBallot("accepted")
	m.ObserveBallot("already_voted")
	m.ObserveBallot("already_voted")
	m.ObserveOTP("issue", "accepted")
	m.ObserveTransition("started")
	m.ObserveTick(20*time.Millisecond, 2)

	if got := testutil.ToFloat64(m.Ballots.WithLabelValues("already_voted")); got != 2 {
		t.Fatalf("expected 2 already_voted, got %v", got)
	}
	if got := testutil.ToFloat64(m.OTPRequests.WithLabelValues("issue", "accepted")); got != 1 {
		t.Fatalf("expected 1 issued code, got %v", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("started")); got != 1 {
		t.Fatalf("expected 1 started transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.TickFailures); got != 2 {
		t.Fatalf("expected 2 tick failures, got %v", got)
	}
}
