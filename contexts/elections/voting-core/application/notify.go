package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
)

const (
	EventVoteCast        = "vote_cast"
	EventElectionStarted = "election_started"
	EventElectionEnded   = "election_ended"
	EventElectionTick    = "election_tick"
)

// Notify publishes without ever surfacing a failure. Errors and panics from
// the bus are logged and dropped.
func Notify(ctx context.Context, bus ports.NotificationBus, logger *slog.Logger, layer string, event string, payload map[string]any) {
	if bus == nil {
		return
	}
	logger = ResolveLogger(logger)
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("notification publish panicked",
				"event", "voting_core_notify_panicked",
				"module", "elections/voting-core",
				"layer", layer,
				"notification", event,
				"error", fmt.Sprint(recovered),
			)
		}
	}()
	if err := bus.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification publish failed",
			"event", "voting_core_notify_failed",
			"module", "elections/voting-core",
			"layer", layer,
			"notification", event,
			"error", err.Error(),
		)
	}
}

// ResolveMetrics guarantees a non-nil recorder.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}

type noopMetrics struct{}

func (noopMetrics) ObserveBallot(string) {}
func (noopMetrics) ObserveOTP(string, string) {}
func (noopMetrics) ObserveTransition(string) {}
func (noopMetrics) ObserveTick(time.Duration, int) {}
