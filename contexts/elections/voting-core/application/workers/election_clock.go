package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
)

const DefaultClockInterval = 15 * time.Second

// ElectionClock keeps each election's is_active flag in line with its window
// and announces transitions. It is the only writer of is_active.
type ElectionClock struct {
	Elections ports.ElectionRepository
	Bus       ports.NotificationBus
	Clock     ports.Clock
	Metrics   ports.Metrics
	Interval  time.Duration
	Logger    *slog.Logger
}

type TickReport struct {
	Activated   int
	Deactivated int
	Ticked      int
	Failed      int
}

// Tick runs one pass over all elections. Transitions are written with a
// compare-and-set on the flag value read in this pass, so concurrent clocks
// announce each transition once. A failure on one election is counted and
// logged without stopping the pass.
func (c ElectionClock) Tick(ctx context.Context) (TickReport, error) {
	logger := application.ResolveLogger(c.Logger)
	metrics := application.ResolveMetrics(c.Metrics)
	startedAt := time.Now()
	now := c.now()

	var report TickReport
	elections, err := c.Elections.ListElections(ctx)
	if err != nil {
		logger.Error("election clock list failed",
			"event", "voting_core_clock_list_failed",
			"module", "elections/voting-core",
			"layer", "worker",
			"error", err.Error(),
		)
		metrics.ObserveTick(time.Since(startedAt), 1)
		return report, err
	}

	for _, election := range elections {
		if err := c.processElection(ctx, logger, metrics, election, now, &report); err != nil {
			report.Failed++
			logger.Error("election clock transition failed",
				"event", "voting_core_clock_election_failed",
				"module", "elections/voting-core",
				"layer", "worker",
				"election_id", election.ElectionID,
				"error", err.Error(),
			)
		}
	}

	metrics.ObserveTick(time.Since(startedAt), report.Failed)
	logger.Debug("election clock tick completed",
		"event", "voting_core_clock_tick_completed",
		"module", "elections/voting-core",
		"layer", "worker",
		"elections", len(elections),
		"activated", report.Activated,
		"deactivated", report.Deactivated,
		"ticked", report.Ticked,
		"failed", report.Failed,
	)
	return report, nil
}

// Run ticks immediately and then on every interval until ctx is cancelled.
func (c ElectionClock) Run(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultClockInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("election clock started",
		"event", "voting_core_clock_started",
		"module", "elections/voting-core",
		"layer", "worker",
		"interval", interval.String(),
	)
	for {
		// Tick logs its own failures; the next interval retries.
		_, _ = c.Tick(ctx)
		select {
		case <-ctx.Done():
			logger.Info("election clock stopped",
				"event", "voting_core_clock_stopped",
				"module", "elections/voting-core",
				"layer", "worker",
			)
			return nil
		case <-ticker.C:
		}
	}
}

func (c ElectionClock) processElection(
	ctx context.Context,
	logger *slog.Logger,
	metrics ports.Metrics,
	election entities.Election,
	now time.Time,
	report *TickReport,
) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("election clock panic: %v", recovered)
		}
	}()

	state := election.StateAt(now)
	switch {
	case !election.IsActive && state == entities.ElectionStateActive:
		swapped, err := c.Elections.CompareAndSetElectionActive(ctx, election.ElectionID, false, true, now)
		if err != nil {
			return err
		}
		if swapped {
			report.Activated++
			metrics.ObserveTransition("started")
			logger.Info("election activated",
				"event", "voting_core_clock_election_started",
				"module", "elections/voting-core",
				"layer", "worker",
				"election_id", election.ElectionID,
			)
			application.Notify(ctx, c.Bus, logger, "worker", application.EventElectionStarted, map[string]any{
				"electionId": election.ElectionID,
				"title":      election.Title,
				"start_time": election.StartTime.UTC().Format(time.RFC3339),
				"end_time":   formatOptionalTime(election.EndTime),
			})
		}
	case election.IsActive && state == entities.ElectionStateEnded:
		swapped, err := c.Elections.CompareAndSetElectionActive(ctx, election.ElectionID, true, false, now)
		if err != nil {
			return err
		}
		if swapped {
			report.Deactivated++
			metrics.ObserveTransition("ended")
			logger.Info("election deactivated",
				"event", "voting_core_clock_election_ended",
				"module", "elections/voting-core",
				"layer", "worker",
				"election_id", election.ElectionID,
			)
			application.Notify(ctx, c.Bus, logger, "worker", application.EventElectionEnded, map[string]any{
				"electionId": election.ElectionID,
				"title":      election.Title,
			})
		}
	}

	if state == entities.ElectionStateActive {
		report.Ticked++
		var remainingMs any
		if remaining := election.RemainingAt(now); remaining != nil {
			remainingMs = remaining.Milliseconds()
		}
		application.Notify(ctx, c.Bus, logger, "worker", application.EventElectionTick, map[string]any{
			"electionId":  election.ElectionID,
			"remainingMs": remainingMs,
			"end_time":    formatOptionalTime(election.EndTime),
			"server_time": now.Format(time.RFC3339),
		})
	}
	return nil
}

func (c ElectionClock) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func formatOptionalTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339)
}
