package entities_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
)

func TestElectionStateAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)
	past := now.Add(-time.Minute)

	cases := []struct {
		name     string
		election entities.Election
		want     entities.ElectionState
	}{
		{name: "before start", election: entities.Election{StartTime: now.Add(time.Minute), EndTime: &end}, want: entities.ElectionStatePending},
		{name: "inside window", election: entities.Election{StartTime: now.Add(-time.Minute), EndTime: &end}, want: entities.ElectionStateActive},
		{name: "start boundary", election: entities.Election{StartTime: now, EndTime: &end}, want: entities.ElectionStateActive},
		{name: "end boundary", election: entities.Election{StartTime: past, EndTime: &now}, want: entities.ElectionStateActive},
		{name: "after end", election: entities.Election{StartTime: now.Add(-time.Hour), EndTime: &past}, want: entities.ElectionStateEnded},
		{name: "open ended", election: entities.Election{StartTime: now.Add(-24 * time.Hour)}, want: entities.ElectionStateActive},
		{name: "no start", election: entities.Election{}, want: entities.ElectionStatePending},
	}
	for _, tc := range cases {
		if got := tc.election.StateAt(now); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestElectionCheckVotingWindowIgnoresStaleFlag(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(-time.Second)
	closed := entities.Election{StartTime: now.Add(-time.Hour), EndTime: &end, IsActive: true}
	if err := closed.CheckVotingWindow(now); !errors.Is(err, domainerrors.ErrElectionWindowClosed) {
		t.Fatalf("expected window closed, got %v", err)
	}

	later := now.Add(time.Hour)
	early := entities.Election{StartTime: now.Add(time.Minute), EndTime: &later, IsActive: true}
	if err := early.CheckVotingWindow(now); !errors.Is(err, domainerrors.ErrElectionNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}

	inactive := entities.Election{StartTime: now.Add(-time.Minute), EndTime: &later}
	if err := inactive.CheckVotingWindow(now); !errors.Is(err, domainerrors.ErrElectionNotActive) {
		t.Fatalf("expected not active for cleared flag, got %v", err)
	}
}

func TestElectionRemainingAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if remaining := (entities.Election{StartTime: now}).RemainingAt(now); remaining != nil {
		t.Fatalf("expected nil remaining for open-ended election")
	}
	end := now.Add(-time.Minute)
	remaining := entities.Election{StartTime: now.Add(-time.Hour), EndTime: &end}.RemainingAt(now)
	if remaining == nil || *remaining != 0 {
		t.Fatalf("expected clamped zero remaining, got %v", remaining)
	}
}
