package entities

import (
	"time"

	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
)

type ElectionState string

const (
	ElectionStatePending ElectionState = "pending"
	ElectionStateActive  ElectionState = "active"
	ElectionStateEnded   ElectionState = "ended"
)

type Election struct {
	ElectionID       string
	Title            string
	StartTime        time.Time
	EndTime          *time.Time
	IsActive         bool
	MaxVotesPerVoter int
	AllowUnderVoting bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StateAt derives the lifecycle state from the election window alone; the
// stored IsActive flag is ignored. A nil EndTime never ends.
func (e Election) StateAt(now time.Time) ElectionState {
	if e.StartTime.IsZero() || now.Before(e.StartTime) {
		return ElectionStatePending
	}
	if e.EndTime != nil && now.After(*e.EndTime) {
		return ElectionStateEnded
	}
	return ElectionStateActive
}

// CheckVotingWindow requires both the persisted flag and the window itself to
// admit a ballot at now.
func (e Election) CheckVotingWindow(now time.Time) error {
	if !e.IsActive {
		return domainerrors.ErrElectionNotActive
	}
	switch e.StateAt(now) {
	case ElectionStatePending:
		return domainerrors.ErrElectionNotActive
	case ElectionStateEnded:
		return domainerrors.ErrElectionWindowClosed
	}
	return nil
}

// VoteQuota returns max_votes_per_voter with the default of one applied.
func (e Election) VoteQuota() int {
	if e.MaxVotesPerVoter < 1 {
		return 1
	}
	return e.MaxVotesPerVoter
}

// RemainingAt is nil for open-ended elections and never negative otherwise.
func (e Election) RemainingAt(now time.Time) *time.Duration {
	if e.EndTime == nil {
		return nil
	}
	remaining := e.EndTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
