package services

import (
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
)

// CountedSelections is the number of non-skipped lines on a ballot.
func CountedSelections(selections []entities.Selection) int {
	count := 0
	for _, selection := range selections {
		if !selection.SkipVote {
			count++
		}
	}
	return count
}

// CheckBallotPolicy enforces the election's over/under-voting rules.
func CheckBallotPolicy(election entities.Election, selections []entities.Selection) error {
	counted := CountedSelections(selections)
	quota := election.VoteQuota()
	if counted > quota {
		return domainerrors.ErrOverVoting
	}
	if counted < quota && !election.AllowUnderVoting {
		return domainerrors.ErrUnderVotingNotAllowed
	}
	return nil
}
