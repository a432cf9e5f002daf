package commands

import (
	"errors"
	"fmt"

	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
)

var outcomeCodes = []struct {
	err  error
	code string
}{
	{domainerrors.ErrInvalidBallot, "validation_error"},
	{domainerrors.ErrInvalidOTPRequest, "validation_error"},
	{domainerrors.ErrVoterNotFound, "not_found"},
	{domainerrors.ErrElectionNotFound, "not_found"},
	{domainerrors.ErrAlreadyVoted, "already_voted"},
	{domainerrors.ErrElectionNotActive, "election_not_active"},
	{domainerrors.ErrElectionWindowClosed, "election_window_closed"},
	{domainerrors.ErrOTPInvalid, "otp_invalid"},
	{domainerrors.ErrOTPInvalidOrExpired, "invalid_or_expired"},
	{domainerrors.ErrOverVoting, "over_voting"},
	{domainerrors.ErrUnderVotingNotAllowed, "under_voting_not_allowed"},
	{domainerrors.ErrInvalidToken, "unauthorized"},
}

// outcomeCode labels an error for logs and metrics.
func outcomeCode(err error) string {
	if err == nil {
		return "accepted"
	}
	for _, item := range outcomeCodes {
		if errors.Is(err, item.err) {
			return item.code
		}
	}
	return "internal_error"
}

// classify passes business-rule errors through and wraps everything else in
// ErrInternal, keeping the cause reachable through errors.Is.
func classify(err error) error {
	if err == nil || outcomeCode(err) != "internal_error" {
		return err
	}
	if errors.Is(err, domainerrors.ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %w", domainerrors.ErrInternal, err)
}
