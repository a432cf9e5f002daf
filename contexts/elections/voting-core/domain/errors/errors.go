package errors

import "errors"

var (
	ErrInvalidBallot         = errors.New("invalid ballot input")
	ErrInvalidOTPRequest     = errors.New("invalid otp request")
	ErrVoterNotFound         = errors.New("voter not found or not registered for this election")
	ErrElectionNotFound      = errors.New("election not found")
	ErrAlreadyVoted          = errors.New("voter has already voted")
	ErrElectionNotActive     = errors.New("election is not active")
	ErrElectionWindowClosed  = errors.New("election window is closed")
	ErrOTPInvalid            = errors.New("one-time code is invalid")
	ErrOTPInvalidOrExpired   = errors.New("invalid or expired code")
	ErrOverVoting            = errors.New("ballot has more selections than allowed")
	ErrUnderVotingNotAllowed = errors.New("ballot has fewer selections than required")
	ErrInvalidToken          = errors.New("voter token is invalid")
	ErrInternal              = errors.New("internal error")
)
