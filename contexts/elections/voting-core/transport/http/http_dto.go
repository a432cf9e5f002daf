package httptransport

import "time"

// IssueCodeRequest is sent by a polling agent for a voter standing at the desk.
type IssueCodeRequest struct {
	StudentID string `json:"student_id"`
}

type IssueCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyCodeRequest struct {
	StudentID string `json:"student_id"`
	Code      string `json:"code"`
}

// VerifyCodeResponse carries the bearer token for the following cast call.
type VerifyCodeResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SelectionRequest is one ballot line. Exactly one of candidate_id, decision
// or skip_vote decides the line.
type SelectionRequest struct {
	PortfolioID string  `json:"portfolio_id"`
	CandidateID *string `json:"candidate_id"`
	SkipVote    bool    `json:"skip_vote"`
	Decision    *string `json:"decision"`
}

// CastBallotRequest is the full ballot. election_id defaults to the voter's
// assigned election.
type CastBallotRequest struct {
	ElectionID string             `json:"election_id,omitempty"`
	Selections []SelectionRequest `json:"selections"`
}

type CastBallotResponse struct {
	OK bool `json:"ok"`
}

type PortfolioResponse struct {
	PortfolioID     string `json:"portfolio_id"`
	Name            string `json:"name"`
	Priority        int    `json:"priority"`
	RestrictionType string `json:"restriction_type"`
}

// BallotResponse lists the portfolios the voter may vote on, in ballot order.
type BallotResponse struct {
	Portfolios []PortfolioResponse `json:"portfolios"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
