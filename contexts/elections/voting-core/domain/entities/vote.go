package entities

import "time"

type Decision string

const (
	DecisionYes Decision = "YES"
	DecisionNo  Decision = "NO"
)

// Selection is one ballot line as submitted by the voter.
type Selection struct {
	PortfolioID string
	CandidateID *string
	SkipVote    bool
	Decision    *Decision
}

// Vote is append-only once committed.
type Vote struct {
	VoteID      string
	VoterID     string
	ElectionID  string
	PortfolioID string
	CandidateID *string
	SkipVote    bool
	Decision    *Decision
	CreatedAt   time.Time
}
