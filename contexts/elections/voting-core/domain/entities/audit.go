package entities

import "time"

type ActorType string

const (
	ActorVoter ActorType = "voter"
	ActorAgent ActorType = "agent"
)

const (
	AuditActionIssueOTP  = "issue_otp"
	AuditActionVerifyOTP = "verify_otp"
	AuditActionCastVote  = "cast_vote"
)

type AuditEntry struct {
	EntryID   string
	ActorType ActorType
	ActorID   string
	VoterID   string
	Action    string
	IPAddress string
	Details   map[string]any
	CreatedAt time.Time
}
