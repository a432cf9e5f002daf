package ports

import (
	"context"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
)

type ElectionRepository interface {
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	// CompareAndSetElectionActive writes next only when the stored flag still
	// equals expected and reports whether the write happened.
	CompareAndSetElectionActive(ctx context.Context, electionID string, expected bool, next bool, updatedAt time.Time) (bool, error)
}

type VoterRepository interface {
	GetVoter(ctx context.Context, voterID string) (entities.Voter, error)
	GetVoterByStudentID(ctx context.Context, studentID string) (entities.Voter, error)
}

type OTPRepository interface {
	CreateOTP(ctx context.Context, otp entities.OTP) error
	// FindValidOTP returns an unused code for the voter that is unexpired at now.
	FindValidOTP(ctx context.Context, voterID string, code string, now time.Time) (entities.OTP, error)
}

type PortfolioRepository interface {
	ListPortfolios(ctx context.Context, electionID string) ([]entities.Portfolio, error)
}

type AuditLog interface {
	AppendAudit(ctx context.Context, entry entities.AuditEntry) error
}

// BallotTx is the view of the store inside one ballot transaction. Every read
// observes state at or after the voter row was locked.
type BallotTx interface {
	LockVoter(ctx context.Context, voterID string) (entities.Voter, error)
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	GetOTP(ctx context.Context, otpID string) (entities.OTP, error)
	InsertVotes(ctx context.Context, votes []entities.Vote) error
	// MarkVoterVoted fails with ErrAlreadyVoted unless it flips the flag.
	MarkVoterVoted(ctx context.Context, voterID string, updatedAt time.Time) error
	// ConsumeOTP fails with ErrOTPInvalid unless it flips the used flag.
	ConsumeOTP(ctx context.Context, otpID string, usedAt time.Time) error
	AppendAudit(ctx context.Context, entry entities.AuditEntry) error
}

// BallotUnitOfWork runs fn atomically, serialized per voter. Any error from
// fn, or a context cancelled before commit, discards every write.
type BallotUnitOfWork interface {
	WithinBallotTx(ctx context.Context, voterID string, fn func(tx BallotTx) error) error
}

// NotificationBus is best-effort. Callers never fail because of it.
type NotificationBus interface {
	Publish(ctx context.Context, event string, payload map[string]any) error
}

type VoterClaims struct {
	VoterID   string
	OTPID     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(claims VoterClaims) (string, error)
	Parse(token string, now time.Time) (VoterClaims, error)
}

type CodeGenerator interface {
	NewCode() (string, error)
}

type Metrics interface {
	ObserveBallot(outcome string)
	ObserveOTP(action string, outcome string)
	ObserveTransition(kind string)
	ObserveTick(duration time.Duration, failed int)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
