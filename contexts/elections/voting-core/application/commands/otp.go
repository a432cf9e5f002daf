package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
)

const (
	DefaultCodeTTL  = 30 * time.Minute
	DefaultTokenTTL = 2 * time.Hour
	VoterRole       = "voter"
)

// IssueCodeCommand is a polling agent's request for a voter code.
type IssueCodeCommand struct {
	StudentID string
	AgentID   string
}

type IssueCodeResult struct {
	OTPID     string
	Code      string
	ExpiresAt time.Time
}

// VerifyCodeCommand is a voter presenting the code handed out by an agent.
type VerifyCodeCommand struct {
	StudentID string
	Code      string
	IPAddress string
}

type VerifyCodeResult struct {
	Token     string
	VoterID   string
	OTPID     string
	ExpiresAt time.Time
}

// OTPUseCase issues and verifies one-time voter codes. Verification never
// consumes a code; the ballot transaction does.
type OTPUseCase struct {
	Voters    ports.VoterRepository
	Elections ports.ElectionRepository
	OTPs      ports.OTPRepository
	Audit     ports.AuditLog
	Tokens    ports.TokenIssuer
	Codes     ports.CodeGenerator
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Metrics   ports.Metrics
	CodeTTL   time.Duration
	TokenTTL  time.Duration
	Logger    *slog.Logger
}

// Generate stores a fresh code for voterID. Earlier unexpired codes for the
// same voter stay valid.
func (uc OTPUseCase) Generate(ctx context.Context, voterID string, ttl time.Duration) (entities.OTP, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return entities.OTP{}, domainerrors.ErrInvalidOTPRequest
	}
	if ttl <= 0 {
		ttl = uc.codeTTL()
	}

	code, err := uc.Codes.NewCode()
	if err != nil {
		return entities.OTP{}, classify(err)
	}
	otpID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.OTP{}, classify(err)
	}
	now := uc.now()
	otp := entities.OTP{
		OTPID:     otpID,
		VoterID:   voterID,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := uc.OTPs.CreateOTP(ctx, otp); err != nil {
		return entities.OTP{}, classify(err)
	}
	return otp, nil
}

// Verify finds an unused, unexpired code for the voter and records the
// attempt in the audit log.
func (uc OTPUseCase) Verify(ctx context.Context, voterID string, code string, ipAddress string) (entities.OTP, error) {
	voterID = strings.TrimSpace(voterID)
	code = strings.TrimSpace(code)
	if voterID == "" || code == "" {
		return entities.OTP{}, domainerrors.ErrInvalidOTPRequest
	}

	now := uc.now()
	otp, err := uc.OTPs.FindValidOTP(ctx, voterID, code, now)
	if err != nil {
		return entities.OTP{}, classify(err)
	}

	entryID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.OTP{}, classify(err)
	}
	if err := uc.Audit.AppendAudit(ctx, entities.AuditEntry{
		EntryID:   entryID,
		ActorType: entities.ActorVoter,
		ActorID:   voterID,
		VoterID:   voterID,
		Action:    entities.AuditActionVerifyOTP,
		IPAddress: strings.TrimSpace(ipAddress),
		Details:   map[string]any{"otpId": otp.OTPID},
		CreatedAt: now,
	}); err != nil {
		return entities.OTP{}, classify(err)
	}
	return otp, nil
}

// IssueCode resolves a voter by student id and hands a new code to the agent.
func (uc OTPUseCase) IssueCode(ctx context.Context, cmd IssueCodeCommand) (IssueCodeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	studentID := strings.TrimSpace(cmd.StudentID)
	if studentID == "" {
		metrics.ObserveOTP("issue", outcomeCode(domainerrors.ErrInvalidOTPRequest))
		return IssueCodeResult{}, domainerrors.ErrInvalidOTPRequest
	}

	result, err := uc.issueCode(ctx, studentID, strings.TrimSpace(cmd.AgentID))
	metrics.ObserveOTP("issue", outcomeCode(err))
	if err != nil {
		uc.logFailure(logger, "voting_core_otp_issue_failed", err,
			"student_id", studentID,
			"agent_id", strings.TrimSpace(cmd.AgentID),
		)
		return IssueCodeResult{}, err
	}
	logger.Info("voter code issued",
		"event", "voting_core_otp_issued",
		"module", "elections/voting-core",
		"layer", "application",
		"student_id", studentID,
		"agent_id", strings.TrimSpace(cmd.AgentID),
		"otp_id", result.OTPID,
		"expires_at", result.ExpiresAt.Format(time.RFC3339),
	)
	return result, nil
}

// issueCode records the issuing agent in the audit log alongside the code.
func (uc OTPUseCase) issueCode(ctx context.Context, studentID string, agentID string) (IssueCodeResult, error) {
	voter, err := uc.Voters.GetVoterByStudentID(ctx, studentID)
	if err != nil {
		return IssueCodeResult{}, classify(err)
	}
	if voter.HasVoted {
		return IssueCodeResult{}, domainerrors.ErrAlreadyVoted
	}
	otp, err := uc.Generate(ctx, voter.VoterID, uc.codeTTL())
	if err != nil {
		return IssueCodeResult{}, err
	}
	entryID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return IssueCodeResult{}, classify(err)
	}
	if err := uc.Audit.AppendAudit(ctx, entities.AuditEntry{
		EntryID:   entryID,
		ActorType: entities.ActorAgent,
		ActorID:   agentID,
		VoterID:   voter.VoterID,
		Action:    entities.AuditActionIssueOTP,
		Details:   map[string]any{"otpId": otp.OTPID},
		CreatedAt: otp.CreatedAt,
	}); err != nil {
		return IssueCodeResult{}, classify(err)
	}
	return IssueCodeResult{
		OTPID:     otp.OTPID,
		Code:      otp.Code,
		ExpiresAt: otp.ExpiresAt,
	}, nil
}

// VerifyCode authenticates a voter by code and returns a short-lived token
// carrying the voter and the code to consume when the ballot is cast.
func (uc OTPUseCase) VerifyCode(ctx context.Context, cmd VerifyCodeCommand) (VerifyCodeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	studentID := strings.TrimSpace(cmd.StudentID)

	result, err := uc.verifyCode(ctx, studentID, cmd)
	metrics.ObserveOTP("verify", outcomeCode(err))
	if err != nil {
		uc.logFailure(logger, "voting_core_otp_verify_failed", err, "student_id", studentID)
		return VerifyCodeResult{}, err
	}
	logger.Info("voter code verified",
		"event", "voting_core_otp_verified",
		"module", "elections/voting-core",
		"layer", "application",
		"voter_id", result.VoterID,
		"otp_id", result.OTPID,
	)
	return result, nil
}

func (uc OTPUseCase) verifyCode(ctx context.Context, studentID string, cmd VerifyCodeCommand) (VerifyCodeResult, error) {
	if studentID == "" || strings.TrimSpace(cmd.Code) == "" {
		return VerifyCodeResult{}, domainerrors.ErrInvalidOTPRequest
	}
	voter, err := uc.Voters.GetVoterByStudentID(ctx, studentID)
	if err != nil {
		return VerifyCodeResult{}, classify(err)
	}
	otp, err := uc.Verify(ctx, voter.VoterID, cmd.Code, cmd.IPAddress)
	if err != nil {
		return VerifyCodeResult{}, err
	}

	election, err := uc.Elections.GetElection(ctx, voter.ElectionID)
	if err != nil {
		return VerifyCodeResult{}, classify(err)
	}
	if !election.IsActive {
		return VerifyCodeResult{}, domainerrors.ErrElectionNotActive
	}

	now := uc.now()
	expiresAt := now.Add(uc.tokenTTL())
	token, err := uc.Tokens.Issue(ports.VoterClaims{
		VoterID:   voter.VoterID,
		OTPID:     otp.OTPID,
		Role:      VoterRole,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return VerifyCodeResult{}, classify(err)
	}
	return VerifyCodeResult{
		Token:     token,
		VoterID:   voter.VoterID,
		OTPID:     otp.OTPID,
		ExpiresAt: expiresAt,
	}, nil
}

func (uc OTPUseCase) logFailure(logger *slog.Logger, event string, err error, attrs ...any) {
	fields := make([]any, 0, len(attrs)+10)
	fields = append(fields,
		"event", event,
		"module", "elections/voting-core",
		"layer", "application",
		"outcome", outcomeCode(err),
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	if errors.Is(err, domainerrors.ErrInternal) {
		logger.Error("voter code request failed", fields...)
		return
	}
	logger.Warn("voter code request rejected", fields...)
}

func (uc OTPUseCase) codeTTL() time.Duration {
	if uc.CodeTTL > 0 {
		return uc.CodeTTL
	}
	return DefaultCodeTTL
}

func (uc OTPUseCase) tokenTTL() time.Duration {
	if uc.TokenTTL > 0 {
		return uc.TokenTTL
	}
	return DefaultTokenTTL
}

func (uc OTPUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
