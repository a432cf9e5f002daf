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
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/services"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
)

// CastBallotCommand is one voter's complete ballot. ElectionID may be empty,
// in which case the voter's own assignment is used. OTPID is empty when the
// caller authenticated without a one-time code.
type CastBallotCommand struct {
	VoterID    string
	ElectionID string
	OTPID      string
	IPAddress  string
	Selections []entities.Selection
}

// BallotUseCase casts ballots. All checks and writes for one ballot run inside
// a single unit of work; vote_cast is published only after it commits.
type BallotUseCase struct {
	Ballots ports.BallotUnitOfWork
	Bus     ports.NotificationBus
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc BallotUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	voterID := strings.TrimSpace(cmd.VoterID)
	otpID := strings.TrimSpace(cmd.OTPID)

	selections, err := normalizeSelections(cmd.Selections)
	if err != nil || voterID == "" {
		logger.Warn("ballot validation failed",
			"event", "voting_core_ballot_validation_failed",
			"module", "elections/voting-core",
			"layer", "application",
			"voter_id", voterID,
			"selections", len(cmd.Selections),
		)
		metrics.ObserveBallot(outcomeCode(domainerrors.ErrInvalidBallot))
		return domainerrors.ErrInvalidBallot
	}

	var electionID string
	err = uc.Ballots.WithinBallotTx(ctx, voterID, func(tx ports.BallotTx) error {
		now := uc.now()
		voter, err := tx.LockVoter(ctx, voterID)
		if err != nil {
			return err
		}
		electionID = strings.TrimSpace(cmd.ElectionID)
		if electionID == "" {
			electionID = voter.ElectionID
		}
		if voter.ElectionID != electionID {
			return domainerrors.ErrVoterNotFound
		}
		if voter.HasVoted {
			return domainerrors.ErrAlreadyVoted
		}

		election, err := tx.GetElection(ctx, electionID)
		if err != nil {
			return err
		}
		if err := election.CheckVotingWindow(now); err != nil {
			return err
		}

		if otpID != "" {
			otp, err := tx.GetOTP(ctx, otpID)
			if err != nil {
				return err
			}
			if otp.VoterID != voter.VoterID || !otp.ValidAt(now) {
				return domainerrors.ErrOTPInvalid
			}
		}

		if err := services.CheckBallotPolicy(election, selections); err != nil {
			return err
		}

		votes, err := uc.buildVotes(ctx, voter.VoterID, electionID, selections, now)
		if err != nil {
			return err
		}
		if err := tx.InsertVotes(ctx, votes); err != nil {
			return err
		}
		if err := tx.MarkVoterVoted(ctx, voter.VoterID, now); err != nil {
			return err
		}
		if otpID != "" {
			if err := tx.ConsumeOTP(ctx, otpID, now); err != nil {
				return err
			}
		}
		entryID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entities.AuditEntry{
			EntryID:   entryID,
			ActorType: entities.ActorVoter,
			ActorID:   voter.VoterID,
			VoterID:   voter.VoterID,
			Action:    entities.AuditActionCastVote,
			IPAddress: strings.TrimSpace(cmd.IPAddress),
			Details: map[string]any{
				"votesCount": len(votes),
				"electionId": electionID,
			},
			CreatedAt: now,
		})
	})
	err = classify(err)
	metrics.ObserveBallot(outcomeCode(err))
	if err != nil {
		fields := []any{
			"event", "voting_core_ballot_rejected",
			"module", "elections/voting-core",
			"layer", "application",
			"voter_id", voterID,
			"election_id", electionID,
			"outcome", outcomeCode(err),
			"error", err.Error(),
		}
		if errors.Is(err, domainerrors.ErrInternal) {
			logger.Error("ballot transaction failed", fields...)
		} else {
			logger.Warn("ballot rejected", fields...)
		}
		return err
	}

	logger.Info("ballot cast",
		"event", "voting_core_ballot_cast",
		"module", "elections/voting-core",
		"layer", "application",
		"voter_id", voterID,
		"election_id", electionID,
		"selections", len(selections),
	)
	application.Notify(ctx, uc.Bus, logger, "application", application.EventVoteCast, map[string]any{
		"electionId": electionID,
	})
	return nil
}

func (uc BallotUseCase) buildVotes(
	ctx context.Context,
	voterID string,
	electionID string,
	selections []entities.Selection,
	now time.Time,
) ([]entities.Vote, error) {
	votes := make([]entities.Vote, 0, len(selections))
	for _, selection := range selections {
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		votes = append(votes, entities.Vote{
			VoteID:      voteID,
			VoterID:     voterID,
			ElectionID:  electionID,
			PortfolioID: selection.PortfolioID,
			CandidateID: selection.CandidateID,
			SkipVote:    selection.SkipVote,
			Decision:    selection.Decision,
			CreatedAt:   now,
		})
	}
	return votes, nil
}

func (uc BallotUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// normalizeSelections trims identifiers, clears candidate and decision on
// skipped lines and rejects malformed ballots. A ballot needs at least one
// line and at most one line per portfolio.
func normalizeSelections(items []entities.Selection) ([]entities.Selection, error) {
	if len(items) == 0 {
		return nil, domainerrors.ErrInvalidBallot
	}
	seen := make(map[string]struct{}, len(items))
	normalized := make([]entities.Selection, 0, len(items))
	for _, item := range items {
		portfolioID := strings.TrimSpace(item.PortfolioID)
		if portfolioID == "" {
			return nil, domainerrors.ErrInvalidBallot
		}
		if _, dup := seen[portfolioID]; dup {
			return nil, domainerrors.ErrInvalidBallot
		}
		seen[portfolioID] = struct{}{}

		if item.SkipVote {
			normalized = append(normalized, entities.Selection{PortfolioID: portfolioID, SkipVote: true})
			continue
		}

		var candidateID *string
		if item.CandidateID != nil && strings.TrimSpace(*item.CandidateID) != "" {
			value := strings.TrimSpace(*item.CandidateID)
			candidateID = &value
		}
		var decision *entities.Decision
		if item.Decision != nil {
			value := entities.Decision(strings.ToUpper(strings.TrimSpace(string(*item.Decision))))
			if value != entities.DecisionYes && value != entities.DecisionNo {
				return nil, domainerrors.ErrInvalidBallot
			}
			decision = &value
		}
		if candidateID == nil && decision == nil {
			return nil, domainerrors.ErrInvalidBallot
		}
		normalized = append(normalized, entities.Selection{
			PortfolioID: portfolioID,
			CandidateID: candidateID,
			Decision:    decision,
		})
	}
	return normalized, nil
}
