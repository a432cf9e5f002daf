package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithinBallotTx runs fn in one database transaction. The voter row is locked
// FOR UPDATE where the dialect supports it; the flag and code flips are also
// conditional updates, so a dialect without row locks still admits one winner.
func (r *Repository) WithinBallotTx(ctx context.Context, _ string, fn func(tx ports.BallotTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ballotTx{db: tx, repo: r})
	})
}

type ballotTx struct {
	db   *gorm.DB
	repo *Repository
}

func (t *ballotTx) LockVoter(_ context.Context, voterID string) (entities.Voter, error) {
	var row voterModel
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, t.repo.logError("voting_core_repo_lock_voter_failed", err,
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), nil
}

func (t *ballotTx) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	return getElection(t.db, t.repo, electionID)
}

func (t *ballotTx) GetOTP(_ context.Context, otpID string) (entities.OTP, error) {
	var row otpModel
	err := t.db.Where("id = ?", strings.TrimSpace(otpID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.OTP{}, domainerrors.ErrOTPInvalid
		}
		return entities.OTP{}, t.repo.logError("voting_core_repo_get_otp_failed", err,
			"otp_id", strings.TrimSpace(otpID),
		)
	}
	return row.toEntity(), nil
}

func (t *ballotTx) InsertVotes(_ context.Context, votes []entities.Vote) error {
	if len(votes) == 0 {
		return nil
	}
	rows := make([]voteModel, 0, len(votes))
	for _, vote := range votes {
		rows = append(rows, voteModelFromEntity(vote))
	}
	if err := t.db.Create(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return t.repo.logError("voting_core_repo_insert_votes_failed", err,
			"voter_id", rows[0].VoterID,
			"votes", len(rows),
		)
	}
	return nil
}

func (t *ballotTx) MarkVoterVoted(_ context.Context, voterID string, updatedAt time.Time) error {
	result := t.db.
		Model(&voterModel{}).
		Where("id = ? AND has_voted = ?", strings.TrimSpace(voterID), false).
		Updates(map[string]any{
			"has_voted":  true,
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return t.repo.logError("voting_core_repo_mark_voted_failed", result.Error,
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	if result.RowsAffected != 1 {
		return domainerrors.ErrAlreadyVoted
	}
	return nil
}

func (t *ballotTx) ConsumeOTP(_ context.Context, otpID string, _ time.Time) error {
	result := t.db.
		Model(&otpModel{}).
		Where("id = ? AND used = ?", strings.TrimSpace(otpID), false).
		Update("used", true)
	if result.Error != nil {
		return t.repo.logError("voting_core_repo_consume_otp_failed", result.Error,
			"otp_id", strings.TrimSpace(otpID),
		)
	}
	if result.RowsAffected != 1 {
		return domainerrors.ErrOTPInvalid
	}
	return nil
}

func (t *ballotTx) AppendAudit(_ context.Context, entry entities.AuditEntry) error {
	return appendAudit(t.db, t.repo, entry)
}

var _ ports.BallotTx = (*ballotTx)(nil)
