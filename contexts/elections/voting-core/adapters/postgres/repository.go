package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository implements the voting-core ports on any gorm dialect. Postgres
// is the production target; the same code runs on MySQL and SQLite.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates or updates the tables the repository reads and writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&electionModel{},
		&voterModel{},
		&otpModel{},
		&voteModel{},
		&auditModel{},
		&portfolioModel{},
	)
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	return getElection(r.db.WithContext(ctx), r, electionID)
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("voting_core_repo_list_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CompareAndSetElectionActive(
	ctx context.Context,
	electionID string,
	expected bool,
	next bool,
	updatedAt time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&electionModel{}).
		Where("id = ? AND is_active = ?", strings.TrimSpace(electionID), expected).
		Updates(map[string]any{
			"is_active":  next,
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return false, r.logError("voting_core_repo_election_cas_failed", result.Error,
			"election_id", strings.TrimSpace(electionID),
			"expected", expected,
			"next", next,
		)
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("voting_core_repo_get_voter_failed", err, "voter_id", strings.TrimSpace(voterID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetVoterByStudentID(ctx context.Context, studentID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("student_id = ?", strings.TrimSpace(studentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("voting_core_repo_get_voter_by_student_failed", err,
			"student_id", strings.TrimSpace(studentID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateOTP(ctx context.Context, otp entities.OTP) error {
	row := otpModelFromEntity(otp)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("voting_core_repo_create_otp_failed", err,
			"otp_id", row.ID,
			"voter_id", row.VoterID,
		)
	}
	return nil
}

// FindValidOTP filters expiry in Go so the comparison does not depend on how
// the dialect stores timestamps.
func (r *Repository) FindValidOTP(ctx context.Context, voterID string, code string, now time.Time) (entities.OTP, error) {
	var rows []otpModel
	if err := r.db.WithContext(ctx).
		Where("voter_id = ? AND code = ? AND used = ?", strings.TrimSpace(voterID), strings.TrimSpace(code), false).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return entities.OTP{}, r.logError("voting_core_repo_find_otp_failed", err, "voter_id", strings.TrimSpace(voterID))
	}
	for _, row := range rows {
		otp := row.toEntity()
		if otp.ValidAt(now) {
			return otp, nil
		}
	}
	return entities.OTP{}, domainerrors.ErrOTPInvalidOrExpired
}

func (r *Repository) ListPortfolios(ctx context.Context, electionID string) ([]entities.Portfolio, error) {
	var rows []portfolioModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("priority ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_core_repo_list_portfolios_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Portfolio, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendAudit(ctx context.Context, entry entities.AuditEntry) error {
	return appendAudit(r.db.WithContext(ctx), r, entry)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "elections/voting-core",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting repository operation failed", fields...)
	return err
}

func getElection(db *gorm.DB, r *Repository, electionID string) (entities.Election, error) {
	var row electionModel
	err := db.Where("id = ?", strings.TrimSpace(electionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("voting_core_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func appendAudit(db *gorm.DB, r *Repository, entry entities.AuditEntry) error {
	row, err := auditModelFromEntity(entry)
	if err != nil {
		return err
	}
	if err := db.Create(&row).Error; err != nil {
		return r.logError("voting_core_repo_append_audit_failed", err,
			"entry_id", row.ID,
			"action", row.Action,
		)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.VoterRepository = (*Repository)(nil)
var _ ports.OTPRepository = (*Repository)(nil)
var _ ports.PortfolioRepository = (*Repository)(nil)
var _ ports.AuditLog = (*Repository)(nil)
var _ ports.BallotUnitOfWork = (*Repository)(nil)
