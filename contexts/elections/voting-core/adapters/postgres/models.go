package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"

	"gorm.io/datatypes"
)

type electionModel struct {
	ID               string     `gorm:"column:id;primaryKey;size:64"`
	Title            string     `gorm:"column:title;size:255;not null"`
	StartTime        time.Time  `gorm:"column:start_time;not null"`
	EndTime          *time.Time `gorm:"column:end_time"`
	IsActive         bool       `gorm:"column:is_active;not null"`
	MaxVotesPerVoter int        `gorm:"column:max_votes_per_voter;not null"`
	AllowUnderVoting bool       `gorm:"column:allow_under_voting;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:       m.ID,
		Title:            m.Title,
		StartTime:        m.StartTime.UTC(),
		EndTime:          normalizeOptionalTime(m.EndTime),
		IsActive:         m.IsActive,
		MaxVotesPerVoter: m.MaxVotesPerVoter,
		AllowUnderVoting: m.AllowUnderVoting,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type voterModel struct {
	ID         string    `gorm:"column:id;primaryKey;size:64"`
	StudentID  string    `gorm:"column:student_id;size:64;uniqueIndex;not null"`
	ElectionID string    `gorm:"column:election_id;size:64;index;not null"`
	Name       string    `gorm:"column:name;size:255"`
	Level      string    `gorm:"column:level;size:50"`
	Gender     string    `gorm:"column:gender;size:16"`
	HasVoted   bool      `gorm:"column:has_voted;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func (m voterModel) toEntity() entities.Voter {
	return entities.Voter{
		VoterID:    m.ID,
		StudentID:  m.StudentID,
		ElectionID: m.ElectionID,
		Name:       m.Name,
		Level:      m.Level,
		Gender:     entities.Gender(m.Gender),
		HasVoted:   m.HasVoted,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type otpModel struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	VoterID   string    `gorm:"column:voter_id;size:64;index;not null"`
	Code      string    `gorm:"column:code;size:16;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:used;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (otpModel) TableName() string {
	return "otps"
}

func otpModelFromEntity(otp entities.OTP) otpModel {
	return otpModel{
		ID:        strings.TrimSpace(otp.OTPID),
		VoterID:   strings.TrimSpace(otp.VoterID),
		Code:      otp.Code,
		ExpiresAt: otp.ExpiresAt.UTC(),
		Used:      otp.Used,
		CreatedAt: otp.CreatedAt.UTC(),
	}
}

func (m otpModel) toEntity() entities.OTP {
	return entities.OTP{
		OTPID:     m.ID,
		VoterID:   m.VoterID,
		Code:      m.Code,
		ExpiresAt: m.ExpiresAt.UTC(),
		Used:      m.Used,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// voteModel rows are append-only. The (voter_id, portfolio_id) index backs
// the has_voted guard.
type voteModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:64"`
	VoterID     string    `gorm:"column:voter_id;size:64;not null;uniqueIndex:idx_votes_voter_portfolio"`
	ElectionID  string    `gorm:"column:election_id;size:64;index;not null"`
	PortfolioID string    `gorm:"column:portfolio_id;size:64;not null;uniqueIndex:idx_votes_voter_portfolio"`
	CandidateID *string   `gorm:"column:candidate_id;size:64"`
	SkipVote    bool      `gorm:"column:skip_vote;not null"`
	Decision    *string   `gorm:"column:decision;size:8"`
	VoteTime    time.Time `gorm:"column:vote_time;not null"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:          strings.TrimSpace(vote.VoteID),
		VoterID:     strings.TrimSpace(vote.VoterID),
		ElectionID:  strings.TrimSpace(vote.ElectionID),
		PortfolioID: strings.TrimSpace(vote.PortfolioID),
		SkipVote:    vote.SkipVote,
		VoteTime:    vote.CreatedAt.UTC(),
	}
	if !vote.SkipVote && vote.CandidateID != nil {
		candidateID := strings.TrimSpace(*vote.CandidateID)
		row.CandidateID = &candidateID
	}
	if !vote.SkipVote && vote.Decision != nil {
		decision := string(*vote.Decision)
		row.Decision = &decision
	}
	if row.VoteTime.IsZero() {
		row.VoteTime = time.Now().UTC()
	}
	return row
}

type auditModel struct {
	ID        string         `gorm:"column:id;primaryKey;size:64"`
	ActorType string         `gorm:"column:actor_type;size:16;not null"`
	ActorID   string         `gorm:"column:actor_id;size:64"`
	VoterID   *string        `gorm:"column:voter_id;size:64;index"`
	Action    string         `gorm:"column:action;size:64;not null"`
	IPAddress string         `gorm:"column:ip_address;size:64"`
	Details   datatypes.JSON `gorm:"column:details"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (auditModel) TableName() string {
	return "logs"
}

func auditModelFromEntity(entry entities.AuditEntry) (auditModel, error) {
	details := datatypes.JSON([]byte("{}"))
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return auditModel{}, err
		}
		details = datatypes.JSON(raw)
	}
	row := auditModel{
		ID:        strings.TrimSpace(entry.EntryID),
		ActorType: string(entry.ActorType),
		ActorID:   strings.TrimSpace(entry.ActorID),
		Action:    entry.Action,
		IPAddress: strings.TrimSpace(entry.IPAddress),
		Details:   details,
		CreatedAt: entry.CreatedAt.UTC(),
	}
	if voterID := strings.TrimSpace(entry.VoterID); voterID != "" {
		row.VoterID = &voterID
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row, nil
}

type portfolioModel struct {
	ID              string `gorm:"column:id;primaryKey;size:64"`
	ElectionID      string `gorm:"column:election_id;size:64;index;not null"`
	Name            string `gorm:"column:name;size:255;not null"`
	Priority        int    `gorm:"column:priority"`
	RestrictionType string `gorm:"column:restriction_type;size:32"`
}

func (portfolioModel) TableName() string {
	return "portfolios"
}

func (m portfolioModel) toEntity() entities.Portfolio {
	restriction := entities.RestrictionType(m.RestrictionType)
	if restriction == "" {
		restriction = entities.RestrictionNone
	}
	return entities.Portfolio{
		PortfolioID:     m.ID,
		ElectionID:      m.ElectionID,
		Name:            m.Name,
		Priority:        m.Priority,
		RestrictionType: restriction,
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
