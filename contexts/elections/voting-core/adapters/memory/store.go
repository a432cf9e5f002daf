package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"

	"github.com/google/uuid"
)

// Store is an in-process implementation of every voting-core port. Ballot
// transactions serialize on the voter, never on the whole store.
type Store struct {
	mu sync.RWMutex

	elections  map[string]entities.Election
	voters     map[string]entities.Voter
	otps       map[string]entities.OTP
	votes      []entities.Vote
	audit      []entities.AuditEntry
	portfolios map[string]entities.Portfolio

	voterLocks *keyedMutex
}

func NewStore() *Store {
	return &Store{
		elections:  make(map[string]entities.Election),
		voters:     make(map[string]entities.Voter),
		otps:       make(map[string]entities.OTP),
		portfolios: make(map[string]entities.Portfolio),
		voterLocks: newKeyedMutex(),
	}
}

func (s *Store) PutElection(election entities.Election) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election.ElectionID = strings.TrimSpace(election.ElectionID)
	s.elections[election.ElectionID] = cloneElection(election)
}

func (s *Store) PutVoter(voter entities.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter.VoterID = strings.TrimSpace(voter.VoterID)
	s.voters[voter.VoterID] = voter
}

func (s *Store) PutOTP(otp entities.OTP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[strings.TrimSpace(otp.OTPID)] = otp
}

func (s *Store) PutPortfolio(portfolio entities.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[strings.TrimSpace(portfolio.PortfolioID)] = portfolio
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return cloneElection(election), nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		items = append(items, cloneElection(election))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ElectionID < items[j].ElectionID
	})
	return items, nil
}

func (s *Store) CompareAndSetElectionActive(
	_ context.Context,
	electionID string,
	expected bool,
	next bool,
	updatedAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return false, domainerrors.ErrElectionNotFound
	}
	if election.IsActive != expected {
		return false, nil
	}
	election.IsActive = next
	election.UpdatedAt = updatedAt.UTC()
	s.elections[election.ElectionID] = election
	return true, nil
}

func (s *Store) GetVoter(_ context.Context, voterID string) (entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) GetVoterByStudentID(_ context.Context, studentID string) (entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	studentID = strings.TrimSpace(studentID)
	for _, voter := range s.voters {
		if voter.StudentID == studentID {
			return voter, nil
		}
	}
	return entities.Voter{}, domainerrors.ErrVoterNotFound
}

func (s *Store) CreateOTP(_ context.Context, otp entities.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[otp.OTPID] = otp
	return nil
}

func (s *Store) FindValidOTP(_ context.Context, voterID string, code string, now time.Time) (entities.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		found entities.OTP
		ok    bool
	)
	for _, otp := range s.otps {
		if otp.VoterID != voterID || otp.Code != code || !otp.ValidAt(now) {
			continue
		}
		if !ok || otp.CreatedAt.After(found.CreatedAt) {
			found = otp
			ok = true
		}
	}
	if !ok {
		return entities.OTP{}, domainerrors.ErrOTPInvalidOrExpired
	}
	return found, nil
}

func (s *Store) GetOTP(_ context.Context, otpID string) (entities.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	otp, ok := s.otps[strings.TrimSpace(otpID)]
	if !ok {
		return entities.OTP{}, domainerrors.ErrOTPInvalid
	}
	return otp, nil
}

func (s *Store) ListPortfolios(_ context.Context, electionID string) ([]entities.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Portfolio, 0)
	for _, portfolio := range s.portfolios {
		if portfolio.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, portfolio)
		}
	}
	return items, nil
}

func (s *Store) AppendAudit(_ context.Context, entry entities.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

// VotesByVoter returns committed votes for a voter in insertion order.
func (s *Store) VotesByVoter(voterID string) []entities.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.VoterID == voterID {
			items = append(items, vote)
		}
	}
	return items
}

func (s *Store) AuditEntries() []entities.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.AuditEntry(nil), s.audit...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneElection(election entities.Election) entities.Election {
	if election.EndTime != nil {
		end := *election.EndTime
		election.EndTime = &end
	}
	return election
}

var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.VoterRepository = (*Store)(nil)
var _ ports.OTPRepository = (*Store)(nil)
var _ ports.PortfolioRepository = (*Store)(nil)
var _ ports.AuditLog = (*Store)(nil)
var _ ports.BallotUnitOfWork = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
