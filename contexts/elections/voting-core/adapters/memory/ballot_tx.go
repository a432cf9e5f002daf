package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
)

// WithinBallotTx holds the voter's lock for the whole transaction and stages
// writes, applying them under the store lock only when fn succeeds and ctx is
// still live.
func (s *Store) WithinBallotTx(ctx context.Context, voterID string, fn func(tx ports.BallotTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.voterLocks.Lock(strings.TrimSpace(voterID))
	defer unlock()

	tx := &ballotTx{store: s, votedAt: make(map[string]time.Time), usedOTPs: make(map[string]time.Time)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range tx.votedAt {
		voter := s.voters[id]
		voter.HasVoted = true
		voter.UpdatedAt = at
		s.voters[id] = voter
	}
	for otpID := range tx.usedOTPs {
		otp := s.otps[otpID]
		otp.Used = true
		s.otps[otpID] = otp
	}
	s.votes = append(s.votes, tx.votes...)
	s.audit = append(s.audit, tx.audit...)
	return nil
}

type ballotTx struct {
	store    *Store
	votes    []entities.Vote
	audit    []entities.AuditEntry
	votedAt  map[string]time.Time
	usedOTPs map[string]time.Time
}

func (t *ballotTx) LockVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	voter, err := t.store.GetVoter(ctx, voterID)
	if err != nil {
		return entities.Voter{}, err
	}
	if _, staged := t.votedAt[voter.VoterID]; staged {
		voter.HasVoted = true
	}
	return voter, nil
}

func (t *ballotTx) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	return t.store.GetElection(ctx, electionID)
}

func (t *ballotTx) GetOTP(ctx context.Context, otpID string) (entities.OTP, error) {
	otp, err := t.store.GetOTP(ctx, otpID)
	if err != nil {
		return entities.OTP{}, err
	}
	if _, staged := t.usedOTPs[otp.OTPID]; staged {
		otp.Used = true
	}
	return otp, nil
}

func (t *ballotTx) InsertVotes(_ context.Context, votes []entities.Vote) error {
	t.votes = append(t.votes, votes...)
	return nil
}

func (t *ballotTx) MarkVoterVoted(ctx context.Context, voterID string, updatedAt time.Time) error {
	voter, err := t.LockVoter(ctx, voterID)
	if err != nil {
		return err
	}
	if voter.HasVoted {
		return domainerrors.ErrAlreadyVoted
	}
	t.votedAt[voter.VoterID] = updatedAt.UTC()
	return nil
}

func (t *ballotTx) ConsumeOTP(ctx context.Context, otpID string, usedAt time.Time) error {
	otp, err := t.GetOTP(ctx, otpID)
	if err != nil {
		return err
	}
	if otp.Used {
		return domainerrors.ErrOTPInvalid
	}
	t.usedOTPs[otp.OTPID] = usedAt.UTC()
	return nil
}

func (t *ballotTx) AppendAudit(_ context.Context, entry entities.AuditEntry) error {
	t.audit = append(t.audit, entry)
	return nil
}

// keyedMutex hands out one mutex per key and drops it once no holder or
// waiter remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &refMutex{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

var _ ports.BallotTx = (*ballotTx)(nil)
