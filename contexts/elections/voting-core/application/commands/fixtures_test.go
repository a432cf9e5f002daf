package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/memory"
	securityadapter "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/security"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/commands"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
)

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type mutableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type published struct {
	event   string
	payload map[string]any
}

type recordingBus struct {
	mu     sync.Mutex
	events []published
	err    error
	panics bool
}

func (b *recordingBus) Publish(_ context.Context, event string, payload map[string]any) error {
	if b.panics {
		panic("bus exploded")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{event: event, payload: payload})
	return b.err
}

func (b *recordingBus) Events() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.events...)
}

type countingMetrics struct {
	mu      sync.Mutex
	ballots map[string]int
	otps    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{ballots: map[string]int{}, otps: map[string]int{}}
}

func (m *countingMetrics) ObserveBallot(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ballots[outcome]++
}

func (m *countingMetrics) ObserveOTP(action string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[action+"/"+outcome]++
}

func (m *countingMetrics) ObserveTransition(string) {}

func (m *countingMetrics) ObserveTick(time.Duration, int) {}

func (m *countingMetrics) Ballots(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ballots[outcome]
}

type fixture struct {
	store   *memory.Store
	clock   *mutableClock
	bus     *recordingBus
	metrics *countingMetrics
	ballots commands.BallotUseCase
	otp     commands.OTPUseCase
}

// newFixture seeds an election open from an hour ago to an hour from now,
// allowing two votes with under-voting permitted, and one voter "voter-1".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &mutableClock{now: baseTime}
	bus := &recordingBus{}
	metrics := newCountingMetrics()
	tokens, err := securityadapter.NewHMACTokens("fixture-secret")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	end := baseTime.Add(time.Hour)
	store.PutElection(entities.Election{
		ElectionID:       "el-1",
		Title:            "SRC 2026",
		StartTime:        baseTime.Add(-time.Hour),
		EndTime:          &end,
		IsActive:         true,
		MaxVotesPerVoter: 2,
		AllowUnderVoting: true,
	})
	store.PutVoter(entities.Voter{VoterID: "voter-1", StudentID: "S100", ElectionID: "el-1"})

	return &fixture{
		store:   store,
		clock:   clock,
		bus:     bus,
		metrics: metrics,
		ballots: commands.BallotUseCase{
			Ballots: store,
			Bus:     bus,
			Clock:   clock,
			IDGen:   store,
			Metrics: metrics,
		},
		otp: commands.OTPUseCase{
			Voters:    store,
			Elections: store,
			OTPs:      store,
			Audit:     store,
			Tokens:    tokens,
			Codes:     securityadapter.NumericCodes{},
			Clock:     clock,
			IDGen:     store,
			Metrics:   metrics,
		},
	}
}

func (f *fixture) updateElection(t *testing.T, mutate func(*entities.Election)) {
	t.Helper()
	election, err := f.store.GetElection(context.Background(), "el-1")
	if err != nil {
		t.Fatalf("get election: %v", err)
	}
	mutate(&election)
	f.store.PutElection(election)
}

// issue generates a code for voter-1 through the use case.
func (f *fixture) issue(t *testing.T) entities.OTP {
	t.Helper()
	otp, err := f.otp.Generate(context.Background(), "voter-1", commands.DefaultCodeTTL)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	return otp
}

func (f *fixture) assertNothingWritten(t *testing.T, otpID string) {
	t.Helper()
	if votes := f.store.VotesByVoter("voter-1"); len(votes) != 0 {
		t.Fatalf("expected no votes, got %d", len(votes))
	}
	voter, err := f.store.GetVoter(context.Background(), "voter-1")
	if err != nil {
		t.Fatalf("get voter: %v", err)
	}
	if voter.HasVoted {
		t.Fatalf("expected has_voted to stay false")
	}
	if otpID != "" {
		otp, err := f.store.GetOTP(context.Background(), otpID)
		if err != nil {
			t.Fatalf("get otp: %v", err)
		}
		if otp.Used {
			t.Fatalf("expected otp to stay unused")
		}
	}
	for _, entry := range f.store.AuditEntries() {
		if entry.Action == entities.AuditActionCastVote {
			t.Fatalf("expected no cast_vote audit entry")
		}
	}
}

func candidate(portfolioID string, candidateID string) entities.Selection {
	return entities.Selection{PortfolioID: portfolioID, CandidateID: &candidateID}
}

func skip(portfolioID string) entities.Selection {
	return entities.Selection{PortfolioID: portfolioID, SkipVote: true}
}

func decide(portfolioID string, decision entities.Decision) entities.Selection {
	return entities.Selection{PortfolioID: portfolioID, Decision: &decision}
}

func expectErr(t *testing.T, err error, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
