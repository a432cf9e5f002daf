package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/commands"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
)

func TestCastBallotCommitsAllWrites(t *testing.T) {
	f := newFixture(t)
	otp := f.issue(t)

	err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    "voter-1",
		OTPID:      otp.OTPID,
		IPAddress:  "10.0.0.7",
		Selections: []entities.Selection{candidate("p-pres", "c-1"), skip("p-sec"), decide("p-treas", entities.DecisionYes)},
	})
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	votes := f.store.VotesByVoter("voter-1")
	if len(votes) != 3 {
		t.Fatalf("expected 3 vote rows, got %d", len(votes))
	}
	for _, vote := range votes {
		if vote.ElectionID != "el-1" || !vote.CreatedAt.Equal(baseTime) {
			t.Fatalf("unexpected vote %+v", vote)
		}
	}
	if !votes[1].SkipVote || votes[1].CandidateID != nil {
		t.Fatalf("expected skipped line without candidate, got %+v", votes[1])
	}

	voter, _ := f.store.GetVoter(context.Background(), "voter-1")
	if !voter.HasVoted {
		t.Fatalf("expected voter flagged")
	}
	consumed, _ := f.store.GetOTP(context.Background(), otp.OTPID)
	if !consumed.Used {
		t.Fatalf("expected otp consumed")
	}

	var castEntries int
	for _, entry := range f.store.AuditEntries() {
		if entry.Action == entities.AuditActionCastVote {
			castEntries++
			if entry.Details["votesCount"] != 3 || entry.IPAddress != "10.0.0.7" {
				t.Fatalf("unexpected audit entry %+v", entry)
			}
		}
	}
	if castEntries != 1 {
		t.Fatalf("expected one cast_vote audit entry, got %d", castEntries)
	}

	events := f.bus.Events()
	if len(events) != 1 || events[0].event != application.EventVoteCast || events[0].payload["electionId"] != "el-1" {
		t.Fatalf("expected one vote_cast event, got %+v", events)
	}
	if f.metrics.Ballots("accepted") != 1 {
		t.Fatalf("expected accepted ballot metric")
	}
}

func TestCastBallotExactlyOnceUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	otp := f.issue(t)

	const attempts = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		already int
		other   []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
				VoterID:    "voter-1",
				OTPID:      otp.OTPID,
				Selections: []entities.Selection{candidate("p-pres", "c-1")},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, domainerrors.ErrAlreadyVoted):
				already++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if success != 1 || already != attempts-1 || len(other) != 0 {
		t.Fatalf("expected 1 success and %d already_voted, got success=%d already=%d other=%v", attempts-1, success, already, other)
	}
	if votes := f.store.VotesByVoter("voter-1"); len(votes) != 1 {
		t.Fatalf("expected exactly one vote row, got %d", len(votes))
	}
	if events := f.bus.Events(); len(events) != 1 {
		t.Fatalf("expected one vote_cast event, got %d", len(events))
	}
}

func TestCastBallotVotersDoNotBlockEachOther(t *testing.T) {
	f := newFixture(t)
	f.store.PutVoter(entities.Voter{VoterID: "voter-2", StudentID: "S200", ElectionID: "el-1"})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, voterID := range []string{"voter-1", "voter-2"} {
		wg.Add(1)
		go func(i int, voterID string) {
			defer wg.Done()
			errs[i] = f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
				VoterID:    voterID,
				Selections: []entities.Selection{candidate("p-pres", "c-1")},
			})
		}(i, voterID)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("voter %d cast failed: %v", i+1, err)
		}
	}
}

func TestCastBallotPolicyViolationsWriteNothing(t *testing.T) {
	cases := []struct {
		name       string
		maxVotes   int
		allowUnder bool
		selections []entities.Selection
		want       error
	}{
		{
			name:       "over voting",
			maxVotes:   2,
			allowUnder: true,
			selections: []entities.Selection{candidate("p-1", "c-1"), candidate("p-2", "c-2"), candidate("p-3", "c-3")},
			want:       domainerrors.ErrOverVoting,
		},
		{
			name:       "under voting forbidden",
			maxVotes:   2,
			allowUnder: false,
			selections: []entities.Selection{candidate("p-1", "c-1"), skip("p-2")},
			want:       domainerrors.ErrUnderVotingNotAllowed,
		},
		{
			name:       "duplicate portfolio",
			maxVotes:   2,
			allowUnder: true,
			selections: []entities.Selection{candidate("p-1", "c-1"), candidate("p-1", "c-2")},
			want:       domainerrors.ErrInvalidBallot,
		},
		{
			name:       "empty ballot",
			maxVotes:   2,
			allowUnder: true,
			want:       domainerrors.ErrInvalidBallot,
		},
		{
			name:       "bad decision",
			maxVotes:   2,
			allowUnder: true,
			selections: []entities.Selection{decide("p-1", entities.Decision("MAYBE"))},
			want:       domainerrors.ErrInvalidBallot,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.updateElection(t, func(e *entities.Election) {
				e.MaxVotesPerVoter = tc.maxVotes
				e.AllowUnderVoting = tc.allowUnder
			})
			otp := f.issue(t)

			err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
				VoterID:    "voter-1",
				OTPID:      otp.OTPID,
				Selections: tc.selections,
			})
			expectErr(t, err, tc.want)
			f.assertNothingWritten(t, otp.OTPID)
			if len(f.bus.Events()) != 0 {
				t.Fatalf("expected no notification on failure")
			}
		})
	}
}

func TestCastBallotUnderVotingAllowedWhenPermitted(t *testing.T) {
	f := newFixture(t)
	err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    "voter-1",
		Selections: []entities.Selection{candidate("p-1", "c-1"), skip("p-2")},
	})
	if err != nil {
		t.Fatalf("expected under-voting to be accepted, got %v", err)
	}
}

func TestCastBallotExactQuotaWhenUnderVotingForbidden(t *testing.T) {
	f := newFixture(t)
	f.updateElection(t, func(e *entities.Election) { e.AllowUnderVoting = false })
	err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    "voter-1",
		Selections: []entities.Selection{candidate("p-1", "c-1"), decide("p-2", entities.DecisionNo)},
	})
	if err != nil {
		t.Fatalf("expected a full ballot to be accepted, got %v", err)
	}
}

func TestCastBallotChecksWindowNotJustFlag(t *testing.T) {
	f := newFixture(t)
	otp := f.issue(t)

	// The flag still says active but the end time has passed; the clock has
	// not caught up yet.
	f.clock.Advance(61 * time.Minute)
	err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    "voter-1",
		OTPID:      otp.OTPID,
		Selections: []entities.Selection{candidate("p-1", "c-1")},
	})
	expectErr(t, err, domainerrors.ErrElectionWindowClosed)
	f.assertNothingWritten(t, otp.OTPID)
}

func TestCastBallotRejectsInactiveElection(t *testing.T) {
	f := newFixture(t)
	f.updateElection(t, func(e *entities.Election) { e.IsActive = false })

	err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    "voter-1",
		Selections: []entities.Selection{candidate("p-1", "c-1")},
	})
	expectErr(t, err, domainerrors.ErrElectionNotActive)
	f.assertNothingWritten(t, "")
}

func TestCastBallotRejectsForeignElectionAndUnknownVoter(t *testing.T) {
	f := newFixture(t)

	err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    "voter-1",
		ElectionID: "el-other",
		Selections: []entities.Selection{candidate("p-1", "c-1")},
	})
	expectErr(t, err, domainerrors.ErrVoterNotFound)

	err = f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    "ghost",
		Selections: []entities.Selection{candidate("p-1", "c-1")},
	})
	expectErr(t, err, domainerrors.ErrVoterNotFound)
}

func TestCastBallotOTPLifecycle(t *testing.T) {
	t.Run("expired code", func(t *testing.T) {
		f := newFixture(t)
		otp := f.issue(t)
		f.clock.Advance(commands.DefaultCodeTTL + time.Second)
		f.updateElection(t, func(e *entities.Election) {
			end := baseTime.Add(3 * time.Hour)
			e.EndTime = &end
		})

		_, err := f.otp.Verify(context.Background(), "voter-1", otp.Code, "")
		expectErr(t, err, domainerrors.ErrOTPInvalidOrExpired)

		err = f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
			VoterID:    "voter-1",
			OTPID:      otp.OTPID,
			Selections: []entities.Selection{candidate("p-1", "c-1")},
		})
		expectErr(t, err, domainerrors.ErrOTPInvalid)
		f.assertNothingWritten(t, otp.OTPID)
	})

	t.Run("code belongs to another voter", func(t *testing.T) {
		f := newFixture(t)
		f.store.PutVoter(entities.Voter{VoterID: "voter-2", StudentID: "S200", ElectionID: "el-1"})
		other, err := f.otp.Generate(context.Background(), "voter-2", 0)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		err = f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
			VoterID:    "voter-1",
			OTPID:      other.OTPID,
			Selections: []entities.Selection{candidate("p-1", "c-1")},
		})
		expectErr(t, err, domainerrors.ErrOTPInvalid)
	})

	t.Run("consumed code", func(t *testing.T) {
		f := newFixture(t)
		otp := f.issue(t)

		if _, err := f.otp.Verify(context.Background(), "voter-1", otp.Code, "10.0.0.1"); err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if _, err := f.otp.Verify(context.Background(), "voter-1", otp.Code, "10.0.0.1"); err != nil {
			t.Fatalf("verify must not consume the code: %v", err)
		}

		err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
			VoterID:    "voter-1",
			OTPID:      otp.OTPID,
			Selections: []entities.Selection{candidate("p-1", "c-1")},
		})
		if err != nil {
			t.Fatalf("cast failed: %v", err)
		}

		_, err = f.otp.Verify(context.Background(), "voter-1", otp.Code, "10.0.0.1")
		expectErr(t, err, domainerrors.ErrOTPInvalidOrExpired)

		// Reset the flag so only the consumed code stands between the voter and a second ballot.
		f.store.PutVoter(entities.Voter{VoterID: "voter-1", StudentID: "S100", ElectionID: "el-1"})
		err = f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
			VoterID:    "voter-1",
			OTPID:      otp.OTPID,
			Selections: []entities.Selection{candidate("p-1", "c-1")},
		})
		expectErr(t, err, domainerrors.ErrOTPInvalid)
	})
}

func TestCastBallotSucceedsWhenPublishFails(t *testing.T) {
	for _, bus := range []*recordingBus{{err: errors.New("broker down")}, {panics: true}} {
		f := newFixture(t)
		f.ballots.Bus = bus

		err := f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
			VoterID:    "voter-1",
			Selections: []entities.Selection{candidate("p-1", "c-1")},
		})
		if err != nil {
			t.Fatalf("expected publish failure to be swallowed, got %v", err)
		}
		voter, _ := f.store.GetVoter(context.Background(), "voter-1")
		if !voter.HasVoted {
			t.Fatalf("expected the ballot to stay committed")
		}
	}
}

type cancellingClock struct {
	now    time.Time
	cancel context.CancelFunc
}

func (c cancellingClock) Now() time.Time {
	c.cancel()
	return c.now
}

func TestCastBallotCancelledBeforeCommitRollsBack(t *testing.T) {
	f := newFixture(t)
	otp := f.issue(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.ballots.Clock = cancellingClock{now: baseTime, cancel: cancel}

	err := f.ballots.CastBallot(ctx, commands.CastBallotCommand{
		VoterID:    "voter-1",
		OTPID:      otp.OTPID,
		Selections: []entities.Selection{candidate("p-1", "c-1")},
	})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, domainerrors.ErrInternal) {
		t.Fatalf("expected internal cancellation error, got %v", err)
	}
	f.assertNothingWritten(t, otp.OTPID)
	if len(f.bus.Events()) != 0 {
		t.Fatalf("expected no notification for a rolled back ballot")
	}
}

func TestCastBallotOperatorScenario(t *testing.T) {
	f := newFixture(t)
	f.updateElection(t, func(e *entities.Election) {
		e.MaxVotesPerVoter = 1
		e.AllowUnderVoting = false
	})

	issued, err := f.otp.IssueCode(context.Background(), commands.IssueCodeCommand{StudentID: "S100", AgentID: "agent-1"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	verified, err := f.otp.VerifyCode(context.Background(), commands.VerifyCodeCommand{StudentID: "S100", Code: issued.Code})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.OTPID != issued.OTPID || verified.VoterID != "voter-1" {
		t.Fatalf("unexpected verification %+v", verified)
	}

	err = f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    verified.VoterID,
		OTPID:      verified.OTPID,
		Selections: []entities.Selection{candidate("p-pres", "c-1")},
	})
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	err = f.ballots.CastBallot(context.Background(), commands.CastBallotCommand{
		VoterID:    verified.VoterID,
		OTPID:      verified.OTPID,
		Selections: []entities.Selection{candidate("p-pres", "c-1")},
	})
	expectErr(t, err, domainerrors.ErrAlreadyVoted)

	_, err = f.otp.IssueCode(context.Background(), commands.IssueCodeCommand{StudentID: "S100", AgentID: "agent-1"})
	expectErr(t, err, domainerrors.ErrAlreadyVoted)

	if f.metrics.Ballots("accepted") != 1 || f.metrics.Ballots("already_voted") != 1 {
		t.Fatalf("unexpected ballot metrics %+v", f.metrics.ballots)
	}
}
