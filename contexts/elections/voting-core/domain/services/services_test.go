package services_test

import (
	"errors"
	"testing"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/services"
)

func TestPortfolioVisibleTo(t *testing.T) {
	male := entities.Voter{Gender: entities.GenderMale, Level: "300"}
	female := entities.Voter{Gender: entities.GenderFemale, Level: "Level 1"}

	cases := []struct {
		name        string
		restriction entities.RestrictionType
		voter       entities.Voter
		want        bool
	}{
		{name: "none", restriction: entities.RestrictionNone, voter: male, want: true},
		{name: "empty means none", restriction: "", voter: female, want: true},
		{name: "male only admits male", restriction: entities.RestrictionMaleOnly, voter: male, want: true},
		{name: "male only rejects female", restriction: entities.RestrictionMaleOnly, voter: female, want: false},
		{name: "female only admits female", restriction: entities.RestrictionFemaleOnly, voter: female, want: true},
		{name: "level from hundreds", restriction: entities.RestrictionLevel3, voter: male, want: true},
		{name: "level from label", restriction: entities.RestrictionLevel1, voter: female, want: true},
		{name: "level mismatch", restriction: entities.RestrictionLevel2, voter: male, want: false},
		{name: "missing level", restriction: entities.RestrictionLevel4, voter: entities.Voter{}, want: false},
		{name: "unknown restriction", restriction: "ALUMNI_ONLY", voter: male, want: false},
	}
	for _, tc := range cases {
		if got := services.PortfolioVisibleTo(tc.restriction, tc.voter); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCheckBallotPolicy(t *testing.T) {
	candidate := "candidate-7"
	pick := entities.Selection{PortfolioID: "p1", CandidateID: &candidate}
	skip := entities.Selection{PortfolioID: "p2", SkipVote: true}

	cases := []struct {
		name       string
		election   entities.Election
		selections []entities.Selection
		want       error
	}{
		{
			name:       "over voting",
			election:   entities.Election{MaxVotesPerVoter: 1, AllowUnderVoting: true},
			selections: []entities.Selection{pick, {PortfolioID: "p3", CandidateID: &candidate}},
			want:       domainerrors.ErrOverVoting,
		},
		{
			name:       "under voting refused",
			election:   entities.Election{MaxVotesPerVoter: 2, AllowUnderVoting: false},
			selections: []entities.Selection{pick, skip},
			want:       domainerrors.ErrUnderVotingNotAllowed,
		},
		{
			name:       "under voting allowed",
			election:   entities.Election{MaxVotesPerVoter: 2, AllowUnderVoting: true},
			selections: []entities.Selection{pick, skip},
		},
		{
			name:       "zero quota defaults to one",
			election:   entities.Election{AllowUnderVoting: false},
			selections: []entities.Selection{pick, skip},
		},
	}
	for _, tc := range cases {
		err := services.CheckBallotPolicy(tc.election, tc.selections)
		if tc.want == nil && err != nil {
			t.Fatalf("%s: expected success, got %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
