package queries

import (
	"context"
	"sort"
	"strings"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/services"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
)

type BallotQuery struct {
	Voters     ports.VoterRepository
	Portfolios ports.PortfolioRepository
}

// EligiblePortfolios lists the portfolios of the voter's election that the
// voter's restrictions admit, ordered by priority then name.
func (q BallotQuery) EligiblePortfolios(ctx context.Context, voterID string) ([]entities.Portfolio, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return nil, domainerrors.ErrVoterNotFound
	}
	voter, err := q.Voters.GetVoter(ctx, voterID)
	if err != nil {
		return nil, err
	}
	portfolios, err := q.Portfolios.ListPortfolios(ctx, voter.ElectionID)
	if err != nil {
		return nil, err
	}

	items := make([]entities.Portfolio, 0, len(portfolios))
	for _, portfolio := range portfolios {
		if services.PortfolioVisibleTo(portfolio.RestrictionType, voter) {
			items = append(items, portfolio)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority == items[j].Priority {
			return items[i].Name < items[j].Name
		}
		return items[i].Priority < items[j].Priority
	})
	return items, nil
}
