package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/commands"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/queries"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/entities"
	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
	httptransport "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	Ballots commands.BallotUseCase
	OTP     commands.OTPUseCase
	Ballot  queries.BallotQuery
	Tokens  ports.TokenIssuer
	Clock   ports.Clock
	Logger  *slog.Logger
}

// Authenticate resolves a bearer token to voter claims.
func (h Handler) Authenticate(token string) (ports.VoterClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" || h.Tokens == nil {
		return ports.VoterClaims{}, domainerrors.ErrInvalidToken
	}
	claims, err := h.Tokens.Parse(token, h.now())
	if err != nil {
		return ports.VoterClaims{}, err
	}
	if claims.Role != commands.VoterRole || claims.VoterID == "" {
		return ports.VoterClaims{}, domainerrors.ErrInvalidToken
	}
	return claims, nil
}

// IssueCodeHandler godoc
// @Summary Issue a voter code
// @Description Generates a one-time code for a registered voter who has not voted yet.
// @Tags voting-core
// @Accept json
// @Produce json
// @Param X-Agent-Id header string true "Polling agent id"
// @Param X-Agent-Role header string true "Must be polling_agent"
// @Param request body httptransport.IssueCodeRequest true "Voter identity"
// @Success 200 {object} httptransport.IssueCodeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/auth/voter/generate [post]
func (h Handler) IssueCodeHandler(
	ctx context.Context,
	agentID string,
	request httptransport.IssueCodeRequest,
) (httptransport.IssueCodeResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http issue code received",
		"event", "voting_core_http_issue_code_received",
		"module", "elections/voting-core",
		"layer", "transport",
		"agent_id", agentID,
	)

	result, err := h.OTP.IssueCode(ctx, commands.IssueCodeCommand{
		StudentID: request.StudentID,
		AgentID:   agentID,
	})
	if err != nil {
		return httptransport.IssueCodeResponse{}, err
	}
	return httptransport.IssueCodeResponse{
		Code:      result.Code,
		ExpiresAt: result.ExpiresAt,
	}, nil
}

// VerifyCodeHandler godoc
// @Summary Verify a voter code
// @Description Exchanges a valid code for a short-lived voter token. The code stays unused until the ballot is cast.
// @Tags voting-core
// @Accept json
// @Produce json
// @Param request body httptransport.VerifyCodeRequest true "Voter code"
// @Success 200 {object} httptransport.VerifyCodeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/auth/voter/verify [post]
func (h Handler) VerifyCodeHandler(
	ctx context.Context,
	ipAddress string,
	request httptransport.VerifyCodeRequest,
) (httptransport.VerifyCodeResponse, error) {
	result, err := h.OTP.VerifyCode(ctx, commands.VerifyCodeCommand{
		StudentID: request.StudentID,
		Code:      request.Code,
		IPAddress: ipAddress,
	})
	if err != nil {
		return httptransport.VerifyCodeResponse{}, err
	}
	return httptransport.VerifyCodeResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}, nil
}

// CastBallotHandler godoc
// @Summary Cast a ballot
// @Description Records every selection, marks the voter as voted and consumes the code in one transaction.
// @Tags voting-core
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CastBallotRequest true "Ballot"
// @Success 200 {object} httptransport.CastBallotResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/votes [post]
func (h Handler) CastBallotHandler(
	ctx context.Context,
	claims ports.VoterClaims,
	ipAddress string,
	request httptransport.CastBallotRequest,
) (httptransport.CastBallotResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http cast ballot received",
		"event", "voting_core_http_cast_received",
		"module", "elections/voting-core",
		"layer", "transport",
		"voter_id", claims.VoterID,
		"selection_count", len(request.Selections),
	)

	selections := make([]entities.Selection, 0, len(request.Selections))
	for _, item := range request.Selections {
		selection := entities.Selection{
			PortfolioID: item.PortfolioID,
			CandidateID: item.CandidateID,
			SkipVote:    item.SkipVote,
		}
		if item.Decision != nil {
			decision := entities.Decision(strings.ToUpper(strings.TrimSpace(*item.Decision)))
			selection.Decision = &decision
		}
		selections = append(selections, selection)
	}

	err := h.Ballots.CastBallot(ctx, commands.CastBallotCommand{
		VoterID:    claims.VoterID,
		ElectionID: request.ElectionID,
		OTPID:      claims.OTPID,
		IPAddress:  ipAddress,
		Selections: selections,
	})
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	return httptransport.CastBallotResponse{OK: true}, nil
}

// BallotHandler godoc
// @Summary List ballot portfolios
// @Description Lists the portfolios of the voter's election that the voter is eligible to vote on.
// @Tags voting-core
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.BallotResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/ballot [get]
func (h Handler) BallotHandler(ctx context.Context, voterID string) (httptransport.BallotResponse, error) {
	portfolios, err := h.Ballot.EligiblePortfolios(ctx, voterID)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	items := make([]httptransport.PortfolioResponse, 0, len(portfolios))
	for _, portfolio := range portfolios {
		items = append(items, httptransport.PortfolioResponse{
			PortfolioID:     portfolio.PortfolioID,
			Name:            portfolio.Name,
			Priority:        portfolio.Priority,
			RestrictionType: string(portfolio.RestrictionType),
		})
	}
	return httptransport.BallotResponse{Portfolios: items}, nil
}

func (h Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
