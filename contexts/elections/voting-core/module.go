package votingcore

import (
	"log/slog"
	"time"

	httpadapter "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/http"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/memory"
	securityadapter "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/security"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/commands"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/queries"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/workers"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
)

// Module is the voting-core composition root exposed to runtime wiring.
type Module struct {
	Handler       httpadapter.Handler
	ElectionClock workers.ElectionClock
	Store         *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Elections     ports.ElectionRepository
	Voters        ports.VoterRepository
	OTPs          ports.OTPRepository
	Portfolios    ports.PortfolioRepository
	Audit         ports.AuditLog
	Ballots       ports.BallotUnitOfWork
	Bus           ports.NotificationBus
	Tokens        ports.TokenIssuer
	Codes         ports.CodeGenerator
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Metrics       ports.Metrics
	CodeTTL       time.Duration
	TokenTTL      time.Duration
	ClockInterval time.Duration
	Logger        *slog.Logger
}

// NewModule wires the ballot, code and clock use cases and the transport
// handler using explicit ports.
func NewModule(deps Dependencies) Module {
	codes := deps.Codes
	if codes == nil {
		codes = securityadapter.NumericCodes{}
	}

	otp := commands.OTPUseCase{
		Voters:    deps.Voters,
		Elections: deps.Elections,
		OTPs:      deps.OTPs,
		Audit:     deps.Audit,
		Tokens:    deps.Tokens,
		Codes:     codes,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Metrics:   deps.Metrics,
		CodeTTL:   deps.CodeTTL,
		TokenTTL:  deps.TokenTTL,
		Logger:    deps.Logger,
	}
	ballots := commands.BallotUseCase{
		Ballots: deps.Ballots,
		Bus:     deps.Bus,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	ballot := queries.BallotQuery{
		Voters:     deps.Voters,
		Portfolios: deps.Portfolios,
	}
	clock := workers.ElectionClock{
		Elections: deps.Elections,
		Bus:       deps.Bus,
		Clock:     deps.Clock,
		Metrics:   deps.Metrics,
		Interval:  deps.ClockInterval,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Ballots: ballots,
			OTP:     otp,
			Ballot:  ballot,
			Tokens:  deps.Tokens,
			Clock:   deps.Clock,
			Logger:  deps.Logger,
		},
		ElectionClock: clock,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters. Store-backed ports in deps are replaced; everything else is kept.
func NewInMemoryModule(deps Dependencies) Module {
	store := memory.NewStore()
	deps.Elections = store
	deps.Voters = store
	deps.OTPs = store
	deps.Portfolios = store
	deps.Audit = store
	deps.Ballots = store
	if deps.Clock == nil {
		deps.Clock = store
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = store
	}
	module := NewModule(deps)
	module.Store = store
	return module
}
