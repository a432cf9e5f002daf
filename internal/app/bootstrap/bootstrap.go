package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	votingcore "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core"
	eventsadapter "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/events"
	postgresadapter "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/postgres"
	securityadapter "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/adapters/security"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application/workers"
	"github.com/Yunusinusah/offline-voting/internal/platform/config"
	"github.com/Yunusinusah/offline-voting/internal/platform/db"
	"github.com/Yunusinusah/offline-voting/internal/platform/httpserver"
	"github.com/Yunusinusah/offline-voting/internal/platform/messaging"
	platformmetrics "github.com/Yunusinusah/offline-voting/internal/platform/metrics"
	"github.com/Yunusinusah/offline-voting/internal/platform/realtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server   *httpserver.Server
	database *db.Database
	bus      *messaging.Bus
	hub      *realtime.Hub
	clock    workers.ElectionClock
	runClock bool
	closers  []io.Closer
	logger   *slog.Logger
}

type WorkerApp struct {
	database *db.Database
	clock    workers.ElectionClock
	closers  []io.Closer
	logger   *slog.Logger
}

// runtime holds what both processes build the same way.
type runtime struct {
	cfg      config.Config
	module   votingcore.Module
	database *db.Database
	bus      *messaging.Bus
	registry *prometheus.Registry
	closers  []io.Closer
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	rt, err := buildRuntime("api", true)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub(rt.logger)
	server := httpserver.New(rt.module, httpserver.Options{
		Addr:              normalizeAddr(rt.cfg.HTTPPort),
		AdminKey:          rt.cfg.AdminAPIKey,
		TrustProxyHeaders: rt.cfg.TrustProxyHeaders,
		Events:            hub,
		Metrics:           platformmetrics.Handler(rt.registry),
		Logger:            rt.logger,
	})
	return &APIApp{
		server:   server,
		database: rt.database,
		bus:      rt.bus,
		hub:      hub,
		clock:    rt.module.ElectionClock,
		runClock: rt.cfg.ElectionClockEnabled,
		closers:  rt.closers,
		logger:   rt.logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	rt, err := buildRuntime("worker", false)
	if err != nil {
		return nil, err
	}
	if rt.cfg.EventBus == config.EventBusMemory {
		rt.logger.Warn("worker events stay in process",
			"event", "bootstrap_worker_memory_bus",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return &WorkerApp{
		database: rt.database,
		clock:    rt.module.ElectionClock,
		closers:  rt.closers,
		logger:   rt.logger,
	}, nil
}

func buildRuntime(process string, allowMemoryStore bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", process)

	bus := messaging.NewBus(logger)
	targets := messaging.Fanout{bus}
	var closers []io.Closer
	switch cfg.EventBus {
	case config.EventBusKafka:
		kafka, err := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventTopicPrefix)
		if err != nil {
			return nil, err
		}
		targets = append(targets, kafka)
		closers = append(closers, kafka)
	case config.EventBusRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redis, err := messaging.NewRedisPublisher(ctx, cfg.RedisURL, cfg.EventTopicPrefix)
		cancel()
		if err != nil {
			return nil, err
		}
		targets = append(targets, redis)
		closers = append(closers, redis)
	}

	tokens, err := securityadapter.NewHMACTokens(cfg.TokenSecret)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clock := postgresadapter.SystemClock{}
	publisher := eventsadapter.NewPublisher(targets, cfg.ServiceName, clock, logger)
	// the publisher drains into the transports, so it closes before them
	closers = append([]io.Closer{publisher}, closers...)
	deps := votingcore.Dependencies{
		Bus:           publisher,
		Tokens:        tokens,
		Codes:         securityadapter.NumericCodes{},
		Clock:         clock,
		IDGenerator:   postgresadapter.UUIDGenerator{},
		Metrics:       platformmetrics.NewVotingMetrics(registry, cfg.MetricsNamespace),
		CodeTTL:       cfg.OTPTTL,
		TokenTTL:      cfg.VoterTokenTTL,
		ClockInterval: cfg.ElectionClockInterval,
		Logger:        logger,
	}

	rt := &runtime{
		cfg:      cfg,
		bus:      bus,
		registry: registry,
		closers:  closers,
		logger:   logger,
	}

	if strings.TrimSpace(cfg.DatabaseDSN) == "" {
		if !allowMemoryStore {
			closeAll(closers)
			return nil, errors.New("DATABASE_DSN is required")
		}
		logger.Warn("DATABASE_DSN not set, running on the in-memory store",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		rt.module = votingcore.NewInMemoryModule(deps)
		return rt, nil
	}

	database, err := db.Connect(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := postgresadapter.AutoMigrate(database.DB); err != nil {
			_ = database.Close()
			closeAll(closers)
			return nil, err
		}
	}

	repo := postgresadapter.NewRepository(database.DB, logger)
	deps.Elections = repo
	deps.Voters = repo
	deps.OTPs = repo
	deps.Portfolios = repo
	deps.Audit = repo
	deps.Ballots = repo
	rt.module = votingcore.NewModule(deps)
	rt.database = database
	return rt, nil
}

// Run serves HTTP until ctx is cancelled, then shuts the server down.
func (a *APIApp) Run(ctx context.Context) error {
	a.bus.Subscribe(ctx, messaging.AllTopics, "admin-dashboard", a.hub.Broadcast)
	if a.runClock {
		go func() {
			_ = a.clock.Run(ctx)
		}()
	}

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"election_clock", a.runClock,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (a *APIApp) Close() error {
	return closeDatabase(a.database, a.closers)
}

// Run drives the election clock until ctx is cancelled.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.clock.Interval.String(),
	)
	return w.clock.Run(ctx)
}

func (w *WorkerApp) Close() error {
	return closeDatabase(w.database, w.closers)
}

func closeDatabase(database *db.Database, closers []io.Closer) error {
	errs := []error{closeAll(closers)}
	if database != nil {
		errs = append(errs, database.Close())
	}
	return errors.Join(errs...)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
