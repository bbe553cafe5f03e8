package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"casino/api"
	"casino/application"
	"casino/config"
	"casino/database"
	"casino/domain/engine"
	"casino/domain/entities"
	"casino/domain/interfaces"
	"casino/domain/policy"
	"casino/domain/services"
	"casino/infrastructure"
	"casino/infrastructure/observability"
	"casino/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the HTTP service
func Run(ctx context.Context) error {
	cfg := config.Get()
	setupLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting casino engine...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}()

	// Initialize database connection
	databaseURL := cfg.GetDatabaseURL()
	log.Info("Running database migrations...")
	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Load the win-rate policy
	snap, err := policy.LoadFile(cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	store := policy.NewStore(snap)
	log.WithFields(log.Fields{
		"path":    cfg.PolicyPath,
		"version": snap.Version,
	}).Info("Policy loaded")

	// Initialize event publisher
	publisher, closePublisher, err := newEventPublisher(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Record every policy version that goes live
	policyVersions := repository.NewPolicyVersionRepository(db)
	audit := application.NewPolicyAuditHook(policyVersions, publisher)
	if err := audit(ctx, snap); err != nil {
		return fmt.Errorf("failed to record initial policy: %w", err)
	}
	store.Guard(application.NewPolicyVersionGuard(policyVersions))
	store.OnChange(audit)
	policy.NewFileWatcher(cfg.PolicyPath, cfg.PolicyReloadInterval, store).Start(ctx)

	// Initialize services
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	limits := entities.StakeLimits{Min: cfg.MinStake, Max: cfg.MaxStake}
	gameService := services.NewGameService(uowFactory, store, engine.New(nil), limits, cfg.CrashSessionTTL,
		services.WithMetrics(metrics))

	if open, err := application.SeedOpenCrashSessions(ctx, repository.NewCrashSessionRepository(db), metrics, metrics); err != nil {
		log.WithError(err).Warn("Failed to seed open crash session gauge")
	} else {
		log.WithField("open", open).Info("Open crash sessions from previous run")
	}

	// Start the crash reaper
	reaper := services.NewCrashReaper(uowFactory, metrics, time.Now)
	worker := application.NewCrashExpiryWorker(reaper, cfg.CrashReaperSchedule, application.DefaultExpiryBatchSize)
	stopWorker, err := worker.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start crash expiry worker: %w", err)
	}
	defer stopWorker()

	if cfg.SettlementServiceToken == "" {
		log.Warn("SETTLEMENT_SERVICE_TOKEN is not set, /v1/settlements is disabled")
	}

	// Start HTTP server
	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.RouterDeps{
			Games:          gameService,
			Settlements:    services.NewSettlementService(uowFactory, store, limits, cfg.SettlementMaxMultiplier),
			ServiceToken:   cfg.SettlementServiceToken,
			Health:         db,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown timed out")
	}

	log.Info("Shutdown completed")
	return nil
}

// newEventPublisher connects to NATS when enabled. Events are dropped otherwise.
func newEventPublisher(ctx context.Context, cfg *config.Config, metrics *observability.MetricsProvider) (interfaces.EventPublisher, func(), error) {
	if !cfg.NATSEnabled {
		log.Info("NATS disabled, events will not be published")
		return infrastructure.NewNoopEventPublisher(), func() {}, nil
	}

	client := infrastructure.NewNATSClient(infrastructure.NATSOptions{
		Servers:      cfg.NATSServers,
		ClientName:   cfg.OTelServiceName,
		StreamMaxAge: cfg.NATSStreamMaxAge,
	})
	if err := client.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureEventStream(mapper.StreamSubjects()); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to create event stream: %w", err)
	}

	publisher := infrastructure.NewNATSEventPublisher(client, mapper).WithObserver(metrics.RecordNATSMessagePublished)
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	return publisher, closeFn, nil
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
