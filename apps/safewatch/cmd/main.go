package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"safewatch/apps/safewatch/internal/alerts"
	"safewatch/apps/safewatch/internal/api"
	"safewatch/apps/safewatch/internal/config"
	"safewatch/apps/safewatch/internal/networks"
	"safewatch/apps/safewatch/internal/notifier"
	"safewatch/apps/safewatch/internal/processor"
	"safewatch/apps/safewatch/internal/repository"
	"safewatch/apps/safewatch/internal/scheduler"
	"safewatch/apps/safewatch/internal/txindex"
)

func main() {
	// Initialize zap logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration from environment variables
	cfg := config.NewConfig()

	logger.Info("Starting application with configuration",
		zap.String("db_url", cfg.DbURL),
		zap.String("kafka_broker", cfg.KafkaBroker),
		zap.String("kafka_topic", cfg.KafkaTopic),
		zap.Int("api_port", cfg.APIPort),
		zap.Int("poll_interval_seconds", cfg.PollIntervalSeconds),
		zap.Int("max_concurrent_monitors", cfg.MaxConcurrentMonitors),
	)

	// Connect to database
	db, err := sql.Open("postgres", cfg.DbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize database tables
	if err := repository.InitMigration(db); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	monitorRepository := repository.NewMonitorRepository(db, logger)
	transactionRepository := repository.NewTransactionRepository(db, logger)

	// A dispatch claim older than two poll intervals with no recorded outcome
	// belongs to a crashed or killed pass and may be retried.
	staleClaimAfter := 2 * time.Duration(cfg.PollIntervalSeconds) * time.Second
	dispatchRepository := repository.NewDispatchRepository(db, staleClaimAfter, logger)

	registry := networks.NewRegistry()
	indexClient := txindex.NewClient(time.Duration(cfg.FetchTimeoutSeconds)*time.Second, logger)

	// Pick the notifier: SMTP when configured, log-only stub otherwise
	var notify notifier.Notifier
	if cfg.SMTPHost != "" {
		notify = notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, logger)
	} else {
		logger.Warn("SMTP not configured, using log-only notifier")
		notify = notifier.NewLogNotifier(logger)
	}

	// Alert event fan-out is optional: no broker means email-only alerts
	var alertPublisher processor.AlertPublisher
	if cfg.KafkaBroker != "" {
		publisher, err := alerts.NewPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Fatal("Failed to create alert publisher", zap.Error(err))
		}
		defer publisher.Close()
		alertPublisher = publisher
	}

	monitorProcessor := processor.NewProcessor(
		processor.Config{
			MaxConcurrentMonitors: cfg.MaxConcurrentMonitors,
			FetchTimeout:          time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
			MaxNotifyAttempts:     cfg.MaxNotifyAttempts,
			RateLimitCooldown:     2 * time.Duration(cfg.PollIntervalSeconds) * time.Second,
		},
		registry,
		indexClient,
		monitorRepository,
		transactionRepository,
		dispatchRepository,
		notify,
		alertPublisher,
		logger,
	)

	// Start scheduler in background
	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()

	monitorScheduler := scheduler.NewScheduler(time.Duration(cfg.PollIntervalSeconds)*time.Second, monitorProcessor, logger)
	schedulerDone := make(chan struct{})
	go func() {
		monitorScheduler.Run(schedulerCtx)
		close(schedulerDone)
	}()

	// Create and start API server
	apiServer := api.NewServer(cfg.APIPort, monitorRepository, transactionRepository, dispatchRepository, registry, monitorProcessor, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	cancelScheduler()

	// Create a context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Join the in-flight monitor pass so claimed dispatches reach a recorded
	// outcome instead of being abandoned mid-send
	select {
	case <-schedulerDone:
	case <-ctx.Done():
		logger.Warn("Timed out waiting for in-flight monitor pass")
	}

	// Shutdown API server gracefully
	if err := apiServer.Stop(ctx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	logger.Info("Application shutdown complete")
}
