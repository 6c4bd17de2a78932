package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/strikeprep/staffing-api/internal/config"
	"github.com/strikeprep/staffing-api/internal/repository/postgres"
	internalworker "github.com/strikeprep/staffing-api/internal/worker"
	"github.com/strikeprep/staffing-api/pkg/logger"
	"github.com/strikeprep/staffing-api/pkg/messaging/redis"
	"github.com/strikeprep/staffing-api/pkg/metrics"
	"github.com/strikeprep/staffing-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}, lg.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	auditRepo := postgres.NewAuditRepository(base)

	m := metrics.NewMetrics("staffing", "worker")

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.Outbox.PollInterval,
			Topic:        cfg.Outbox.Topic,
		},
		lg,
		m,
	)

	retention := internalworker.NewRetentionWorker(
		auditRepo,
		outboxRepo,
		lg,
		cfg.Audit.RetentionDays,
		cfg.Audit.CleanupInterval,
	)

	setupHealthCheck(lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		lg.Info("Shutting down...")
		cancel()
	}()

	go retention.Start(ctx)
	processor.Start(ctx)
}

func setupHealthCheck(lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			lg.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}
