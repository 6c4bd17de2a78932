package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/strikeprep/staffing-api/internal/config"
	assignmentHandler "github.com/strikeprep/staffing-api/internal/handler/assignment"
	auditHandler "github.com/strikeprep/staffing-api/internal/handler/audit"
	healthHandler "github.com/strikeprep/staffing-api/internal/handler/health"
	positionHandler "github.com/strikeprep/staffing-api/internal/handler/position"
	providerHandler "github.com/strikeprep/staffing-api/internal/handler/provider"
	"github.com/strikeprep/staffing-api/internal/middleware"
	"github.com/strikeprep/staffing-api/internal/repository/postgres"
	"github.com/strikeprep/staffing-api/internal/router"
	assignmentService "github.com/strikeprep/staffing-api/internal/service/assignment"
	auditService "github.com/strikeprep/staffing-api/internal/service/audit"
	matchingService "github.com/strikeprep/staffing-api/internal/service/matching"
	positionService "github.com/strikeprep/staffing-api/internal/service/position"
	providerService "github.com/strikeprep/staffing-api/internal/service/provider"
	"github.com/strikeprep/staffing-api/pkg/auth"
	"github.com/strikeprep/staffing-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("staffing", "api")

	// Repositories
	providerRepo := postgres.NewProviderRepository(db)
	positionRepo := postgres.NewPositionRepository(db)
	skillRepo := postgres.NewSkillRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	auditRepo := postgres.NewAuditRepository(postgres.NewBaseRepository(db))

	// Services
	assignmentSvc := assignmentService.NewService(assignmentRepo, m)
	matchingSvc := matchingService.NewService(positionRepo, providerRepo, skillRepo, assignmentRepo, m)
	positionSvc := positionService.NewService(positionRepo)
	auditSvc := auditService.NewService(auditRepo)
	providerSvc := providerService.NewService(providerRepo, assignmentSvc, auditSvc)

	// Middleware
	tokens := auth.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// Handlers
	healthH := healthHandler.NewHandler(db)
	positionH := positionHandler.NewHandler(positionSvc, matchingSvc)
	assignmentH := assignmentHandler.NewHandler(assignmentSvc)
	providerH := providerHandler.NewHandler(providerSvc)
	auditH := auditHandler.NewHandler(auditSvc)

	r := router.NewRouter(
		authMiddleware,
		healthH,
		positionH,
		assignmentH,
		providerH,
		auditH,
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.RateLimit.RPS),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "staffing_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
