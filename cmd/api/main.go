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

	"github.com/meditracker/patientflow-api/internal/config"
	billingHandler "github.com/meditracker/patientflow-api/internal/handler/billing"
	doctorHandler "github.com/meditracker/patientflow-api/internal/handler/doctor"
	healthHandler "github.com/meditracker/patientflow-api/internal/handler/health"
	labHandler "github.com/meditracker/patientflow-api/internal/handler/lab"
	patientHandler "github.com/meditracker/patientflow-api/internal/handler/patient"
	registrationHandler "github.com/meditracker/patientflow-api/internal/handler/registration"
	visitHandler "github.com/meditracker/patientflow-api/internal/handler/visit"
	walletHandler "github.com/meditracker/patientflow-api/internal/handler/wallet"
	"github.com/meditracker/patientflow-api/internal/repository/postgres"
	"github.com/meditracker/patientflow-api/internal/router"
	billingService "github.com/meditracker/patientflow-api/internal/service/billing"
	doctorService "github.com/meditracker/patientflow-api/internal/service/doctor"
	labService "github.com/meditracker/patientflow-api/internal/service/lab"
	"github.com/meditracker/patientflow-api/internal/service/notification"
	registrationService "github.com/meditracker/patientflow-api/internal/service/registration"
	visitService "github.com/meditracker/patientflow-api/internal/service/visit"
	walletService "github.com/meditracker/patientflow-api/internal/service/wallet"
	"github.com/meditracker/patientflow-api/pkg/logger"
	"github.com/meditracker/patientflow-api/pkg/messaging/redis"
	"github.com/meditracker/patientflow-api/pkg/metrics"
	"github.com/meditracker/patientflow-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("patientflow")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	seedBalance, err := cfg.Wallet.SeedBalanceDecimal()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid wallet seed balance")
	}
	defaultFee, err := cfg.Billing.DefaultFeeDecimal()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid default consultation fee")
	}

	// Repositories
	txManager := postgres.NewTxManager(db)
	patientRepo := postgres.NewPatientRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	visitRepo := postgres.NewVisitRepository(db)
	labTestRepo := postgres.NewLabTestRepository(db)
	billingRepo := postgres.NewBillingRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	events := notification.NewEvents(outboxRepo)
	registrationSvc := registrationService.NewService(txManager, patientRepo, walletRepo, events, seedBalance)
	doctorSvc := doctorService.NewService(doctorRepo, defaultFee, appLogger)
	visitSvc := visitService.NewService(
		txManager, patientRepo, doctorRepo, visitRepo, labTestRepo, billingRepo,
		events, visitService.FirstByDepartment(doctorRepo), defaultFee, appMetrics,
	)
	labSvc := labService.NewService(txManager, visitRepo, patientRepo, labTestRepo, billingRepo, events)
	billingSvc := billingService.NewService(txManager, patientRepo, walletRepo, visitRepo, billingRepo, events, appMetrics)
	walletSvc := walletService.NewService(txManager, patientRepo, walletRepo, events)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := doctorSvc.SeedDefault(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed doctors")
	}

	// Outbox processor publishing committed events to Redis
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval(),
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay(),
		Retention:     cfg.Outbox.Retention(),
	}, appLogger, appMetrics)
	go processor.Start(ctx)

	// HTTP server
	routerCfg := router.DefaultConfig()
	if cfg.Server.TimeoutSeconds > 0 {
		routerCfg.Timeout = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	}
	if cfg.Server.RateLimitRPS > 0 {
		routerCfg.RateLimitRPS = cfg.Server.RateLimitRPS
	}
	if cfg.Server.RateLimitBurst > 0 {
		routerCfg.RateLimitBurst = cfg.Server.RateLimitBurst
	}

	r := router.New(routerCfg,
		healthHandler.NewHandler(db),
		registrationHandler.NewHandler(registrationSvc),
		patientHandler.NewHandler(patientRepo, visitSvc),
		doctorHandler.NewHandler(doctorSvc),
		visitHandler.NewHandler(visitSvc),
		labHandler.NewHandler(labSvc),
		billingHandler.NewHandler(billingSvc),
		walletHandler.NewHandler(walletSvc),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "forced shutdown")
	}
}
