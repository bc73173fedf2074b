// The worker consumes committed notification events from Redis and delivers
// them to patients (push placeholder, plus email when one is on file).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/meditracker/patientflow-api/internal/config"
	"github.com/meditracker/patientflow-api/internal/service/notification"
	"github.com/meditracker/patientflow-api/pkg/logger"
	"github.com/meditracker/patientflow-api/pkg/messaging/redis"
	"github.com/meditracker/patientflow-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("patientflow_worker")

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

	var mailer notification.MailSender
	if cfg.SMTP.Host != "" {
		mailer = gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	}

	dispatcher := notification.NewDispatcher(mailer, cfg.SMTP.From, appLogger, appMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatcher.Run(ctx, broker); err != nil {
		log.Fatal().Err(err).Msg("dispatcher error")
	}

	appLogger.Info("worker stopped")
}
