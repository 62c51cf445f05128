package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/medagenda/scheduling-api/internal/config"
	"github.com/medagenda/scheduling-api/internal/notification"
	"github.com/medagenda/scheduling-api/internal/repository/postgres"
	"github.com/medagenda/scheduling-api/pkg/event"
	"github.com/medagenda/scheduling-api/pkg/logger"
	"github.com/medagenda/scheduling-api/pkg/messaging/redis"
)

var (
	notificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "The total number of notification emails sent",
	})
	notificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "The total number of notification emails that failed",
	})
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	notifier := notification.NewNotifier(
		postgres.NewPatientRepository(db),
		postgres.NewDoctorRepository(db),
		notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		},
		appLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := broker.Subscribe(ctx, event.Channel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to appointment events")
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9091", nil); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	go func() {
		log.Info().Str("channel", event.Channel).Msg("notification worker started")
		for msg := range messages {
			if err := notifier.HandleMessage(ctx, msg); err != nil {
				notificationsFailed.Inc()
				log.Error().Err(err).Msg("failed to handle appointment event")
				continue
			}
			notificationsSent.Inc()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down notification worker...")
	cancel()
}
