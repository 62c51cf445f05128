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

	"github.com/medagenda/scheduling-api/internal/config"
	healthHandler "github.com/medagenda/scheduling-api/internal/handler/health"
	schedulingHandler "github.com/medagenda/scheduling-api/internal/handler/scheduling"
	"github.com/medagenda/scheduling-api/internal/repository/postgres"
	"github.com/medagenda/scheduling-api/internal/router"
	"github.com/medagenda/scheduling-api/internal/scheduling"
	"github.com/medagenda/scheduling-api/pkg/logger"
	"github.com/medagenda/scheduling-api/pkg/messaging/redis"
	"github.com/medagenda/scheduling-api/pkg/metrics"
	"github.com/medagenda/scheduling-api/pkg/worker"
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

	doctorRepo := postgres.NewDoctorRepository(db)
	_ = postgres.NewPatientRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	m := metrics.NewMetrics("medagenda", "scheduling")

	calendar := scheduling.NewCalendar(doctorRepo, appointmentRepo)
	finder := scheduling.NewFinder(calendar)
	ranker := scheduling.NewRanker(cfg.Scheduling.Weights, cfg.Scheduling.TopN)
	ledger := scheduling.NewLedger(appointmentRepo, doctorRepo, roomRepo, calendar, appLogger)
	schedulingSvc := scheduling.NewService(doctorRepo, finder, ranker, ledger, m, cfg.Scheduling)

	schedH := schedulingHandler.NewHandler(schedulingSvc)
	healthH := healthHandler.NewHandler(db)

	routerCfg := router.DefaultConfig()
	routerCfg.Timeout = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	r := router.NewRouter(schedH, healthH, routerCfg)
	r.Setup()

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

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Worker.BatchSize,
		PollInterval:  time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second,
		RetryAttempts: cfg.Worker.RetryAttempts,
		RetryDelay:    time.Duration(cfg.Worker.RetryDelaySeconds) * time.Second,
	}, appLogger, m)

	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()
	go outboxProcessor.Start(processorCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
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

	stopProcessor()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
