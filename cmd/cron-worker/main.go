package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oakandloom/workshop-backend/internal/cron"
	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/internal/prediction"
	"github.com/oakandloom/workshop-backend/internal/queue"
	"github.com/oakandloom/workshop-backend/internal/tasks"
	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/metrics"
	"github.com/oakandloom/workshop-backend/pkg/migrate"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outboxRepo, logg)
	workshopMetrics := metrics.NewWorkshopMetrics(prometheus.DefaultRegisterer)

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	predictionSvc, err := prediction.NewService(prediction.NewRepository(dbClient.DB()), dbClient, outboxSvc, cfg.Prediction, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create prediction service", err)
		os.Exit(1)
	}
	queueSvc, err := queue.NewService(queue.NewRepository(dbClient.DB()), dbClient, outboxSvc, notificationsSvc, cfg.Queue, workshopMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create queue service", err)
		os.Exit(1)
	}
	tasksSvc, err := tasks.NewService(tasks.NewRepository(dbClient.DB()), dbClient, outboxSvc, notificationsSvc, workshopMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tasks service", err)
		os.Exit(1)
	}

	jobs := make([]cron.Job, 0, 5)
	addJob := func(job cron.Job, err error) {
		if err != nil {
			logg.Error(context.Background(), "failed to create cron job", err)
			os.Exit(1)
		}
		jobs = append(jobs, job)
	}

	addJob(cron.NewPredictionJob(cron.PredictionJobParams{
		Logger:    logg,
		Predictor: predictionSvc,
		Interval:  cfg.Cron.PredictionInterval,
	}))
	addJob(cron.NewTaskOverdueJob(cron.TaskOverdueJobParams{
		Logger:   logg,
		Tasks:    tasksSvc,
		Notifier: notificationsSvc,
		Metrics:  workshopMetrics,
		Interval: cfg.Cron.OverdueInterval,
	}))
	addJob(cron.NewQueueExpiryJob(cron.QueueExpiryJobParams{
		Logger:   logg,
		Queue:    queueSvc,
		Notifier: notificationsSvc,
		Interval: cfg.Cron.QueueExpiryInterval,
	}))
	addJob(cron.NewProductivityJob(cron.ProductivityJobParams{
		Logger:     logg,
		Repository: cron.NewProductivityRepository(dbClient.DB()),
		Interval:   cfg.Cron.ProductivityInterval,
	}))
	addJob(cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
	}))

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.TickInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
