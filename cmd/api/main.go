package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oakandloom/workshop-backend/api/routes"
	"github.com/oakandloom/workshop-backend/internal/allocation"
	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/internal/orders"
	"github.com/oakandloom/workshop-backend/internal/prediction"
	"github.com/oakandloom/workshop-backend/internal/queue"
	"github.com/oakandloom/workshop-backend/internal/stock"
	"github.com/oakandloom/workshop-backend/internal/tasks"
	"github.com/oakandloom/workshop-backend/internal/users"
	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/metrics"
	"github.com/oakandloom/workshop-backend/pkg/migrate"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	workshopMetrics := metrics.NewWorkshopMetrics(prometheus.DefaultRegisterer)

	usersSvc, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	stockSvc, err := stock.NewService(stock.NewRepository(dbClient.DB()), dbClient, outboxSvc, workshopMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}
	allocationSvc, err := allocation.NewService(allocation.NewRepository(dbClient.DB()), dbClient, stockSvc, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create allocation service", err)
		os.Exit(1)
	}
	tasksSvc, err := tasks.NewService(tasks.NewRepository(dbClient.DB()), dbClient, outboxSvc, notificationsSvc, workshopMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tasks service", err)
		os.Exit(1)
	}
	queueSvc, err := queue.NewService(queue.NewRepository(dbClient.DB()), dbClient, outboxSvc, notificationsSvc, cfg.Queue, workshopMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create queue service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, outboxSvc, queueSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	predictionSvc, err := prediction.NewService(prediction.NewRepository(dbClient.DB()), dbClient, outboxSvc, cfg.Prediction, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create prediction service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Users:         usersSvc,
			Stock:         stockSvc,
			Tasks:         tasksSvc,
			Allocation:    allocationSvc,
			Orders:        ordersSvc,
			Queue:         queueSvc,
			Prediction:    predictionSvc,
			Notifications: notificationsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
