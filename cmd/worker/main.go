package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/hibiken/asynq"

	"github.com/gestao-municipal/gestao/internal/app"
	jobmetrics "github.com/gestao-municipal/gestao/internal/jobs"
	"github.com/gestao-municipal/gestao/internal/notifications"
	"github.com/gestao-municipal/gestao/internal/platform/cache"
	"github.com/gestao-municipal/gestao/internal/platform/db"
	"github.com/gestao-municipal/gestao/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	services := app.NewServices(cfg, pool, redisClient, logger)
	metrics := jobmetrics.NewMetrics(nil)

	scanner := notifications.NewScanner(
		services.Contracts,
		services.SettingsDB,
		services.Log,
		client.Mailer(),
		cfg.Clock(),
		logger,
		cfg.NotifyRetention,
	)
	scanJob := jobs.NewExpiryScanJob(scanner, logger, metrics)
	mailHandler := jobs.MailHandler{Logger: logger, Metrics: metrics}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    cfg.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskExpiryScan, Handler: scanJob.Handle},
			{Type: jobs.TaskTypeSendEmail, Handler: mailHandler.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.NotifyCron, Task: jobs.NewExpiryScanTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("cron", cfg.NotifyCron), slog.String("timezone", cfg.Timezone))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
