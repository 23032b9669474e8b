package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/hibiken/asynq"

	"github.com/umkm-report/umkm-report/internal/app"
	jobmetrics "github.com/umkm-report/umkm-report/internal/jobs"
	"github.com/umkm-report/umkm-report/internal/platform/cache"
	"github.com/umkm-report/umkm-report/internal/platform/db"
	"github.com/umkm-report/umkm-report/jobs"
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

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	var querier pgxscan.Querier
	if cfg.RecordSource == app.RecordSourcePostgres {
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{AppName: "umkm-worker", ReadOnly: true})
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		querier = pool
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, "umkm-worker")
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	source, err := app.NewRecordSource(cfg, querier)
	if err != nil {
		logger.Error("build record source", slog.Any("error", err))
		os.Exit(1)
	}
	pipeline, err := app.NewPipeline(cfg, source, redisClient, nil, logger)
	if err != nil {
		logger.Error("build analytics pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := jobmetrics.NewMetrics(nil)
	var businesses jobs.BusinessLister
	if pg := pipeline.Businesses(); pg != nil {
		businesses = pg
	}
	warmupJob := jobs.NewAnalyticsWarmupJob(pipeline.Service, businesses, logger, metrics)
	invalidateJob := &jobs.InvalidateJob{Cache: pipeline.Cache, Logger: logger, Metrics: metrics}

	warmupTask, err := jobs.NewAnalyticsWarmupTask(0)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskCacheInvalidate, Handler: invalidateJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
