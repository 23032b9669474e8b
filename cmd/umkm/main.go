package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/umkm-report/umkm-report/cmd/umkm/cli"
	"github.com/umkm-report/umkm-report/internal/analytics/dashboard"
	"github.com/umkm-report/umkm-report/internal/analytics/export"
	analytichttp "github.com/umkm-report/umkm-report/internal/analytics/http"
	"github.com/umkm-report/umkm-report/internal/analytics/ui"
	"github.com/umkm-report/umkm-report/internal/app"
	"github.com/umkm-report/umkm-report/internal/observability"
	"github.com/umkm-report/umkm-report/internal/platform/cache"
	"github.com/umkm-report/umkm-report/internal/platform/db"
	"github.com/umkm-report/umkm-report/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := cli.Run(ctx, cfg.RedisAddr, os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := app.NewLogger(cfg)

	var (
		pool     *pgxpool.Pool
		querier  pgxscan.Querier
		checks   = map[string]app.Check{}
		redisCli *redis.Client
	)
	if cfg.RecordSource == app.RecordSourcePostgres {
		pool, err = db.New(ctx, cfg.PGDSN, db.Options{AppName: "umkm-api", ReadOnly: true})
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		querier = pool
		checks["postgres"] = pool.Ping
	}

	redisCli, err = cache.New(ctx, cfg.RedisAddr, "umkm-api")
	if err != nil {
		logger.Warn("redis unavailable, serving uncached", slog.Any("error", err))
		redisCli = nil
	} else {
		defer func() {
			if err := redisCli.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		checks["redis"] = cache.Ping(redisCli)
	}

	metrics := observability.NewMetrics()

	source, err := app.NewRecordSource(cfg, querier)
	if err != nil {
		logger.Error("build record source", slog.Any("error", err))
		os.Exit(1)
	}
	pipeline, err := app.NewPipeline(cfg, source, redisCli, metrics.Registerer(), logger)
	if err != nil {
		logger.Error("build analytics pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	var invalidator analytichttp.CacheInvalidator
	var jobHandler *jobs.Handler
	if pipeline.Cache != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer func() { _ = jobClient.Close() }()
		inspector := asynq.NewInspector(redisOpts)
		defer func() { _ = inspector.Close() }()

		invalidator = &jobs.CacheRefresher{Cache: pipeline.Cache, Warmer: jobClient, Logger: logger}
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	sessions := dashboard.NewRegistry(pipeline.Service, logger, cfg.SessionIdleTTL)
	go sessions.Run(ctx, time.Minute)

	pdf := &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: 30 * time.Second}}
	analyticsHandler := analytichttp.NewHandler(logger, pipeline.Service, sessions, invalidator, pdf, ui.DefaultCharts())

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
		ReadyChecks:      checks,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("record_source", cfg.RecordSource))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
