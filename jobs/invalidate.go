package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/umkm-report/umkm-report/internal/jobs"
)

// Bumper invalidates cached record sets. *analytics.Cache satisfies it.
type Bumper interface {
	Bump(ctx context.Context) error
}

// Warmer queues a warmup. *Client satisfies it.
type Warmer interface {
	EnqueueWarmup(ctx context.Context, year int) (*asynq.TaskInfo, error)
}

// InvalidateJob handles TaskCacheInvalidate by bumping the cache version.
type InvalidateJob struct {
	Cache   Bumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes cache invalidation tasks.
func (j *InvalidateJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("cache invalidate: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskCacheInvalidate)
	err := j.Cache.Bump(ctx)
	if err != nil && j.Logger != nil {
		j.Logger.Error("bump cache version", slog.String("job", TaskCacheInvalidate), slog.Any("error", err))
	}
	return tracker.End(err)
}

// CacheRefresher bumps the cache version and queues a warmup for the current
// year. A failed enqueue is logged and does not fail the bump.
type CacheRefresher struct {
	Cache  Bumper
	Warmer Warmer
	Logger *slog.Logger
}

// Bump implements the HTTP handler's cache invalidator.
func (r *CacheRefresher) Bump(ctx context.Context) error {
	if r == nil || r.Cache == nil {
		return nil
	}
	if err := r.Cache.Bump(ctx); err != nil {
		return err
	}
	if r.Warmer == nil {
		return nil
	}
	if _, err := r.Warmer.EnqueueWarmup(ctx, 0); err != nil && r.Logger != nil {
		r.Logger.Warn("enqueue warmup after invalidation", slog.Any("error", err))
	}
	return nil
}
