package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/umkm-report/umkm-report/internal/analytics"
	jobmetrics "github.com/umkm-report/umkm-report/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const scopeTimeout = 20 * time.Second

// BusinessLister discovers the business scopes worth warming.
type BusinessLister interface {
	Businesses(ctx context.Context, since time.Time) ([]string, error)
}

// AnalyticsWarmupJob pre-populates the record cache for the unscoped
// dashboard and every business with sales in the warmed year.
type AnalyticsWarmupJob struct {
	Analytics  *analytics.Service
	Businesses BusinessLister
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler. businesses
// may be nil, in which case only the unscoped dashboard is warmed.
func NewAnalyticsWarmupJob(svc *analytics.Service, businesses BusinessLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Analytics:  svc,
		Businesses: businesses,
		Logger:     logger,
		Metrics:    metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	now := j.now()
	if payload.Year == 0 {
		payload.Year = now.Year()
	}

	tracker := j.metrics().Track(TaskAnalyticsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("year", payload.Year))
	logger.Info("starting analytics warmup")

	scopes, err := j.scopes(ctx, payload.Year)
	if err != nil {
		resultErr = err
		logger.Error("load warmup scopes", slog.Any("error", err))
		return resultErr
	}

	for _, scope := range scopes {
		warmed, err := j.warmScope(ctx, scope, payload.Year)
		j.metrics().AddWarmed(scope, warmed)
		if err != nil {
			resultErr = err
			logger.Error("warm scope", slog.String("business_id", scope), slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed analytics warmup", slog.Int("scopes", len(scopes)), slog.Duration("duration", time.Since(now)))
	return resultErr
}

// scopes returns the unscoped dashboard ("") followed by each business id.
func (j *AnalyticsWarmupJob) scopes(ctx context.Context, year int) ([]string, error) {
	scopes := []string{""}
	if j.Businesses == nil {
		return scopes, nil
	}
	ids, err := j.Businesses.Businesses(ctx, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id != "" {
			scopes = append(scopes, id)
		}
	}
	return scopes, nil
}

// warmScope issues the same reads a dashboard load does so that both
// granularities are cached for the year and its chart window.
func (j *AnalyticsWarmupJob) warmScope(ctx context.Context, businessID string, year int) (int, error) {
	scopeCtx, cancel := context.WithTimeout(ctx, scopeTimeout)
	defer cancel()

	filter := analytics.Filter{PeriodType: analytics.PeriodYearly, Year: year, BusinessID: businessID}
	steps := []func(context.Context) error{
		func(ctx context.Context) error {
			_, err := j.Analytics.GetSummary(ctx, filter)
			return err
		},
		func(ctx context.Context) error {
			_, err := j.Analytics.GetMonthlyBuckets(ctx, filter)
			return err
		},
		func(ctx context.Context) error {
			_, err := j.Analytics.GetDimensionBreakdown(ctx, filter, analytics.DimensionProduct)
			return err
		},
		func(ctx context.Context) error {
			_, err := j.Analytics.GetBusinessMonthlyComparison(ctx, filter)
			return err
		},
	}
	for i, step := range steps {
		if err := step(scopeCtx); err != nil {
			return i, err
		}
	}
	return len(steps), nil
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsWarmup))
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalyticsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
