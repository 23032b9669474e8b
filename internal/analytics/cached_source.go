package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/umkm-report/umkm-report/internal/sales"
)

// SourceMetrics observes record source cache behaviour.
type SourceMetrics struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSourceMetrics registers the collectors. Collectors already registered on
// reg are reused.
func NewSourceMetrics(reg prometheus.Registerer) (*SourceMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &SourceMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umkm_record_cache_hits_total",
			Help: "Record set lookups served from Redis.",
		}, []string{"granularity"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umkm_record_cache_miss_total",
			Help: "Record set lookups that reached the record source.",
		}, []string{"granularity"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "umkm_record_source_fetch_duration_seconds",
			Help:    "Duration of record source fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"granularity", "status"}),
	}
	if err := reg.Register(m.hits); err != nil {
		c, err := existingCounter(err)
		if err != nil {
			return nil, err
		}
		m.hits = c
	}
	if err := reg.Register(m.misses); err != nil {
		c, err := existingCounter(err)
		if err != nil {
			return nil, err
		}
		m.misses = c
	}
	if err := reg.Register(m.duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		h, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("analytics metrics: unexpected collector type %T", already.ExistingCollector)
		}
		m.duration = h
	}
	return m, nil
}

func existingCounter(err error) (*prometheus.CounterVec, error) {
	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		return nil, err
	}
	c, ok := already.ExistingCollector.(*prometheus.CounterVec)
	if !ok {
		return nil, fmt.Errorf("analytics metrics: unexpected collector type %T", already.ExistingCollector)
	}
	return c, nil
}

func (m *SourceMetrics) lookup(g sales.Granularity, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.hits.WithLabelValues(string(g)).Inc()
		return
	}
	m.misses.WithLabelValues(string(g)).Inc()
}

func (m *SourceMetrics) fetched(g sales.Granularity, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.duration.WithLabelValues(string(g), status).Observe(took.Seconds())
}

// CachedSource fronts a Source with the Redis cache. Concurrent lookups for
// the same key share one load.
type CachedSource struct {
	source  sales.Source
	cache   *Cache
	metrics *SourceMetrics
	logger  *slog.Logger
	group   singleflight.Group
}

// NewCachedSource wraps source. cache, metrics and logger may be nil.
func NewCachedSource(source sales.Source, cache *Cache, metrics *SourceMetrics, logger *slog.Logger) *CachedSource {
	return &CachedSource{source: source, cache: cache, metrics: metrics, logger: logger}
}

// Cache exposes the underlying cache for invalidation.
func (c *CachedSource) Cache() *Cache {
	return c.cache
}

// Fetch implements sales.Source.
func (c *CachedSource) Fetch(ctx context.Context, q sales.Query) ([]sales.TransactionRecord, error) {
	key, err := c.cache.BuildKey(ctx, keyRecords(q))
	if err != nil {
		c.warn("build cache key", err)
		return c.load(ctx, q)
	}
	ch := c.group.DoChan(key, func() (interface{}, error) {
		recs, hit, err := c.cache.Records(ctx, key, func(ctx context.Context) ([]sales.TransactionRecord, error) {
			return c.load(ctx, q)
		})
		if errors.Is(err, ErrCacheUnavailable) {
			c.warn("read cache", err)
			return c.load(ctx, q)
		}
		if errors.Is(err, ErrCacheWrite) {
			c.warn("write cache", err)
			err = nil
		}
		if err != nil {
			return nil, err
		}
		c.metrics.lookup(q.Granularity, hit)
		return recs, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]sales.TransactionRecord), nil
	}
}

func (c *CachedSource) load(ctx context.Context, q sales.Query) ([]sales.TransactionRecord, error) {
	start := time.Now()
	recs, err := c.source.Fetch(ctx, q)
	c.metrics.fetched(q.Granularity, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []sales.TransactionRecord{}
	}
	return recs, nil
}

func (c *CachedSource) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.Any("error", err))
	}
}
