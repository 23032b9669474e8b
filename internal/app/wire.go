package app

import (
	"errors"
	"log/slog"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/sales"
)

// NewRecordSource builds the source selected by RECORD_SOURCE. db is only
// used by the postgres source.
func NewRecordSource(cfg *Config, db pgxscan.Querier) (sales.Source, error) {
	switch cfg.RecordSource {
	case RecordSourcePostgres:
		if db == nil {
			return nil, errors.New("app: postgres record source needs a database")
		}
		return sales.NewPostgresSource(db), nil
	case RecordSourceREST:
		return sales.NewRESTSource(cfg.RecordSourceURL, cfg.RecordSourcePageSize), nil
	default:
		return nil, errors.New("app: unknown record source " + cfg.RecordSource)
	}
}

// Pipeline is the analytics service over the cached record source.
type Pipeline struct {
	Service *analytics.Service
	Cache   *analytics.Cache
	Source  sales.Source
}

// NewPipeline fronts source with the Redis cache and registers its metrics on
// reg. client may be nil to run uncached.
func NewPipeline(cfg *Config, source sales.Source, client *redis.Client, reg prometheus.Registerer, logger *slog.Logger) (*Pipeline, error) {
	metrics, err := analytics.NewSourceMetrics(reg)
	if err != nil {
		return nil, err
	}
	var cache *analytics.Cache
	if client != nil {
		cache = analytics.NewCache(client, cfg.AnalyticsCacheTTL)
	}
	cached := analytics.NewCachedSource(source, cache, metrics, logger)
	return &Pipeline{
		Service: analytics.NewService(cached),
		Cache:   cache,
		Source:  source,
	}, nil
}

// Businesses returns the source's business lister when it has one.
func (p *Pipeline) Businesses() *sales.PostgresSource {
	if pg, ok := p.Source.(*sales.PostgresSource); ok {
		return pg
	}
	return nil
}
