package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	analytichttp "github.com/umkm-report/umkm-report/internal/analytics/http"
	"github.com/umkm-report/umkm-report/internal/observability"
	"github.com/umkm-report/umkm-report/internal/platform/httpx"
	"github.com/umkm-report/umkm-report/jobs"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AnalyticsHandler *analytichttp.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	ReadyChecks      map[string]Check
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(params.ReadyChecks))

	if params.AnalyticsHandler != nil {
		params.AnalyticsHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// readiness runs every check concurrently and reports each outcome.
func readiness(checks map[string]Check) http.HandlerFunc {
	type outcome struct {
		name string
		err  error
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		out := make(chan outcome, len(checks))
		var g errgroup.Group
		for name, check := range checks {
			g.Go(func() error {
				out <- outcome{name: name, err: check(ctx)}
				return nil
			})
		}
		_ = g.Wait()
		close(out)

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for o := range out {
			if o.err != nil {
				status = http.StatusServiceUnavailable
				results[o.name] = o.err.Error()
				continue
			}
			results[o.name] = "ok"
		}
		httpx.JSON(w, status, results)
	}
}
