package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/umkm-report/umkm-report/internal/platform/httpx"
)

// MountRoutes registers the sales analytics endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
		}),
	)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/summary", h.handleSummary)
		r.Get("/monthly", h.handleMonthly)
		r.Get("/breakdown/{dimension}", h.handleBreakdown)
		r.Get("/comparison", h.handleComparison)
		r.Get("/comparison/{bucketID}/locations", h.handleBucketLocations)
		r.Get("/overview", h.handleOverview)
		r.Get("/chart.svg", h.handleChartSVG)

		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Get("/export.csv", h.handleCSV)
			gr.Get("/export.xlsx", h.handleXLSX)
			gr.Get("/export.pdf", h.handlePDF)
			gr.Post("/cache/invalidate", h.handleInvalidate)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.handleSessionState)
				r.Patch("/filters", h.handleSetFilters)
				r.Delete("/filters", h.handleClearFilters)
				r.Post("/apply", h.handleApply)
				r.Post("/retry", h.handleRetry)
				r.Put("/mode", h.handleSetMode)
				r.Put("/chart", h.handleSetChart)
				r.Get("/chart.svg", h.handleSessionChart)
				r.Get("/breakdown/{bucketID}", h.handleSessionBreakdown)
			})
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
