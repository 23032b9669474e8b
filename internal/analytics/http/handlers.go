package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/analytics/chart"
	"github.com/umkm-report/umkm-report/internal/analytics/dashboard"
	"github.com/umkm-report/umkm-report/internal/analytics/export"
	"github.com/umkm-report/umkm-report/internal/analytics/svg"
	"github.com/umkm-report/umkm-report/internal/analytics/ui"
	"github.com/umkm-report/umkm-report/internal/platform/httpx"
)

const requestTimeout = 10 * time.Second

// CacheInvalidator bumps the record cache version.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Handler serves the sales analytics API.
type Handler struct {
	logger   *slog.Logger
	service  *analytics.Service
	sessions *dashboard.Registry
	cache    CacheInvalidator
	pdf      PDFService
	charts   ui.Charts
	csvPool  sync.Pool
	now      func() time.Time
}

// NewHandler constructs the analytics HTTP handler. cache and pdf may be nil,
// in which case the matching endpoints answer 503.
func NewHandler(logger *slog.Logger, service *analytics.Service, sessions *dashboard.Registry, cache CacheInvalidator, pdf PDFService, charts ui.Charts) *Handler {
	h := &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		cache:    cache,
		pdf:      pdf,
		charts:   charts,
		now:      service.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the clock used for filter defaults.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.GetSummary(ctx, filter)
	if err != nil {
		h.respondError(w, "load summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"filter":      filter,
		"periodLabel": filter.Label(),
		"summary":     summary,
		"cards":       ui.SummaryCards(summary),
	})
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buckets, err := h.service.GetMonthlyBuckets(ctx, filter)
	if err != nil {
		h.respondError(w, "load monthly", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"buckets": buckets,
		"series":  analytics.CombinedSeries(buckets),
	})
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	dim, err := analytics.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		h.respondError(w, "parse dimension", err)
		return
	}
	top, err := topParam(r, 0)
	if err != nil {
		h.respondError(w, "parse top", err)
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buckets, err := h.service.GetDimensionBreakdown(ctx, filter, dim)
	if err != nil {
		h.respondError(w, "load breakdown", err)
		return
	}
	buckets = analytics.TopN(buckets, top)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"dimension": dim,
		"buckets":   buckets,
		"pie":       analytics.ToPieSeries(buckets),
	})
}

func (h *Handler) handleComparison(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buckets, err := h.service.GetBusinessMonthlyComparison(ctx, filter)
	if err != nil {
		h.respondError(w, "load comparison", err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.comparisonPayload(filter, buckets))
}

func (h *Handler) comparisonPayload(filter analytics.Filter, buckets []analytics.Bucket) ui.Comparison {
	return ui.Comparison{
		Buckets:  buckets,
		Series:   analytics.ToSeriesOnAxis(buckets, nil, filter.Window(h.service.Now()).Periods()),
		Tooltips: chart.BuildTooltips(buckets),
	}
}

func (h *Handler) handleBucketLocations(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	bucket, err := h.service.GetBucketBreakdown(ctx, filter, bucketIDParam(r))
	if err != nil {
		h.respondError(w, "load bucket breakdown", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadDashboardData(ctx, filter)
	if err != nil {
		h.respondError(w, "load overview", err)
		return
	}
	comparison := h.comparisonPayload(filter, data.Comparison)
	httpx.JSON(w, http.StatusOK, ui.Overview{
		Filter:           filter,
		PeriodLabel:      data.PeriodLabel,
		Summary:          data.Summary,
		Cards:            ui.SummaryCards(data.Summary),
		Monthly:          data.Monthly,
		MonthlySeries:    analytics.CombinedSeries(data.Monthly),
		TopProducts:      data.TopProducts,
		TopLocations:     data.TopLocations,
		Comparison:       data.Comparison,
		ComparisonSeries: comparison.Series,
		Tooltips:         comparison.Tooltips,
	})
}

func (h *Handler) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := dashboard.ModeCombined
	if raw := q.Get("mode"); raw != "" {
		parsed, err := dashboard.ParseViewMode(raw)
		if err != nil {
			h.respondError(w, "parse mode", err)
			return
		}
		mode = parsed
	}
	chartType := dashboard.ChartBar
	if raw := q.Get("type"); raw != "" {
		parsed, err := dashboard.ParseChartType(raw)
		if err != nil {
			h.respondError(w, "parse chart type", err)
			return
		}
		chartType = parsed
	}
	if !mode.Allows(chartType) {
		h.respondError(w, "chart type", fmt.Errorf("%w: %s in %s", dashboard.ErrChartTypeNotAllowed, chartType, mode))
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := dashboard.LoadView(ctx, h.service, filter, mode)
	if err != nil {
		h.respondError(w, "load chart", err)
		return
	}
	h.writeChart(w, view, chartType)
}

func (h *Handler) writeChart(w http.ResponseWriter, view dashboard.View, chartType dashboard.ChartType) {
	out, err := h.charts.Render(view, chartType)
	if err != nil {
		h.respondError(w, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write([]byte(out)); err != nil {
		h.logError("stream svg", err)
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	payload, err := h.loadDashboardData(ctx, filter)
	if err != nil {
		h.respondError(w, "load export", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := export.WriteDashboardCSV(buf, payload); err != nil {
		h.respondError(w, "write csv", err)
		return
	}
	h.writeAttachment(w, "text/csv; charset=utf-8", exportFilename(filter, "csv"), buf.Bytes())
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	payload, err := h.loadDashboardData(ctx, filter)
	if err != nil {
		h.respondError(w, "load export", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, payload); err != nil {
		h.respondError(w, "write xlsx", err)
		return
	}
	h.writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", exportFilename(filter, "xlsx"), buf.Bytes())
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.respondError(w, "pdf exporter", fmt.Errorf("%w: pdf exporter not configured", httpx.ErrUnavailable))
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	payload, err := h.loadDashboardData(ctx, filter)
	if err != nil {
		h.respondError(w, "load export", err)
		return
	}
	if h.charts.Bar != nil {
		chartSVG, err := h.charts.Bar.Render(svg.DefaultWidth, svg.DefaultHeight, analytics.CombinedSeries(payload.Monthly), svg.Opts{
			Title:       "Penjualan " + payload.PeriodLabel,
			Description: "Total penjualan per bulan",
		})
		if err != nil {
			h.respondError(w, "render chart", err)
			return
		}
		payload.Chart = chartSVG
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		h.respondError(w, "render pdf", fmt.Errorf("%w: %w", httpx.ErrUpstream, err))
		return
	}
	h.writeAttachment(w, "application/pdf", exportFilename(filter, "pdf"), pdfBytes)
}

func (h *Handler) writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(body); err != nil {
		h.logError("stream "+filename, err)
	}
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.respondError(w, "invalidate cache", fmt.Errorf("%w: record cache not configured", httpx.ErrUnavailable))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.cache.Bump(ctx); err != nil {
		h.respondError(w, "invalidate cache", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

// loadDashboardData fans out the dashboard datasets for one filter.
func (h *Handler) loadDashboardData(ctx context.Context, filter analytics.Filter) (export.DashboardPayload, error) {
	data := export.DashboardPayload{PeriodLabel: filter.Label(), GeneratedAt: h.now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := h.service.GetSummary(ctx, filter)
		if err != nil {
			return err
		}
		data.Summary = summary
		return nil
	})
	g.Go(func() error {
		monthly, err := h.service.GetMonthlyBuckets(ctx, filter)
		if err != nil {
			return err
		}
		data.Monthly = monthly
		return nil
	})
	g.Go(func() error {
		products, err := h.service.GetDimensionBreakdown(ctx, filter, analytics.DimensionProduct)
		if err != nil {
			return err
		}
		data.TopProducts = analytics.TopN(products, dashboard.TopListSize)
		return nil
	})
	g.Go(func() error {
		locations, err := h.service.GetDimensionBreakdown(ctx, filter, analytics.DimensionLocation)
		if err != nil {
			return err
		}
		data.TopLocations = analytics.TopN(locations, dashboard.TopListSize)
		return nil
	})
	g.Go(func() error {
		comparison, err := h.service.GetBusinessMonthlyComparison(ctx, filter)
		if err != nil {
			return err
		}
		data.Comparison = comparison
		return nil
	})

	if err := g.Wait(); err != nil {
		return export.DashboardPayload{}, err
	}
	return data, nil
}

// respondError maps pipeline and request errors onto problem responses.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var vErr validationError
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, analytics.ErrInvalidFilter),
		errors.Is(err, dashboard.ErrInvalidMode),
		errors.Is(err, dashboard.ErrInvalidChartType),
		errors.Is(err, dashboard.ErrChartTypeNotAllowed):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
	case errors.Is(err, analytics.ErrBucketNotFound), errors.Is(err, dashboard.ErrSessionNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err.Error()))
	case errors.Is(err, dashboard.ErrSuperseded):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrConflict, err.Error()))
	case errors.Is(err, analytics.ErrFetchFailed):
		h.logError(op, err)
		httpx.Problem(w, http.StatusBadGateway, "Gagal memuat data penjualan", "Sumber data tidak dapat dihubungi, silakan coba lagi.")
	default:
		h.logError(op, err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) logError(op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
}

// bucketIDParam returns the decoded bucket id path parameter.
func bucketIDParam(r *http.Request) string {
	raw := chi.URLParam(r, "bucketID")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
