package analytichttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/analytics/dashboard"
	"github.com/umkm-report/umkm-report/internal/platform/httpx"
)

type modeRequest struct {
	Mode string `json:"mode"`
}

type chartRequest struct {
	Type string `json:"type"`
}

type sessionResponse struct {
	ID    string          `json:"id"`
	State dashboard.State `json:"state"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	d, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, "load session", err)
		return nil, false
	}
	return d, true
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	d := h.sessions.Create()
	httpx.JSON(w, http.StatusCreated, sessionResponse{ID: d.ID(), State: d.State()})
}

func (h *Handler) handleSessionState(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, d.State())
}

// decodePatch reads a filter patch and validates it against the session's
// current filter without applying it.
func (h *Handler) decodePatch(r *http.Request, d *dashboard.Dashboard) (analytics.FilterPatch, error) {
	var patch analytics.FilterPatch
	if err := httpx.DecodeOptionalJSON(r, &patch); err != nil {
		return analytics.FilterPatch{}, validationError{field: "body"}
	}
	if err := patch.Apply(d.Filter()).Validate(); err != nil {
		return analytics.FilterPatch{}, err
	}
	return patch, nil
}

func (h *Handler) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	patch, err := h.decodePatch(r, d)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d.SetFilters(patch))
}

func (h *Handler) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, d.ClearFilters())
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	patch, err := h.decodePatch(r, d)
	if err != nil {
		h.respondError(w, "parse filters", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	st, err := d.ApplyFiltersAndFetch(ctx, patch)
	h.respondFetch(w, st, err)
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	st, err := d.Retry(ctx)
	h.respondFetch(w, st, err)
}

func (h *Handler) handleSetMode(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	var req modeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, "parse mode", validationError{field: "mode"})
		return
	}
	mode, err := dashboard.ParseViewMode(req.Mode)
	if err != nil {
		h.respondError(w, "parse mode", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	st, err := d.SetMode(ctx, mode)
	h.respondFetch(w, st, err)
}

func (h *Handler) handleSetChart(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	var req chartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, "parse chart type", validationError{field: "type"})
		return
	}
	chartType, err := dashboard.ParseChartType(req.Type)
	if err != nil {
		h.respondError(w, "parse chart type", err)
		return
	}
	st, err := d.SetChartType(chartType)
	if err != nil {
		h.respondError(w, "set chart type", err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) handleSessionBreakdown(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	bucket, err := d.Breakdown(bucketIDParam(r))
	if err != nil {
		h.respondError(w, "session breakdown", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) handleSessionChart(w http.ResponseWriter, r *http.Request) {
	d, ok := h.session(w, r)
	if !ok {
		return
	}
	st := d.State()
	if st.View == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "belum ada data, terapkan filter terlebih dahulu")
		return
	}
	chartType := st.ChartType
	// The mode may have changed while its fetch failed; draw what the view allows.
	if !st.View.Mode.Allows(chartType) {
		chartType = dashboard.ChartBar
	}
	h.writeChart(w, *st.View, chartType)
}

// respondFetch writes the state after a fetch. A failed fetch still returns
// the state so the client keeps showing the previous view next to the error.
func (h *Handler) respondFetch(w http.ResponseWriter, st dashboard.State, err error) {
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, st)
	case errors.Is(err, dashboard.ErrSuperseded):
		httpx.JSON(w, http.StatusConflict, st)
	case errors.Is(err, analytics.ErrFetchFailed):
		h.logError("dashboard fetch", err)
		httpx.JSON(w, http.StatusBadGateway, st)
	default:
		h.respondError(w, "dashboard fetch", err)
	}
}
