// Package dashboard holds per-session dashboard state: the filter store, the
// display toggles and the last successfully fetched view.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

// State is a snapshot of a dashboard.
type State struct {
	ID                string           `json:"id"`
	Filter            analytics.Filter `json:"filter"`
	Mode              ViewMode         `json:"mode"`
	ChartType         ChartType        `json:"chartType"`
	AllowedChartTypes []ChartType      `json:"allowedChartTypes"`
	Loading           bool             `json:"loading"`
	Error             string           `json:"error,omitempty"`
	View              *View            `json:"view,omitempty"`
}

// Dashboard is the context object of one dashboard session. It is safe for
// concurrent use.
//
// Every fetch takes a token from a monotonically increasing sequence. A fetch
// commits its result only while its token is still the latest one, so a slow
// response can never overwrite the result of a request started after it.
type Dashboard struct {
	id      string
	service *analytics.Service
	logger  *slog.Logger

	mu        sync.Mutex
	filters   *analytics.FilterStore
	mode      ViewMode
	chartType ChartType
	seq       uint64
	loading   bool
	lastErr   error
	view      *View
}

// New constructs a dashboard in combined mode with the default filter.
func New(id string, service *analytics.Service, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Dashboard{
		id:        id,
		service:   service,
		logger:    logger.With(slog.String("session", id)),
		filters:   analytics.NewFilterStore(service.Now),
		mode:      ModeCombined,
		chartType: ChartBar,
	}
}

// ID returns the session identifier.
func (d *Dashboard) ID() string {
	return d.id
}

// State returns a snapshot.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Dashboard) stateLocked() State {
	st := State{
		ID:                d.id,
		Filter:            d.filters.Current(),
		Mode:              d.mode,
		ChartType:         d.chartType,
		AllowedChartTypes: AllowedChartTypes(d.mode),
		Loading:           d.loading,
		View:              d.view,
	}
	if d.lastErr != nil {
		st.Error = d.lastErr.Error()
	}
	return st
}

// Filter returns the current, possibly not yet applied, filter.
func (d *Dashboard) Filter() analytics.Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.Current()
}

// SetFilters merges patch into the current filter without fetching.
func (d *Dashboard) SetFilters(patch analytics.FilterPatch) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters.SetFilters(patch)
	return d.stateLocked()
}

// ClearFilters resets the filter to its defaults without fetching.
func (d *Dashboard) ClearFilters() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters.Clear()
	return d.stateLocked()
}

// ApplyFiltersAndFetch merges patch and fetches with the merged filter.
func (d *Dashboard) ApplyFiltersAndFetch(ctx context.Context, patch analytics.FilterPatch) (State, error) {
	d.mu.Lock()
	d.filters.SetFilters(patch)
	d.mu.Unlock()
	return d.Fetch(ctx)
}

// Retry re-issues the fetch with the current filter.
func (d *Dashboard) Retry(ctx context.Context) (State, error) {
	return d.Fetch(ctx)
}

// Fetch loads a view for the current filter and mode. On failure the
// previous view is kept and the error is recorded. A fetch overtaken by a
// newer one returns ErrSuperseded and leaves the state untouched.
func (d *Dashboard) Fetch(ctx context.Context) (State, error) {
	d.mu.Lock()
	d.seq++
	token := d.seq
	filter := d.filters.Current()
	mode := d.mode
	d.loading = true
	d.lastErr = nil
	d.mu.Unlock()

	requestID := uuid.NewString()
	view, err := LoadView(ctx, d.service, filter, mode)

	d.mu.Lock()
	defer d.mu.Unlock()
	if token != d.seq {
		d.logger.Debug("discarding superseded fetch", slog.String("request_id", requestID), slog.Uint64("token", token))
		return d.stateLocked(), ErrSuperseded
	}
	d.loading = false
	if err != nil {
		d.lastErr = err
		d.logger.Warn("dashboard fetch failed", slog.String("request_id", requestID), slog.Any("error", err))
		return d.stateLocked(), err
	}
	view.RequestID = requestID
	d.view = &view
	return d.stateLocked(), nil
}

// SetMode switches the view mode and re-fetches with the new mode's
// granularity. A chart type the new mode does not allow is reset to bar.
func (d *Dashboard) SetMode(ctx context.Context, mode ViewMode) (State, error) {
	if _, ok := allowedCharts[mode]; !ok {
		return d.State(), fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	d.mu.Lock()
	if d.mode == mode {
		st := d.stateLocked()
		d.mu.Unlock()
		return st, nil
	}
	d.mode = mode
	if !mode.Allows(d.chartType) {
		d.chartType = ChartBar
	}
	d.mu.Unlock()
	return d.Fetch(ctx)
}

// SetChartType changes the chart type within the current mode.
func (d *Dashboard) SetChartType(chartType ChartType) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.mode.Allows(chartType) {
		return d.stateLocked(), fmt.Errorf("%w: %s in %s", ErrChartTypeNotAllowed, chartType, d.mode)
	}
	d.chartType = chartType
	return d.stateLocked(), nil
}

// Breakdown returns the complete location breakdown of a comparison bucket
// in the current view.
func (d *Dashboard) Breakdown(bucketID string) (analytics.Bucket, error) {
	d.mu.Lock()
	view := d.view
	d.mu.Unlock()
	if view == nil {
		return analytics.Bucket{}, analytics.ErrBucketNotFound
	}
	b, ok := analytics.FindBucket(view.Comparison, bucketID)
	if !ok {
		return analytics.Bucket{}, analytics.ErrBucketNotFound
	}
	return b, nil
}

// IsUserFacing reports whether err should be shown to the user, i.e. it is
// not the silent discard of a superseded fetch.
func IsUserFacing(err error) bool {
	return err != nil && !errors.Is(err, ErrSuperseded)
}
