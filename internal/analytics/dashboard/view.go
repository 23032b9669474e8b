package dashboard

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/analytics/chart"
	"github.com/umkm-report/umkm-report/internal/sales"
)

// TopListSize is the length of the top product and location lists.
const TopListSize = 5

// View is the result of one successful fetch. A committed view is never
// mutated.
type View struct {
	RequestID    string               `json:"requestId"`
	Filter       analytics.Filter     `json:"filter"`
	Mode         ViewMode             `json:"mode"`
	PeriodLabel  string               `json:"periodLabel"`
	Summary      analytics.Summary    `json:"summary"`
	Series       analytics.SeriesSet  `json:"series"`
	Pie          []analytics.PieSlice `json:"pie,omitempty"`
	Monthly      []analytics.Bucket   `json:"monthly,omitempty"`
	Comparison   []analytics.Bucket   `json:"comparison,omitempty"`
	Tooltips     []chart.Tooltip      `json:"tooltips,omitempty"`
	TopProducts  []analytics.Bucket   `json:"topProducts"`
	TopLocations []analytics.Bucket   `json:"topLocations"`
	FetchedAt    time.Time            `json:"fetchedAt"`
}

// LoadView runs the pipeline for filter in mode. Every query uses the
// record granularity of mode: the combined view carries the dense monthly
// total; the compare view carries business/month buckets shaped onto the
// same 12-month axis plus the top product and location lists.
func LoadView(ctx context.Context, service *analytics.Service, filter analytics.Filter, mode ViewMode) (View, error) {
	view := View{Filter: filter, Mode: mode, PeriodLabel: filter.Label()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := service.GetSummary(gctx, filter)
		view.Summary = summary
		return err
	})
	view.TopProducts = []analytics.Bucket{}
	view.TopLocations = []analytics.Bucket{}
	// Product and location detail only exists on per-business records, so the
	// flat combined view goes without top lists.
	if mode.Granularity() == sales.GranularityPerBusiness {
		g.Go(func() error {
			products, err := service.GetDimensionBreakdown(gctx, filter, analytics.DimensionProduct)
			view.TopProducts = analytics.TopN(products, TopListSize)
			return err
		})
		g.Go(func() error {
			locations, err := service.GetDimensionBreakdown(gctx, filter, analytics.DimensionLocation)
			view.TopLocations = analytics.TopN(locations, TopListSize)
			return err
		})
	}
	if mode == ModeCompare {
		g.Go(func() error {
			comparison, err := service.GetBusinessMonthlyComparison(gctx, filter)
			view.Comparison = comparison
			return err
		})
	} else {
		g.Go(func() error {
			monthly, err := service.GetMonthlyBuckets(gctx, filter)
			view.Monthly = monthly
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	now := service.Now()
	if mode == ModeCompare {
		view.Series = analytics.ToSeriesOnAxis(view.Comparison, nil, filter.Window(now).Periods())
		view.Pie = analytics.ToPieSeries(BusinessTotals(view.Comparison))
		view.Tooltips = chart.BuildTooltips(view.Comparison)
	} else {
		view.Series = analytics.CombinedSeries(view.Monthly)
	}
	view.FetchedAt = now
	return view, nil
}

// BusinessTotals collapses business/month buckets into one bucket per
// business, ordered by name.
func BusinessTotals(comparison []analytics.Bucket) []analytics.Bucket {
	totals := make(map[string]*analytics.Bucket)
	for _, b := range comparison {
		t, ok := totals[b.Business]
		if !ok {
			t = &analytics.Bucket{Key: b.Business, Label: b.Business, Business: b.Business}
			totals[b.Business] = t
		}
		t.TotalSales += b.TotalSales
		t.TotalExpense += b.TotalExpense
		t.TotalQuantitySold += b.TotalQuantitySold
		t.TransactionCount += b.TransactionCount
	}
	out := make([]analytics.Bucket, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
