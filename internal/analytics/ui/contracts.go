// Package ui shapes analytics results into the payloads and charts served to
// the dashboard front end.
package ui

import (
	"fmt"
	"html/template"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/analytics/chart"
	"github.com/umkm-report/umkm-report/internal/analytics/dashboard"
	"github.com/umkm-report/umkm-report/internal/analytics/svg"
)

// SummaryCard is one headline metric with its display value.
type SummaryCard struct {
	Label   string  `json:"label"`
	Value   string  `json:"value"`
	Compact string  `json:"compact,omitempty"`
	Raw     float64 `json:"raw"`
}

// Overview is the single-request dashboard payload.
type Overview struct {
	Filter           analytics.Filter    `json:"filter"`
	PeriodLabel      string              `json:"periodLabel"`
	Summary          analytics.Summary   `json:"summary"`
	Cards            []SummaryCard       `json:"cards"`
	Monthly          []analytics.Bucket  `json:"monthly"`
	MonthlySeries    analytics.SeriesSet `json:"monthlySeries"`
	TopProducts      []analytics.Bucket  `json:"topProducts"`
	TopLocations     []analytics.Bucket  `json:"topLocations"`
	Comparison       []analytics.Bucket  `json:"comparison"`
	ComparisonSeries analytics.SeriesSet `json:"comparisonSeries"`
	Tooltips         []chart.Tooltip     `json:"tooltips"`
}

// Comparison is the payload of the business/month comparison endpoint.
type Comparison struct {
	Buckets  []analytics.Bucket  `json:"buckets"`
	Series   analytics.SeriesSet `json:"series"`
	Tooltips []chart.Tooltip     `json:"tooltips"`
}

// SummaryCards renders the summary as display cards.
func SummaryCards(s analytics.Summary) []SummaryCard {
	return []SummaryCard{
		currencyCard("Total Penjualan", s.TotalSales),
		currencyCard("Total Pengeluaran", s.TotalExpense),
		{Label: "Jumlah Terjual", Value: fmt.Sprintf("%d", s.TotalQuantitySold), Raw: float64(s.TotalQuantitySold)},
		{Label: "Jumlah Transaksi", Value: fmt.Sprintf("%d", s.TransactionCount), Raw: float64(s.TransactionCount)},
		{
			Label:   "Rata-rata Penjualan",
			Value:   chart.FormatCurrency(int64(s.AverageSale + 0.5)),
			Compact: chart.FormatCompactCurrency(s.AverageSale),
			Raw:     s.AverageSale,
		},
	}
}

func currencyCard(label string, v int64) SummaryCard {
	return SummaryCard{
		Label:   label,
		Value:   chart.FormatCurrency(v),
		Compact: chart.FormatCompactCurrency(float64(v)),
		Raw:     float64(v),
	}
}

// SeriesRenderer abstracts SVG rendering of a series set.
type SeriesRenderer interface {
	Render(width, height int, set analytics.SeriesSet, opts svg.Opts) (template.HTML, error)
}

// PieRenderer abstracts SVG rendering of pie and donut charts.
type PieRenderer interface {
	Render(width, height int, slices []analytics.PieSlice, opts svg.PieOpts) (template.HTML, error)
}

// SeriesRendererFunc adapts a function such as svg.Line to SeriesRenderer.
type SeriesRendererFunc func(width, height int, set analytics.SeriesSet, opts svg.Opts) (template.HTML, error)

// Render implements SeriesRenderer.
func (f SeriesRendererFunc) Render(width, height int, set analytics.SeriesSet, opts svg.Opts) (template.HTML, error) {
	return f(width, height, set, opts)
}

// PieRendererFunc adapts svg.Pie to PieRenderer.
type PieRendererFunc func(width, height int, slices []analytics.PieSlice, opts svg.PieOpts) (template.HTML, error)

// Render implements PieRenderer.
func (f PieRendererFunc) Render(width, height int, slices []analytics.PieSlice, opts svg.PieOpts) (template.HTML, error) {
	return f(width, height, slices, opts)
}

// Charts selects a renderer per chart type.
type Charts struct {
	Line SeriesRenderer
	Bar  SeriesRenderer
	Pie  PieRenderer
}

// DefaultCharts wires the svg package renderers.
func DefaultCharts() Charts {
	return Charts{
		Line: SeriesRendererFunc(svg.Line),
		Bar:  SeriesRendererFunc(svg.Bars),
		Pie:  PieRendererFunc(svg.Pie),
	}
}

// Render draws the view with the given chart type. The chart type must be
// allowed in the view's mode.
func (c Charts) Render(view dashboard.View, chartType dashboard.ChartType) (template.HTML, error) {
	if !view.Mode.Allows(chartType) {
		return "", fmt.Errorf("%w: %s in %s", dashboard.ErrChartTypeNotAllowed, chartType, view.Mode)
	}
	title := "Penjualan " + view.PeriodLabel
	desc := "Total penjualan per bulan"
	if view.Mode == dashboard.ModeCompare {
		desc = "Perbandingan penjualan per usaha"
	}
	switch chartType {
	case dashboard.ChartLine:
		if c.Line == nil {
			return "", fmt.Errorf("line renderer missing")
		}
		return c.Line.Render(svg.DefaultWidth, svg.DefaultHeight, view.Series, svg.Opts{Title: title, Description: desc, ShowDots: true})
	case dashboard.ChartPie, dashboard.ChartDonut:
		if c.Pie == nil {
			return "", fmt.Errorf("pie renderer missing")
		}
		return c.Pie.Render(svg.DefaultWidth, svg.DefaultHeight, view.Pie, svg.PieOpts{
			Title:       title,
			Description: "Porsi penjualan per usaha",
			Donut:       chartType == dashboard.ChartDonut,
		})
	default:
		if c.Bar == nil {
			return "", fmt.Errorf("bar renderer missing")
		}
		return c.Bar.Render(svg.DefaultWidth, svg.DefaultHeight, view.Series, svg.Opts{Title: title, Description: desc})
	}
}
