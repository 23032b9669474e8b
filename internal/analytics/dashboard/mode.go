package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/umkm-report/umkm-report/internal/sales"
)

// ViewMode selects between the combined total and the per-business comparison.
type ViewMode string

const (
	ModeCombined ViewMode = "combined"
	ModeCompare  ViewMode = "compare"
)

// ChartType is the chart used to draw the current view.
type ChartType string

const (
	ChartBar   ChartType = "bar"
	ChartLine  ChartType = "line"
	ChartPie   ChartType = "pie"
	ChartDonut ChartType = "donut"
)

var (
	ErrInvalidMode         = errors.New("dashboard: invalid view mode")
	ErrInvalidChartType    = errors.New("dashboard: unknown chart type")
	ErrChartTypeNotAllowed = errors.New("dashboard: chart type not allowed in view mode")
	// ErrSuperseded is returned by a fetch whose result was discarded because
	// a newer fetch started after it.
	ErrSuperseded      = errors.New("dashboard: fetch superseded by a newer request")
	ErrSessionNotFound = errors.New("dashboard: session not found")
)

var allowedCharts = map[ViewMode][]ChartType{
	ModeCombined: {ChartBar},
	ModeCompare:  {ChartLine, ChartBar, ChartPie, ChartDonut},
}

// ParseViewMode validates a view mode name.
func ParseViewMode(value string) (ViewMode, error) {
	m := ViewMode(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := allowedCharts[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, value)
	}
	return m, nil
}

// ParseChartType validates a chart type name regardless of mode.
func ParseChartType(value string) (ChartType, error) {
	switch c := ChartType(strings.ToLower(strings.TrimSpace(value))); c {
	case ChartBar, ChartLine, ChartPie, ChartDonut:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChartType, value)
	}
}

// AllowedChartTypes lists the chart types available in a mode.
func AllowedChartTypes(m ViewMode) []ChartType {
	return slices.Clone(allowedCharts[m])
}

// Allows reports whether c may be drawn in mode m.
func (m ViewMode) Allows(c ChartType) bool {
	return slices.Contains(allowedCharts[m], c)
}

// Granularity is the record granularity fetched for the mode.
func (m ViewMode) Granularity() sales.Granularity {
	if m == ModeCompare {
		return sales.GranularityPerBusiness
	}
	return sales.GranularityFlat
}
