// Package svg renders analytics series as standalone, accessible SVG documents.
package svg

// Opts customises the line and bar renderers.
type Opts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	ShowDots    bool
	// FillArea shades the area under a single line series.
	FillArea bool
	Palette  []string
	// TickFormat renders y-axis values. Defaults to chart.FormatCompactCurrency.
	TickFormat func(float64) string
}

// PieOpts customises the pie and donut renderer.
type PieOpts struct {
	Title       string
	Description string
	Donut       bool
	Palette     []string
	LabelColor  string
}

// Defaults for the analytics charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 48.0
	DefaultTicks   = 5
)

var defaultPalette = []string{"#2563eb", "#f97316", "#16a34a", "#dc2626", "#9333ea", "#0891b2", "#ca8a04", "#db2777"}

func colorAt(palette []string, i int) string {
	if len(palette) == 0 {
		palette = defaultPalette
	}
	return palette[i%len(palette)]
}
