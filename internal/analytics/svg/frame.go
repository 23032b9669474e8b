package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/analytics/chart"
)

// frame holds the shared cartesian layout of line and bar charts.
type frame struct {
	width       int
	height      int
	padding     float64
	chartWidth  float64
	chartHeight float64
	minVal      float64
	maxVal      float64
	scale       float64
	tickCount   int
	axisColor   string
	gridColor   string
	tickFormat  func(float64) string
}

func newFrame(width, height int, set analytics.SeriesSet, opts Opts) (frame, error) {
	if len(set.Categories) == 0 {
		return frame{}, fmt.Errorf("svg: categories required")
	}
	for _, s := range set.Series {
		if len(s.Data) != len(set.Categories) {
			return frame{}, fmt.Errorf("svg: series %q length must match categories", s.Name)
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	f := frame{
		width:      width,
		height:     height,
		padding:    opts.Padding,
		tickCount:  opts.TickCount,
		axisColor:  fallback(opts.AxisColor, "#475569"),
		gridColor:  fallback(opts.GridColor, "#cbd5f5"),
		tickFormat: opts.TickFormat,
	}
	if f.padding <= 0 {
		f.padding = DefaultPadding
	}
	if f.tickCount <= 0 {
		f.tickCount = DefaultTicks
	}
	if f.tickFormat == nil {
		f.tickFormat = chart.FormatCompactCurrency
	}
	f.chartWidth = float64(width) - 2*f.padding
	f.chartHeight = float64(height) - 2*f.padding
	if f.chartWidth <= 0 || f.chartHeight <= 0 {
		return frame{}, fmt.Errorf("svg: viewport too small")
	}

	f.minVal, f.maxVal = seriesBounds(set.Series)
	if f.minVal > 0 {
		f.minVal = 0
	}
	if f.maxVal < 0 {
		f.maxVal = 0
	}
	if almostEqual(f.maxVal, f.minVal) {
		f.maxVal = f.minVal + 1
	}
	f.scale = f.chartHeight / (f.maxVal - f.minVal)
	return f, nil
}

func (f frame) y(value float64) float64 {
	return f.padding + f.chartHeight - (value-f.minVal)*f.scale
}

func (f frame) bottom() float64 {
	return f.padding + f.chartHeight
}

func (f frame) open(b *strings.Builder, kind, title, desc, defaultTitle string) {
	openSVG(b, f.width, f.height, kind, title, desc, defaultTitle)
}

func openSVG(b *strings.Builder, width, height int, kind, title, desc, defaultTitle string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(title, defaultTitle)))
	fmt.Fprintf(b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(desc, "Data penjualan")))
}

func (f frame) grid(b *strings.Builder) {
	for i := 0; i <= f.tickCount; i++ {
		ratio := float64(i) / float64(f.tickCount)
		y := f.padding + f.chartHeight - ratio*f.chartHeight
		value := f.minVal + (f.maxVal-f.minVal)*ratio
		fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", f.padding, y, f.padding+f.chartWidth, y, f.gridColor)
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", f.padding-6, y+4, f.axisColor, template.HTMLEscapeString(f.tickFormat(value)))
	}
}

func (f frame) axes(b *strings.Builder) {
	zeroY := f.y(0)
	fmt.Fprintf(b, "<g stroke=\"%s\" aria-label=\"Sumbu\">", f.axisColor)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, f.padding, f.padding, f.bottom())
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, zeroY, f.padding+f.chartWidth, zeroY)
	b.WriteString("</g>")
}

func (f frame) categoryLabel(b *strings.Builder, x float64, label string) {
	fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, f.bottom()+14, f.axisColor, template.HTMLEscapeString(label))
}

func (f frame) legend(b *strings.Builder, series []analytics.Series, palette []string) {
	legendY := f.padding - 16
	if legendY < 12 {
		legendY = 12
	}
	legendX := f.padding
	for i, s := range series {
		fmt.Fprintf(b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, colorAt(palette, i))
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, legendY, f.axisColor, template.HTMLEscapeString(s.Name))
		legendX += 20 + 6*float64(len([]rune(s.Name)))
	}
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func seriesBounds(series []analytics.Series) (float64, float64) {
	minVal, maxVal := 0.0, 0.0
	first := true
	for _, s := range series {
		for _, v := range s.Data {
			if first {
				minVal, maxVal = v, v
				first = false
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}
