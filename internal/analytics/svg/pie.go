package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/analytics/chart"
)

// Pie renders slices as a pie, or a donut when opts.Donut is set. Slices with
// a non-positive value are skipped.
func Pie(width, height int, slices []analytics.PieSlice, opts PieOpts) (template.HTML, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	kind, defaultTitle := "pie", "Grafik pai"
	if opts.Donut {
		kind, defaultTitle = "donut", "Grafik donat"
	}
	labelColor := fallback(opts.LabelColor, "#475569")

	total := 0.0
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}

	radius := math.Min(float64(width)/2, float64(height)) / 2 * 0.9
	if radius <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	cx := float64(width) / 4
	cy := float64(height) / 2

	var b strings.Builder
	openSVG(&b, width, height, kind, opts.Title, opts.Description, defaultTitle)

	if total <= 0 {
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-dasharray=\"4,4\"></circle>", cx, cy, radius, labelColor)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" text-anchor=\"middle\">Tidak ada data</text>", cx, cy+4, labelColor)
		b.WriteString("</svg>")
		return template.HTML(b.String()), nil
	}

	angle := -math.Pi / 2
	drawn := 0
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		color := colorAt(opts.Palette, i)
		share := s.Value / total
		label := template.HTMLEscapeString(s.Label)
		if share >= 0.9999 {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></circle>", cx, cy, radius, color, label)
		} else {
			sweep := share * 2 * math.Pi
			x1, y1 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
			x2, y2 := cx+radius*math.Cos(angle+sweep), cy+radius*math.Sin(angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			fmt.Fprintf(&b, "<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" aria-label=\"%s\"></path>",
				cx, cy, x1, y1, radius, radius, large, x2, y2, color, label)
			angle += sweep
		}

		legendY := 24 + float64(drawn)*18
		legendX := float64(width)/2 + 8
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-9, color)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s · %s (%s)</text>",
			legendX+16, legendY, labelColor, label,
			template.HTMLEscapeString(chart.FormatCompactCurrency(s.Value)),
			template.HTMLEscapeString(chart.FormatPercent(share*100)))
		drawn++
	}

	if opts.Donut {
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"#ffffff\"></circle>", cx, cy, radius*0.55)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"middle\">%s</text>",
			cx, cy+4, labelColor, template.HTMLEscapeString(chart.FormatCompactCurrency(total)))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
