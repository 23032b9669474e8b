package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

// Bars renders a grouped bar chart with one bar per series in each category.
func Bars(width, height int, set analytics.SeriesSet, opts Opts) (template.HTML, error) {
	f, err := newFrame(width, height, set, opts)
	if err != nil {
		return "", err
	}

	groupWidth := f.chartWidth / float64(len(set.Categories))
	seriesCount := len(set.Series)
	if seriesCount == 0 {
		seriesCount = 1
	}
	// leave a fifth of each group as gap
	barWidth := groupWidth * 0.8 / float64(seriesCount)
	zeroY := f.y(0)

	var b strings.Builder
	f.open(&b, "bar", opts.Title, opts.Description, "Grafik batang")
	f.grid(&b)
	f.axes(&b)

	for i, label := range set.Categories {
		baseX := f.padding + float64(i)*groupWidth + groupWidth*0.1
		for si, s := range set.Series {
			y, h := barPosition(s.Data[i], f.scale, zeroY, f.padding, f.bottom())
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"></rect>",
				baseX+float64(si)*barWidth, y, barWidth, h, colorAt(opts.Palette, si),
				template.HTMLEscapeString(s.Name), template.HTMLEscapeString(label))
		}
		f.categoryLabel(&b, f.padding+float64(i)*groupWidth+groupWidth/2, label)
	}
	if len(set.Series) > 1 {
		f.legend(&b, set.Series, opts.Palette)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, top, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < top {
			height -= top - y
			y = top
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
