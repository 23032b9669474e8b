package svg

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

// Line renders one polyline per series over the set's categories.
func Line(width, height int, set analytics.SeriesSet, opts Opts) (template.HTML, error) {
	f, err := newFrame(width, height, set, opts)
	if err != nil {
		return "", err
	}

	n := len(set.Categories)
	step := 0.0
	if n > 1 {
		step = f.chartWidth / float64(n-1)
	}
	xAt := func(i int) float64 {
		if n == 1 {
			return f.padding + f.chartWidth/2
		}
		return f.padding + float64(i)*step
	}

	var b strings.Builder
	f.open(&b, "line", opts.Title, opts.Description, "Grafik garis")
	f.grid(&b)
	f.axes(&b)

	for si, s := range set.Series {
		color := colorAt(opts.Palette, si)
		var path strings.Builder
		for i, value := range s.Data {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.2f %.2f ", cmd, xAt(i), f.y(value))
		}
		d := strings.TrimSpace(path.String())
		if opts.FillArea && len(set.Series) == 1 {
			area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", d, xAt(n-1), f.bottom(), xAt(0), f.bottom())
			fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\" fill-opacity=\"0.12\" stroke=\"none\" aria-hidden=\"true\"></path>", area, color)
		}
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"%s\"></path>", d, color, template.HTMLEscapeString(s.Name))
		if opts.ShowDots {
			for i, value := range s.Data {
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", xAt(i), f.y(value), color)
			}
		}
	}

	for i, label := range set.Categories {
		f.categoryLabel(&b, xAt(i), label)
	}
	if len(set.Series) > 1 {
		f.legend(&b, set.Series, opts.Palette)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
