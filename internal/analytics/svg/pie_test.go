package svg

import (
	"strings"
	"testing"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

func TestPieAndDonut(t *testing.T) {
	slices := []analytics.PieSlice{{Label: "Toko B", Value: 200000}, {Label: "Toko A", Value: 150000}, {Label: "Toko C", Value: 0}}

	pie, err := Pie(480, 240, slices, PieOpts{Title: "Porsi"})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	if got := strings.Count(string(pie), "<path"); got != 2 {
		t.Fatalf("expected 2 slices, got %d", got)
	}
	if strings.Contains(string(pie), "Toko C") {
		t.Fatalf("zero slices should be skipped")
	}

	donut, err := Pie(480, 240, slices, PieOpts{Donut: true})
	if err != nil {
		t.Fatalf("donut renderer error: %v", err)
	}
	if !strings.Contains(string(donut), "Rp 350 rb") {
		t.Fatalf("expected donut total label, got %s", donut)
	}
}

func TestPieEmpty(t *testing.T) {
	html, err := Pie(480, 240, nil, PieOpts{})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	if !strings.Contains(string(html), "Tidak ada data") {
		t.Fatalf("expected empty state")
	}
}

func TestPieSingleSliceIsCircle(t *testing.T) {
	html, err := Pie(480, 240, []analytics.PieSlice{{Label: "Toko A", Value: 1}}, PieOpts{})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	if !strings.Contains(string(html), "<circle") || strings.Contains(string(html), "<path") {
		t.Fatalf("expected a full circle for a single slice")
	}
}
