package chart

import (
	"testing"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

func TestFormatCompactCurrency(t *testing.T) {
	cases := map[float64]string{
		0:             "Rp 0",
		950:           "Rp 950",
		1500:          "Rp 1,5 rb",
		20000:         "Rp 20 rb",
		2300000:       "Rp 2,3 jt",
		1000000:       "Rp 1 jt",
		1200000000:    "Rp 1,2 M",
		4000000000000: "Rp 4 T",
		-1500000:      "Rp -1,5 jt",
	}
	for value, want := range cases {
		if got := FormatCompactCurrency(value); got != want {
			t.Fatalf("FormatCompactCurrency(%v) = %q, want %q", value, got, want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(1500000); got != "Rp 1.500.000" {
		t.Fatalf("unexpected exact currency %q", got)
	}
	if got := FormatCurrency(950); got != "Rp 950" {
		t.Fatalf("unexpected exact currency %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(66.7); got != "66,7%" {
		t.Fatalf("unexpected percent %q", got)
	}
	if got := FormatPercent(50); got != "50%" {
		t.Fatalf("unexpected percent %q", got)
	}
}

func TestBuildTooltipTruncatesLocations(t *testing.T) {
	bucket := analytics.Bucket{
		Key:        analytics.BucketID("Toko A", "2024-01"),
		Label:      "Toko A",
		Period:     "2024-01",
		TotalSales: 200000,
		LocationBreakdown: []analytics.LocationShare{
			{Label: "Pasar 1", TotalSales: 100000, ContributionPercentage: 50},
			{Label: "Pasar 2", TotalSales: 60000, ContributionPercentage: 30},
			{Label: "Pasar 3", TotalSales: 30000, ContributionPercentage: 15},
			{Label: "Pasar 4", TotalSales: 10000, ContributionPercentage: 5},
		},
	}
	tip := BuildTooltip(bucket)
	if len(tip.Locations) != TooltipLocationCap || tip.HiddenCount != 2 {
		t.Fatalf("expected %d shown and 2 hidden, got %d/%d", TooltipLocationCap, len(tip.Locations), tip.HiddenCount)
	}
	if tip.Locations[0].Label != "Pasar 1" || tip.Locations[0].Sales != "Rp 100.000" {
		t.Fatalf("unexpected first location %#v", tip.Locations[0])
	}
	if tip.BucketID != "Toko A|2024-01" || tip.Month != "Jan 2024" || tip.TotalSales != "Rp 200.000" {
		t.Fatalf("unexpected tooltip header %#v", tip)
	}
	if len(bucket.LocationBreakdown) != 4 {
		t.Fatalf("tooltip must not truncate the bucket breakdown")
	}
}

func TestBuildTooltipWithinCap(t *testing.T) {
	tip := BuildTooltip(analytics.Bucket{LocationBreakdown: []analytics.LocationShare{{Label: "Pasar 1"}}})
	if tip.HiddenCount != 0 || len(tip.Locations) != 1 {
		t.Fatalf("unexpected tooltip %#v", tip)
	}
}
