package chart

import (
	"github.com/umkm-report/umkm-report/internal/analytics"
)

// TooltipLocationCap is the number of locations shown inline in a tooltip.
const TooltipLocationCap = 2

// TooltipLocation is one location line of a tooltip.
type TooltipLocation struct {
	Label        string  `json:"label"`
	Address      string  `json:"address,omitempty"`
	Sales        string  `json:"sales"`
	Quantity     int64   `json:"quantity"`
	Contribution string  `json:"contribution"`
	Percentage   float64 `json:"percentage"`
}

// Tooltip is the hover payload of a business/month bucket. HiddenCount
// locations are omitted from Locations; BucketID opens the full list.
type Tooltip struct {
	BucketID         string            `json:"bucketId"`
	Title            string            `json:"title"`
	Month            string            `json:"month"`
	TotalSales       string            `json:"totalSales"`
	TotalExpense     string            `json:"totalExpense"`
	QuantitySold     int64             `json:"quantitySold"`
	TransactionCount int               `json:"transactionCount"`
	Locations        []TooltipLocation `json:"locations"`
	HiddenCount      int               `json:"hiddenCount"`
}

// BuildTooltip projects a bucket into a tooltip. The bucket is not modified.
func BuildTooltip(b analytics.Bucket) Tooltip {
	shown := b.LocationBreakdown
	hidden := 0
	if len(shown) > TooltipLocationCap {
		hidden = len(shown) - TooltipLocationCap
		shown = shown[:TooltipLocationCap]
	}
	locations := make([]TooltipLocation, 0, len(shown))
	for _, loc := range shown {
		locations = append(locations, TooltipLocation{
			Label:        loc.Label,
			Address:      loc.Address,
			Sales:        FormatCurrency(loc.TotalSales),
			Quantity:     loc.TotalQuantitySold,
			Contribution: FormatPercent(loc.ContributionPercentage),
			Percentage:   loc.ContributionPercentage,
		})
	}
	month := b.Month
	if month == "" {
		month = analytics.PeriodLabel(b.Period)
	}
	return Tooltip{
		BucketID:         b.Key,
		Title:            b.Label,
		Month:            month,
		TotalSales:       FormatCurrency(b.TotalSales),
		TotalExpense:     FormatCurrency(b.TotalExpense),
		QuantitySold:     b.TotalQuantitySold,
		TransactionCount: b.TransactionCount,
		Locations:        locations,
		HiddenCount:      hidden,
	}
}

// BuildTooltips projects every bucket.
func BuildTooltips(buckets []analytics.Bucket) []Tooltip {
	out := make([]Tooltip, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, BuildTooltip(b))
	}
	return out
}
