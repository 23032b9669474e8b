package analytics

import (
	"sort"
)

// CombinedSeriesName labels the single series of the combined view.
const CombinedSeriesName = "Total Penjualan"

// Series is one named line or bar group aligned to a SeriesSet's categories.
type Series struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// SeriesSet is the {series, categories} shape consumed by charts.
type SeriesSet struct {
	Categories []string `json:"categories"`
	Periods    []string `json:"periods"`
	Series     []Series `json:"series"`
}

// PieSlice is one labelled share of a pie or donut.
type PieSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// CombinedSeries turns dense month buckets into a single total-sales series.
func CombinedSeries(months []Bucket) SeriesSet {
	set := SeriesSet{
		Categories: make([]string, 0, len(months)),
		Periods:    make([]string, 0, len(months)),
		Series:     []Series{{Name: CombinedSeriesName, Data: make([]float64, 0, len(months))}},
	}
	for _, b := range months {
		set.Categories = append(set.Categories, b.Label)
		set.Periods = append(set.Periods, b.Period)
		set.Series[0].Data = append(set.Series[0].Data, float64(b.TotalSales))
	}
	return set
}

// ToSeries builds one series per name over the deduplicated, chronologically
// sorted periods found in buckets. When names is empty every bucket label
// gets a series.
func ToSeries(buckets []Bucket, names []string) SeriesSet {
	seen := make(map[string]struct{})
	var periods []string
	for _, b := range buckets {
		if b.Period == "" {
			continue
		}
		if _, ok := seen[b.Period]; ok {
			continue
		}
		seen[b.Period] = struct{}{}
		periods = append(periods, b.Period)
	}
	sort.Strings(periods)
	return ToSeriesOnAxis(buckets, names, periods)
}

// ToSeriesOnAxis is ToSeries over a caller supplied period axis. Cells with
// no bucket are 0; buckets outside the axis are ignored.
func ToSeriesOnAxis(buckets []Bucket, names []string, periods []string) SeriesSet {
	if len(names) == 0 {
		names = SeriesNames(buckets)
	}
	index := make(map[string]int, len(periods))
	set := SeriesSet{
		Categories: make([]string, len(periods)),
		Periods:    append([]string{}, periods...),
		Series:     make([]Series, len(names)),
	}
	for i, p := range periods {
		index[p] = i
		set.Categories[i] = PeriodLabel(p)
	}
	byName := make(map[string]int, len(names))
	for i, name := range names {
		set.Series[i] = Series{Name: name, Data: make([]float64, len(periods))}
		byName[name] = i
	}
	for _, b := range buckets {
		si, ok := byName[b.Label]
		if !ok {
			continue
		}
		pi, ok := index[b.Period]
		if !ok {
			continue
		}
		set.Series[si].Data[pi] += float64(b.TotalSales)
	}
	return set
}

// SeriesNames returns the distinct bucket labels in ascending order.
func SeriesNames(buckets []Bucket) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, b := range buckets {
		if _, ok := seen[b.Label]; ok {
			continue
		}
		seen[b.Label] = struct{}{}
		names = append(names, b.Label)
	}
	sort.Strings(names)
	return names
}

// ToPieSeries maps buckets to slices ordered by value descending. Ties keep
// input order.
func ToPieSeries(buckets []Bucket) []PieSlice {
	slices := make([]PieSlice, 0, len(buckets))
	for _, b := range buckets {
		slices = append(slices, PieSlice{Label: b.Label, Value: float64(b.TotalSales)})
	}
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Value > slices[j].Value
	})
	return slices
}
