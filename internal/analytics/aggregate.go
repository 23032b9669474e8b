package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umkm-report/umkm-report/internal/sales"
)

var hundred = decimal.NewFromInt(100)

// GroupByMonth buckets dated records falling inside the window. The result
// always holds WindowMonths buckets in chronological order.
func GroupByMonth(records []sales.TransactionRecord, window Window) []Bucket {
	months := window.Months()
	buckets := make([]Bucket, len(months))
	index := make(map[string]int, len(months))
	for i, month := range months {
		period := FormatPeriod(month)
		label := MonthLabel(month)
		buckets[i] = Bucket{Key: label, Label: label, Period: period, Month: label}
		index[period] = i
	}
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		if i, ok := index[FormatPeriod(rec.Date)]; ok {
			buckets[i].add(rec)
		}
	}
	return buckets
}

// GroupByDimension buckets dated records by dimension identity. Records with
// no identity land in the sales.UnknownLabel bucket. Buckets are ordered by
// total sales descending, then key.
func GroupByDimension(records []sales.TransactionRecord, dim Dimension) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		key, label := identity(rec, dim)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key, Label: label})
		}
		buckets[i].add(rec)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].TotalSales != buckets[j].TotalSales {
			return buckets[i].TotalSales > buckets[j].TotalSales
		}
		return buckets[i].Key < buckets[j].Key
	})
	if buckets == nil {
		buckets = []Bucket{}
	}
	return buckets
}

// GroupByBusinessAndMonth builds one bucket per (business, month) pair with a
// per-location breakdown. Buckets are ordered by period, then business.
func GroupByBusinessAndMonth(records []sales.TransactionRecord) []Bucket {
	type pair struct {
		bucket    Bucket
		locations map[string]*LocationShare
	}
	groups := make(map[string]*pair)
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		business, _ := identity(rec, DimensionBusiness)
		period := FormatPeriod(rec.Date)
		id := BucketID(business, period)
		g, ok := groups[id]
		if !ok {
			month := MonthLabel(rec.Date)
			g = &pair{
				bucket:    Bucket{Key: id, Label: business, Business: business, Period: period, Month: month},
				locations: make(map[string]*LocationShare),
			}
			groups[id] = g
		}
		g.bucket.add(rec)

		locKey, locLabel := identity(rec, DimensionLocation)
		share, ok := g.locations[locKey]
		if !ok {
			share = &LocationShare{Key: locKey, Label: locLabel, Address: rec.LocationAddress}
			g.locations[locKey] = share
		}
		share.add(rec)
	}

	buckets := make([]Bucket, 0, len(groups))
	for _, g := range groups {
		g.bucket.LocationBreakdown = locationBreakdown(g.locations, g.bucket.TotalSales)
		buckets = append(buckets, g.bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Period != buckets[j].Period {
			return buckets[i].Period < buckets[j].Period
		}
		return buckets[i].Business < buckets[j].Business
	})
	return buckets
}

func locationBreakdown(locations map[string]*LocationShare, parentTotal int64) []LocationShare {
	out := make([]LocationShare, 0, len(locations))
	for _, share := range locations {
		s := *share
		s.ContributionPercentage = ContributionPercentage(s.TotalSales, parentTotal)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ContributionPercentage returns part/total*100 rounded to one decimal place,
// or 0 when total is 0.
func ContributionPercentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(total)).Round(1).InexactFloat64()
}

// ComputeSummary reduces records to totals. Records without a date are
// excluded and counted in SkippedRecords.
func ComputeSummary(records []sales.TransactionRecord) Summary {
	var s Summary
	for _, rec := range records {
		if !rec.HasDate() {
			s.SkippedRecords++
			continue
		}
		s.TotalSales += rec.SaleAmount
		s.TotalExpense += rec.ExpenseAmount
		s.TotalQuantitySold += rec.QuantitySold
		s.TransactionCount++
	}
	if s.TransactionCount > 0 {
		s.AverageSale = decimal.NewFromInt(s.TotalSales).
			Div(decimal.NewFromInt(int64(s.TransactionCount))).
			Round(2).
			InexactFloat64()
	}
	return s
}

// TopN returns the n buckets with the highest total sales. Ties keep their
// input order. n <= 0 returns every bucket.
func TopN(buckets []Bucket, n int) []Bucket {
	out := make([]Bucket, len(buckets))
	copy(out, buckets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSales > out[j].TotalSales
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ClipToRange drops dated records outside [from, to]. Undated records are kept
// so that summaries can report them as skipped.
func ClipToRange(records []sales.TransactionRecord, from, to time.Time) []sales.TransactionRecord {
	out := make([]sales.TransactionRecord, 0, len(records))
	for _, rec := range records {
		if rec.HasDate() && (rec.Date.Before(from) || rec.Date.After(to)) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// FindBucket returns the bucket with the given key.
func FindBucket(buckets []Bucket, key string) (Bucket, bool) {
	for _, b := range buckets {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}
