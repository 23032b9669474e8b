package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

// WriteSummaryCSV serialises the summary totals as metric/value rows.
func WriteSummaryCSV(w io.Writer, summary analytics.Summary, period string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metrik", "Nilai"}); err != nil {
		return err
	}
	records := [][]string{
		{"Periode", period},
		{"Total Penjualan", formatInt(summary.TotalSales)},
		{"Total Pengeluaran", formatInt(summary.TotalExpense)},
		{"Jumlah Terjual", formatInt(summary.TotalQuantitySold)},
		{"Jumlah Transaksi", strconv.Itoa(summary.TransactionCount)},
		{"Rata-rata Penjualan", formatFloat(summary.AverageSale)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMonthlyCSV emits the dense monthly buckets.
func WriteMonthlyCSV(w io.Writer, buckets []analytics.Bucket) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Periode", "Bulan", "Penjualan", "Pengeluaran", "Jumlah Terjual", "Transaksi"}); err != nil {
		return err
	}
	for _, bucket := range buckets {
		if err := writer.Write([]string{
			bucket.Period,
			bucket.Label,
			formatInt(bucket.TotalSales),
			formatInt(bucket.TotalExpense),
			formatInt(bucket.TotalQuantitySold),
			strconv.Itoa(bucket.TransactionCount),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBreakdownCSV prints dimension buckets (products, locations, businesses).
func WriteBreakdownCSV(w io.Writer, buckets []analytics.Bucket) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Kunci", "Nama", "Penjualan", "Pengeluaran", "Jumlah Terjual", "Transaksi"}); err != nil {
		return err
	}
	for _, bucket := range buckets {
		if err := writer.Write([]string{
			bucket.Key,
			bucket.Label,
			formatInt(bucket.TotalSales),
			formatInt(bucket.TotalExpense),
			formatInt(bucket.TotalQuantitySold),
			strconv.Itoa(bucket.TransactionCount),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteComparisonCSV flattens business/month buckets into one row per location
// so the contribution percentages survive the export.
func WriteComparisonCSV(w io.Writer, buckets []analytics.Bucket) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Periode", "Usaha", "Lokasi", "Penjualan", "Pengeluaran", "Jumlah Terjual", "Transaksi", "Kontribusi (%)"}); err != nil {
		return err
	}
	for _, bucket := range buckets {
		for _, loc := range bucket.LocationBreakdown {
			if err := writer.Write([]string{
				bucket.Period,
				bucket.Business,
				loc.Label,
				formatInt(loc.TotalSales),
				formatInt(loc.TotalExpense),
				formatInt(loc.TotalQuantitySold),
				strconv.Itoa(loc.TransactionCount),
				formatFloat(loc.ContributionPercentage),
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDashboardCSV writes every section of the payload, separated by a blank
// record and a section title.
func WriteDashboardCSV(w io.Writer, payload DashboardPayload) error {
	if err := WriteSummaryCSV(w, payload.Summary, payload.PeriodLabel); err != nil {
		return err
	}
	sections := []struct {
		title string
		write func(io.Writer) error
	}{
		{"Bulanan", func(w io.Writer) error { return WriteMonthlyCSV(w, payload.Monthly) }},
		{"Produk Teratas", func(w io.Writer) error { return WriteBreakdownCSV(w, payload.TopProducts) }},
		{"Lokasi Teratas", func(w io.Writer) error { return WriteBreakdownCSV(w, payload.TopLocations) }},
		{"Perbandingan Usaha", func(w io.Writer) error { return WriteComparisonCSV(w, payload.Comparison) }},
	}
	for _, section := range sections {
		if _, err := io.WriteString(w, "\n"+section.title+"\n"); err != nil {
			return err
		}
		if err := section.write(w); err != nil {
			return err
		}
	}
	return nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
