package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

// Sheet names of the workbook produced by WriteXLSX.
const (
	SheetSummary    = "Ringkasan"
	SheetMonthly    = "Bulanan"
	SheetProducts   = "Produk Teratas"
	SheetLocations  = "Lokasi Teratas"
	SheetComparison = "Perbandingan"
)

// WriteXLSX renders the dashboard payload as a workbook with one sheet per dataset.
func WriteXLSX(w io.Writer, payload DashboardPayload) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	summary := [][]any{
		{"Metrik", "Nilai"},
		{"Periode", payload.PeriodLabel},
		{"Total Penjualan", payload.Summary.TotalSales},
		{"Total Pengeluaran", payload.Summary.TotalExpense},
		{"Jumlah Terjual", payload.Summary.TotalQuantitySold},
		{"Jumlah Transaksi", payload.Summary.TransactionCount},
		{"Rata-rata Penjualan", payload.Summary.AverageSale},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	monthly := [][]any{{"Periode", "Bulan", "Penjualan", "Pengeluaran", "Jumlah Terjual", "Transaksi"}}
	for _, b := range payload.Monthly {
		monthly = append(monthly, []any{b.Period, b.Label, b.TotalSales, b.TotalExpense, b.TotalQuantitySold, b.TransactionCount})
	}
	if err := writeSheet(f, SheetMonthly, monthly); err != nil {
		return err
	}

	if err := writeSheet(f, SheetProducts, breakdownRows(payload.TopProducts)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetLocations, breakdownRows(payload.TopLocations)); err != nil {
		return err
	}

	comparison := [][]any{{"Periode", "Usaha", "Lokasi", "Penjualan", "Pengeluaran", "Jumlah Terjual", "Transaksi", "Kontribusi (%)"}}
	for _, b := range payload.Comparison {
		for _, loc := range b.LocationBreakdown {
			comparison = append(comparison, []any{b.Period, b.Business, loc.Label, loc.TotalSales, loc.TotalExpense, loc.TotalQuantitySold, loc.TransactionCount, loc.ContributionPercentage})
		}
	}
	if err := writeSheet(f, SheetComparison, comparison); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func breakdownRows(buckets []analytics.Bucket) [][]any {
	rows := [][]any{{"Kunci", "Nama", "Penjualan", "Pengeluaran", "Jumlah Terjual", "Transaksi"}}
	for _, b := range buckets {
		rows = append(rows, []any{b.Key, b.Label, b.TotalSales, b.TotalExpense, b.TotalQuantitySold, b.TransactionCount})
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
