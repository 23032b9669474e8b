package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

func samplePayload() DashboardPayload {
	return DashboardPayload{
		PeriodLabel: "Tahun 2024",
		Summary: analytics.Summary{
			TotalSales:        350000,
			TotalExpense:      120000,
			TotalQuantitySold: 12,
			TransactionCount:  3,
			AverageSale:       116666.67,
		},
		Monthly: []analytics.Bucket{
			{Key: "2024-01", Label: "Jan 2024", Period: "2024-01", TotalSales: 150000, TransactionCount: 2},
			{Key: "2024-02", Label: "Feb 2024", Period: "2024-02", TotalSales: 200000, TransactionCount: 1},
		},
		TopProducts: []analytics.Bucket{
			{Key: "p1", Label: "Kopi <Susu>", TotalSales: 200000, TransactionCount: 1},
		},
		Comparison: []analytics.Bucket{
			{
				Key: "Toko A|2024-01", Label: "Toko A", Month: "Jan 2024", Period: "2024-01", Business: "Toko A", TotalSales: 150000,
				LocationBreakdown: []analytics.LocationShare{
					{Key: "l1", Label: "Pasar 1", TotalSales: 100000, TransactionCount: 1, ContributionPercentage: 66.7},
					{Key: "l2", Label: "Pasar 2", TotalSales: 50000, TransactionCount: 1, ContributionPercentage: 33.3},
				},
			},
		},
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteSummaryCSV(buf, samplePayload().Summary, "Tahun 2024"); err != nil {
		t.Fatalf("summary csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(records))
	}
	if records[2][1] != "350000" {
		t.Fatalf("unexpected total sales %q", records[2][1])
	}
	if records[6][1] != "116666.67" {
		t.Fatalf("unexpected average %q", records[6][1])
	}
}

func TestWriteComparisonCSVOneRowPerLocation(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteComparisonCSV(buf, samplePayload().Comparison); err != nil {
		t.Fatalf("comparison csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[1][2] != "Pasar 1" || records[1][7] != "66.70" {
		t.Fatalf("unexpected first row %v", records[1])
	}
}

func TestWriteDashboardCSVSections(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteDashboardCSV(buf, samplePayload()); err != nil {
		t.Fatalf("dashboard csv error: %v", err)
	}
	out := buf.String()
	for _, title := range []string{"Bulanan", "Produk Teratas", "Lokasi Teratas", "Perbandingan Usaha"} {
		if !strings.Contains(out, "\n"+title+"\n") {
			t.Fatalf("missing section %q in %s", title, out)
		}
	}
}

func TestWriteXLSXSheets(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteXLSX(buf, samplePayload()); err != nil {
		t.Fatalf("xlsx error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	want := []string{SheetSummary, SheetMonthly, SheetProducts, SheetLocations, SheetComparison}
	if len(sheets) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("expected sheets %v, got %v", want, sheets)
		}
	}

	value, err := f.GetCellValue(SheetMonthly, "C3")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if value != "200000" {
		t.Fatalf("expected Feb sales 200000, got %q", value)
	}
	rows, err := f.GetRows(SheetComparison)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 || rows[2][2] != "Pasar 2" {
		t.Fatalf("unexpected comparison rows %v", rows)
	}
}

func TestBuildHTMLEscapesLabels(t *testing.T) {
	html := BuildHTML(samplePayload())
	if strings.Contains(html, "Kopi <Susu>") {
		t.Fatalf("expected label to be escaped")
	}
	if !strings.Contains(html, "Kopi &lt;Susu&gt;") {
		t.Fatalf("expected escaped product label in %s", html)
	}
	if !strings.Contains(html, "Perbandingan Usaha") {
		t.Fatalf("expected comparison section")
	}
}

func TestPDFExporterRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("unexpected parse error: %v", err)
			return
		}
		file, _, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing html file: %v", err)
			return
		}
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		if !strings.Contains(string(data), "Tahun 2024") {
			t.Errorf("html missing period label")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	data, err := exporter.RenderDashboard(context.Background(), samplePayload())
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
}

func TestPDFExporterUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	if _, err := exporter.RenderDashboard(context.Background(), samplePayload()); err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
}
