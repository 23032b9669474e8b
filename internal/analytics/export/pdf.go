package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/umkm-report/umkm-report/internal/analytics"
	"github.com/umkm-report/umkm-report/internal/analytics/chart"
)

// DashboardPayload aggregates the dashboard datasets for CSV, XLSX and PDF exports.
type DashboardPayload struct {
	PeriodLabel  string
	GeneratedAt  time.Time
	Summary      analytics.Summary
	Monthly      []analytics.Bucket
	TopProducts  []analytics.Bucket
	TopLocations []analytics.Bucket
	Comparison   []analytics.Bucket
	// Chart is an optional pre-rendered SVG placed above the tables.
	Chart template.HTML
}

// PDFExporter wraps Gotenberg interactions for dashboard exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderDashboard sends HTML content to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, BuildHTML(payload)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500ms"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}
	return io.ReadAll(resp.Body)
}

// BuildHTML renders the printable dashboard document.
func BuildHTML(payload DashboardPayload) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .label{text-align:left;}")
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h1>Laporan Penjualan UMKM – %s</h1>", template.HTMLEscapeString(payload.PeriodLabel))
	if !payload.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "<p>Dibuat %s</p>", payload.GeneratedAt.Format("02/01/2006 15:04"))
	}
	if payload.Chart != "" {
		b.WriteString("<section>")
		b.WriteString(string(payload.Chart))
		b.WriteString("</section>")
	}

	b.WriteString("<section><h2>Ringkasan</h2><table><tbody>")
	writeMetricRow(&b, "Total Penjualan", chart.FormatCurrency(payload.Summary.TotalSales))
	writeMetricRow(&b, "Total Pengeluaran", chart.FormatCurrency(payload.Summary.TotalExpense))
	writeMetricRow(&b, "Jumlah Terjual", strconv.FormatInt(payload.Summary.TotalQuantitySold, 10))
	writeMetricRow(&b, "Jumlah Transaksi", strconv.Itoa(payload.Summary.TransactionCount))
	writeMetricRow(&b, "Rata-rata Penjualan", chart.FormatCurrency(int64(payload.Summary.AverageSale+0.5)))
	b.WriteString("</tbody></table></section>")

	if len(payload.Monthly) > 0 {
		b.WriteString("<section><h2>Penjualan Bulanan</h2><table><thead><tr><th>Bulan</th><th>Penjualan</th><th>Pengeluaran</th><th>Transaksi</th></tr></thead><tbody>")
		for _, m := range payload.Monthly {
			writeCells(&b, m.Label, chart.FormatCurrency(m.TotalSales), chart.FormatCurrency(m.TotalExpense), strconv.Itoa(m.TransactionCount))
		}
		b.WriteString("</tbody></table></section>")
	}

	writeBreakdownSection(&b, "Produk Teratas", payload.TopProducts)
	writeBreakdownSection(&b, "Lokasi Teratas", payload.TopLocations)

	if len(payload.Comparison) > 0 {
		b.WriteString("<section><h2>Perbandingan Usaha</h2><table><thead><tr><th>Bulan</th><th>Usaha</th><th>Lokasi</th><th>Penjualan</th><th>Kontribusi</th></tr></thead><tbody>")
		for _, bucket := range payload.Comparison {
			for _, loc := range bucket.LocationBreakdown {
				writeCells(&b, bucket.Month, bucket.Business, loc.Label,
					chart.FormatCurrency(loc.TotalSales), chart.FormatPercent(loc.ContributionPercentage))
			}
		}
		b.WriteString("</tbody></table></section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeBreakdownSection(b *strings.Builder, title string, buckets []analytics.Bucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(b, "<section><h2>%s</h2><table><thead><tr><th>Nama</th><th>Penjualan</th><th>Jumlah Terjual</th><th>Transaksi</th></tr></thead><tbody>", template.HTMLEscapeString(title))
	for _, bucket := range buckets {
		writeCells(b, bucket.Label, chart.FormatCurrency(bucket.TotalSales),
			strconv.FormatInt(bucket.TotalQuantitySold, 10), strconv.Itoa(bucket.TransactionCount))
	}
	b.WriteString("</tbody></table></section>")
}

func writeMetricRow(b *strings.Builder, label, value string) {
	writeCells(b, label, value)
}

// writeCells writes one table row; the first cell is left aligned.
func writeCells(b *strings.Builder, cells ...string) {
	b.WriteString("<tr>")
	for i, cell := range cells {
		if i == 0 {
			b.WriteString("<td class=\"label\">")
		} else {
			b.WriteString("<td>")
		}
		b.WriteString(template.HTMLEscapeString(cell))
		b.WriteString("</td>")
	}
	b.WriteString("</tr>")
}
