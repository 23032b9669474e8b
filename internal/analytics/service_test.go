package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"

	"github.com/umkm-report/umkm-report/internal/sales"
)

type mockSource struct {
	mu      sync.Mutex
	records []sales.TransactionRecord
	err     error
	calls   int
	queries []sales.Query
}

func (m *mockSource) Fetch(ctx context.Context, q sales.Query) ([]sales.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	var out []sales.TransactionRecord
	for _, r := range m.records {
		if r.HasDate() && !q.Contains(r.Date) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newCachedService(t *testing.T, src sales.Source) (*Service, *CachedSource, *SourceMetrics, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	metrics, err := NewSourceMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	cached := NewCachedSource(src, NewCache(client, time.Minute), metrics, nil)
	svc := NewService(cached)
	svc.WithNow(func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) })
	return svc, cached, metrics, func() {
		_ = client.Close()
		mr.Close()
	}
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, label string) float64 {
	t.Helper()
	var m dto.Metric
	if err := vec.WithLabelValues(label).Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestGetSummaryCachesRecordSets(t *testing.T) {
	src := &mockSource{records: exampleRecords()}
	svc, cached, metrics, cleanup := newCachedService(t, src)
	defer cleanup()

	ctx := context.Background()
	filter := Filter{PeriodType: PeriodYearly, Year: 2024}
	summary, err := svc.GetSummary(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalSales != 350000 || summary.TransactionCount != 3 {
		t.Fatalf("unexpected summary %#v", summary)
	}
	if src.calls != 1 {
		t.Fatalf("expected 1 source call, got %d", src.calls)
	}
	if src.queries[0].Granularity != sales.GranularityFlat {
		t.Fatalf("summary should fetch flat records, got %s", src.queries[0].Granularity)
	}

	if _, err := svc.GetSummary(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected cached result, source called %d times", src.calls)
	}
	if got := counterValue(t, metrics.hits, "flat"); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}

	if err := cached.Cache().Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	src.records = append(src.records, sales.TransactionRecord{Date: day(2024, 3, 3), BusinessName: "Toko A", SaleAmount: 50000})
	summary, err = svc.GetSummary(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalSales != 400000 || src.calls != 2 {
		t.Fatalf("expected refreshed summary after bump, got %#v (calls %d)", summary, src.calls)
	}
}

func TestGetMonthlySeriesTrailingWindow(t *testing.T) {
	src := &mockSource{records: append(exampleRecords(),
		sales.TransactionRecord{Date: day(2023, 7, 1), BusinessName: "Toko A", SaleAmount: 1000},
	)}
	svc, _, _, cleanup := newCachedService(t, src)
	defer cleanup()

	set, err := svc.GetMonthlySeries(context.Background(), Filter{PeriodType: PeriodYearly, Year: 2024})
	if err != nil {
		t.Fatalf("series error: %v", err)
	}
	if len(set.Categories) != WindowMonths || set.Categories[0] != "Jul 2023" || set.Categories[11] != "Jun 2024" {
		t.Fatalf("unexpected categories %v", set.Categories)
	}
	if set.Series[0].Data[0] != 1000 || set.Series[0].Data[6] != 150000 {
		t.Fatalf("unexpected series data %v", set.Series[0].Data)
	}
}

func TestGetDimensionBreakdownUsesDetailGranularity(t *testing.T) {
	src := &mockSource{records: exampleRecords()}
	svc, _, _, cleanup := newCachedService(t, src)
	defer cleanup()

	buckets, err := svc.GetDimensionBreakdown(context.Background(), Filter{PeriodType: PeriodYearly, Year: 2024}, DimensionProduct)
	if err != nil {
		t.Fatalf("breakdown error: %v", err)
	}
	if len(buckets) != 2 || buckets[0].Key != "p1" || buckets[0].TotalSales != 300000 {
		t.Fatalf("unexpected product buckets %#v", buckets)
	}
	if src.queries[0].Granularity != sales.GranularityPerBusiness {
		t.Fatalf("expected per-business fetch, got %s", src.queries[0].Granularity)
	}
}

func TestGetBucketBreakdown(t *testing.T) {
	src := &mockSource{records: exampleRecords()}
	svc, _, _, cleanup := newCachedService(t, src)
	defer cleanup()

	ctx := context.Background()
	filter := Filter{PeriodType: PeriodYearly, Year: 2024}
	b, err := svc.GetBucketBreakdown(ctx, filter, BucketID("Toko A", "2024-01"))
	if err != nil {
		t.Fatalf("breakdown error: %v", err)
	}
	if len(b.LocationBreakdown) != 2 {
		t.Fatalf("expected full breakdown, got %#v", b.LocationBreakdown)
	}
	if _, err := svc.GetBucketBreakdown(ctx, filter, BucketID("Toko Z", "2024-01")); !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("expected ErrBucketNotFound, got %v", err)
	}
}

func TestFetchFailureIsWrapped(t *testing.T) {
	upstream := errors.New("connection refused")
	src := &mockSource{err: upstream}
	svc, _, _, cleanup := newCachedService(t, src)
	defer cleanup()

	_, err := svc.GetSummary(context.Background(), Filter{PeriodType: PeriodYearly, Year: 2024})
	if !errors.Is(err, ErrFetchFailed) || !errors.Is(err, upstream) {
		t.Fatalf("expected wrapped fetch failure, got %v", err)
	}
}

func TestCachedSourceWithoutRedis(t *testing.T) {
	src := &mockSource{records: exampleRecords()}
	cached := NewCachedSource(src, nil, nil, nil)
	recs, err := cached.Fetch(context.Background(), sales.Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected passthrough records, got %d", len(recs))
	}
}
