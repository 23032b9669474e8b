package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/umkm-report/umkm-report/internal/analytics"
	jobmetrics "github.com/umkm-report/umkm-report/internal/jobs"
	"github.com/umkm-report/umkm-report/internal/sales"
)

type recordingSource struct {
	mu      sync.Mutex
	queries []sales.Query
	failFor string
}

func (s *recordingSource) Fetch(_ context.Context, q sales.Query) ([]sales.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.failFor != "" && q.BusinessID == s.failFor {
		return nil, errors.New("upstream down")
	}
	return nil, nil
}

type staticLister struct {
	ids   []string
	since time.Time
}

func (l *staticLister) Businesses(_ context.Context, since time.Time) ([]string, error) {
	l.since = since
	return l.ids, nil
}

func newWarmupJob(src sales.Source, lister BusinessLister) (*AnalyticsWarmupJob, *prometheus.Registry) {
	svc := analytics.NewService(src)
	now := func() time.Time { return time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC) }
	svc.WithNow(now)
	reg := prometheus.NewRegistry()
	job := NewAnalyticsWarmupJob(svc, lister, nil, jobmetrics.NewMetrics(reg))
	job.clock = now
	return job, reg
}

func TestWarmupWarmsEveryScope(t *testing.T) {
	src := &recordingSource{}
	lister := &staticLister{ids: []string{"b1", "", "b2"}}
	job, _ := newWarmupJob(src, lister)

	task, err := NewAnalyticsWarmupTask(0)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !lister.since.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected businesses since start of 2024, got %s", lister.since)
	}
	if len(src.queries) != 12 {
		t.Fatalf("expected 4 queries for each of 3 scopes, got %d", len(src.queries))
	}
	perScope := map[string]map[sales.Granularity]int{}
	for _, q := range src.queries {
		if perScope[q.BusinessID] == nil {
			perScope[q.BusinessID] = map[sales.Granularity]int{}
		}
		perScope[q.BusinessID][q.Granularity]++
	}
	for _, scope := range []string{"", "b1", "b2"} {
		got := perScope[scope]
		if got[sales.GranularityFlat] != 2 || got[sales.GranularityPerBusiness] != 2 {
			t.Fatalf("scope %q: unexpected granularity mix %v", scope, got)
		}
	}
}

func TestWarmupWithoutListerWarmsUnscopedOnly(t *testing.T) {
	src := &recordingSource{}
	job, _ := newWarmupJob(src, nil)

	task, err := NewAnalyticsWarmupTask(2023)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.queries) != 4 {
		t.Fatalf("expected 4 queries, got %d", len(src.queries))
	}
	for _, q := range src.queries {
		if q.BusinessID != "" || q.From.Year() != 2023 {
			t.Fatalf("unexpected query %+v", q)
		}
	}
}

func TestWarmupStopsOnFetchFailure(t *testing.T) {
	src := &recordingSource{failFor: "b1"}
	job, reg := newWarmupJob(src, &staticLister{ids: []string{"b1", "b2"}})

	task, _ := NewAnalyticsWarmupTask(2024)
	err := job.Handle(context.Background(), task)
	if !errors.Is(err, analytics.ErrFetchFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	for _, q := range src.queries {
		if q.BusinessID == "b2" {
			t.Fatal("expected warmup to stop before b2")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var failures float64
	for _, f := range families {
		if f.GetName() == "umkm_jobs_failures_total" {
			failures = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	if failures != 1 {
		t.Fatalf("expected one recorded failure, got %v", failures)
	}
}

func TestWarmupRejectsMalformedPayload(t *testing.T) {
	job, _ := newWarmupJob(&recordingSource{}, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskAnalyticsWarmup, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
