package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if err := m.Track("analytics:warmup").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := m.Track("analytics:warmup").End(boom); !errors.Is(err, boom) {
		t.Fatalf("expected error to pass through, got %v", err)
	}

	families := gather(t, reg)
	runs := families["umkm_jobs_total"]
	if runs == nil || len(runs.GetMetric()) != 2 {
		t.Fatalf("expected success and failure series, got %v", runs)
	}
	failures := families["umkm_jobs_failures_total"]
	if failures == nil || failures.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one failure, got %v", failures)
	}
	hist := families["umkm_job_duration_seconds"]
	if hist == nil || hist.GetMetric()[0].GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected two duration samples, got %v", hist)
	}
}

func TestAddWarmedLabelsUnscoped(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddWarmed("", 4)
	m.AddWarmed("7", 0)

	warmed := gather(t, reg)["umkm_cache_warmed_total"]
	if warmed == nil || len(warmed.GetMetric()) != 1 {
		t.Fatalf("expected a single series, got %v", warmed)
	}
	metric := warmed.GetMetric()[0]
	if metric.GetLabel()[0].GetValue() != "all" || metric.GetCounter().GetValue() != 4 {
		t.Fatalf("unexpected warmed series: %v", metric)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddWarmed("x", 1)
	if err := m.Track("noop").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
