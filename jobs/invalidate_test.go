package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	jobmetrics "github.com/umkm-report/umkm-report/internal/jobs"
)

type countingBumper struct {
	calls int
	err   error
}

func (b *countingBumper) Bump(context.Context) error {
	b.calls++
	return b.err
}

type fakeWarmer struct {
	years []int
	err   error
}

func (w *fakeWarmer) EnqueueWarmup(_ context.Context, year int) (*asynq.TaskInfo, error) {
	w.years = append(w.years, year)
	return &asynq.TaskInfo{}, w.err
}

func TestCacheRefresherBumpsThenQueuesWarmup(t *testing.T) {
	bumper := &countingBumper{}
	warmer := &fakeWarmer{err: errors.New("queue full")}
	r := &CacheRefresher{Cache: bumper, Warmer: warmer}

	if err := r.Bump(context.Background()); err != nil {
		t.Fatalf("enqueue failure must not fail the bump: %v", err)
	}
	if bumper.calls != 1 || len(warmer.years) != 1 || warmer.years[0] != 0 {
		t.Fatalf("unexpected calls: bump=%d warm=%v", bumper.calls, warmer.years)
	}
}

func TestCacheRefresherSkipsWarmupWhenBumpFails(t *testing.T) {
	bumper := &countingBumper{err: errors.New("redis down")}
	warmer := &fakeWarmer{}
	r := &CacheRefresher{Cache: bumper, Warmer: warmer}

	if err := r.Bump(context.Background()); err == nil {
		t.Fatal("expected bump error")
	}
	if len(warmer.years) != 0 {
		t.Fatal("expected no warmup after a failed bump")
	}
}

func TestInvalidateJobBumps(t *testing.T) {
	bumper := &countingBumper{}
	job := &InvalidateJob{Cache: bumper, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}
	if err := job.Handle(context.Background(), NewCacheInvalidateTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bumper.calls != 1 {
		t.Fatalf("expected one bump, got %d", bumper.calls)
	}
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestJobsHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{name: "no inspector", status: http.StatusOK},
		{name: "queue info", inspector: fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, status: http.StatusOK, pending: 3},
		{name: "redis down", inspector: fakeInspector{err: errors.New("dial")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, nil).MountRoutes(r)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if tc.status != http.StatusOK {
				return
			}
			var body queueHealth
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Queue != QueueDefault || body.Pending != tc.pending {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}
