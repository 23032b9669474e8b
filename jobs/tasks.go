package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalyticsWarmup pre-loads the analytics record cache.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskCacheInvalidate bumps the analytics cache version.
	TaskCacheInvalidate = "analytics:cache:invalidate"
)

// WarmupPayload selects the year to warm. Zero means the current year.
type WarmupPayload struct {
	Year int `json:"year,omitempty"`
}

// NewAnalyticsWarmupTask constructs an Asynq task for the warmup job.
func NewAnalyticsWarmupTask(year int) (*asynq.Task, error) {
	data, err := json.Marshal(WarmupPayload{Year: year})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}

// NewCacheInvalidateTask constructs an Asynq task that bumps the cache version.
func NewCacheInvalidateTask() *asynq.Task {
	return asynq.NewTask(TaskCacheInvalidate, nil)
}
