package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/umkm-report/umkm-report/jobs"
)

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Inspector reads queue state. *asynq.Inspector satisfies it.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector Inspector
}

// NewJobsCLI builds the helpers over explicit dependencies.
func NewJobsCLI(client Enqueuer, inspector Inspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// Trigger enqueues a supported job by name. args[0], when present, is the
// warmup year.
func (c *JobsCLI) Trigger(ctx context.Context, name string, args []string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	switch name {
	case jobs.TaskAnalyticsWarmup:
		year := 0
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("jobs cli: invalid year %q", args[0])
			}
			year = v
		}
		var err error
		if task, err = jobs.NewAnalyticsWarmupTask(year); err != nil {
			return nil, err
		}
	case jobs.TaskCacheInvalidate:
		task = jobs.NewCacheInvalidateTask()
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

const usage = `usage: umkm jobs <command>

  trigger analytics:warmup [year]   queue a cache warmup
  trigger analytics:cache:invalidate queue a cache version bump
  stats                             show default queue depth
  scheduled [n]                     list scheduled tasks`

// Run executes a jobs subcommand against Redis at redisAddr.
func Run(ctx context.Context, redisAddr string, args []string, out io.Writer) error {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client := asynq.NewClient(opts)
	defer func() { _ = client.Close() }()
	inspector := asynq.NewInspector(opts)
	defer func() { _ = inspector.Close() }()
	return NewJobsCLI(client, inspector).Exec(ctx, args, out)
}

// Exec dispatches args to a helper and prints the outcome.
func (c *JobsCLI) Exec(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New(usage)
		}
		info, err := c.Trigger(ctx, args[1], args[2:])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "queued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return err
	case "stats":
		stats, err := c.InspectQueue()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return err
	case "scheduled":
		size := 10
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("jobs cli: invalid size %q", args[1])
			}
			size = n
		}
		tasks, err := c.ListScheduled(size)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if _, err := fmt.Fprintf(out, "%s %s next=%s\n", t.ID, t.Type, t.NextProcessAt.UTC().Format("2006-01-02T15:04:05Z")); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.New(usage)
	}
}
