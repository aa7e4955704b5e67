package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/posledger/posledger/jobs"
)

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Inspector reads queue state. *asynq.Inspector satisfies it.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// JobsCLI wraps manual management helpers for ledger jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector Inspector
}

// NewJobsCLI builds the helpers over an existing client and inspector.
func NewJobsCLI(client Enqueuer, inspector Inspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// Trigger enqueues a supported job by name with its default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case "integrity", jobs.TaskLedgerIntegrity:
		task, err = jobs.NewLedgerIntegrityTask("manual")
	case "warmup", jobs.TaskLedgerWarmup:
		task, err = jobs.NewLedgerWarmupTask()
	case "idempotency-cleanup", jobs.TaskIdempotencyCleanup:
		task, err = jobs.NewIdempotencyCleanupTask(0)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
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

func newJobsCommand() *cobra.Command {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect ledger background jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", redisAddr, "redis address of the job queue")

	trigger := &cobra.Command{
		Use:       "trigger <integrity|warmup|idempotency-cleanup>",
		Short:     "Enqueue a job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"integrity", "warmup", "idempotency-cleanup"},
		RunE: func(cmd *cobra.Command, args []string) error {
			client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
			defer client.Close()
			return runTrigger(cmd.Context(), cmd.OutOrStdout(), NewJobsCLI(client, nil), args[0])
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
			defer inspector.Close()
			return runStats(cmd.OutOrStdout(), NewJobsCLI(nil, inspector))
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}

func runTrigger(ctx context.Context, out io.Writer, c *JobsCLI, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := c.Trigger(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "enqueued %s as %s on queue %s\n", info.Type, info.ID, info.Queue)
	return nil
}

func runStats(out io.Writer, c *JobsCLI) error {
	stats, err := c.InspectQueue()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return nil
}
