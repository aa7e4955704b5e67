package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/posledger/posledger/internal/accounting"
	jobmetrics "github.com/posledger/posledger/internal/jobs"
	"github.com/posledger/posledger/internal/rbac"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ErrIntegrity marks a snapshot that failed a double-entry check.
var ErrIntegrity = errors.New("jobs: ledger integrity check failed")

// LedgerService is the part of the ledger service the jobs drive.
type LedgerService interface {
	Snapshot(ctx context.Context, principal rbac.Principal) (accounting.Snapshot, error)
	Rebuild(ctx context.Context, principal rbac.Principal) (accounting.Snapshot, error)
}

// LedgerIntegrityJob derives a fresh admin snapshot and verifies it balances.
type LedgerIntegrityJob struct {
	Ledger  LedgerService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob wires dependencies for the integrity handler.
func NewLedgerIntegrityJob(ledger LedgerService, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Ledger: ledger, Logger: logger, Metrics: metrics}
}

// Handle processes integrity tasks. Failed checks return an error so asynq retries.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	metrics := j.metrics()
	tracker := metrics.Track(TaskLedgerIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()

	snap, err := j.Ledger.Rebuild(ctx, rbac.System)
	if err != nil {
		resultErr = err
		logger.Error("derive snapshot", slog.Any("error", err))
		return resultErr
	}

	issues := accounting.CheckIntegrity(snap)
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Check]++
		logger.Error("ledger integrity issue", slog.String("check", issue.Check), slog.String("detail", issue.Detail))
	}
	for check, n := range counts {
		metrics.AddIntegrityIssues(check, n)
	}
	if len(issues) > 0 {
		resultErr = fmt.Errorf("%w: %d issues", ErrIntegrity, len(issues))
		return resultErr
	}

	logger.Info("ledger integrity verified",
		slog.Int("transactions", len(snap.Transactions)),
		slog.Int("rejected", len(snap.Rejected)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrity))
}

func (j *LedgerIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
