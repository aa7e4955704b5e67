package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/posledger/posledger/internal/jobs"
	"github.com/posledger/posledger/internal/rbac"
)

// warmupPrincipals maps cache scopes to a principal that resolves to them.
var warmupPrincipals = map[string]rbac.Principal{
	rbac.System.Scope():    rbac.System,
	rbac.Anonymous.Scope(): rbac.Anonymous,
}

// LedgerWarmupJob loads the snapshot for each scope so API reads hit the cache.
type LedgerWarmupJob struct {
	Ledger  LedgerService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerWarmupJob wires dependencies for the warm-up handler.
func NewLedgerWarmupJob(ledger LedgerService, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerWarmupJob {
	return &LedgerWarmupJob{Ledger: ledger, Logger: logger, Metrics: metrics}
}

// Handle processes warm-up tasks.
func (j *LedgerWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("ledger warmup: handler not configured")
	}
	var payload LedgerWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	scopes := payload.Scopes
	if len(scopes) == 0 {
		scopes = []string{rbac.System.Scope(), rbac.Anonymous.Scope()}
	}

	tracker := j.metrics().Track(TaskLedgerWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()
	warmed := 0
	for _, scope := range scopes {
		principal, ok := warmupPrincipals[scope]
		if !ok {
			logger.Warn("unknown warmup scope", slog.String("scope", scope))
			continue
		}
		// Bound each scope so one slow source does not hold the worker.
		scopeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Ledger.Snapshot(scopeCtx, principal)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("warm scope", slog.String("scope", scope), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed ledger warmup", slog.Int("scopes", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *LedgerWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerWarmup))
	}
	return slog.Default().With(slog.String("job", TaskLedgerWarmup))
}

func (j *LedgerWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
