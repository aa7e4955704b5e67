package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity re-derives the ledger and checks double-entry identities.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskLedgerWarmup pre-populates the snapshot cache.
	TaskLedgerWarmup = "ledger:warmup"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency-cleanup"
)

// LedgerIntegrityPayload records why an integrity check was requested.
type LedgerIntegrityPayload struct {
	Reason string `json:"reason"`
}

// LedgerWarmupPayload lists the cache scopes to warm. Empty means all.
type LedgerWarmupPayload struct {
	Scopes []string `json:"scopes,omitempty"`
}

// NewLedgerIntegrityTask builds an integrity task.
func NewLedgerIntegrityTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerIntegrityPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// NewLedgerWarmupTask builds a warm-up task for scopes.
func NewLedgerWarmupTask(scopes ...string) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerWarmupPayload{Scopes: scopes})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerWarmup, data), nil
}

// IdempotencyCleanupPayload overrides the retention window.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewIdempotencyCleanupTask builds a cleanup task. Zero keeps the default retention.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
