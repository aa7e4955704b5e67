package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posledger/posledger/internal/accounting"
	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/journals"
	jobmetrics "github.com/posledger/posledger/internal/jobs"
	"github.com/posledger/posledger/internal/rbac"
	_ "github.com/posledger/posledger/testing"
)

type stubLedger struct {
	snap      accounting.Snapshot
	err       error
	rebuilds  []rbac.Principal
	snapshots []rbac.Principal
}

func (s *stubLedger) Snapshot(_ context.Context, p rbac.Principal) (accounting.Snapshot, error) {
	s.snapshots = append(s.snapshots, p)
	return s.snap, s.err
}

func (s *stubLedger) Rebuild(_ context.Context, p rbac.Principal) (accounting.Snapshot, error) {
	s.rebuilds = append(s.rebuilds, p)
	return s.snap, s.err
}

func derivedSnapshot(t *testing.T) accounting.Snapshot {
	t.Helper()
	day := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	profit := decimal.NewFromInt(30)
	snap, err := accounting.Derive(accounting.Inputs{
		Sales: []journals.Sale{
			{ID: 1, Timestamp: day, Total: decimal.NewNullDecimal(decimal.NewFromInt(100)), Profit: &profit, PaymentMethod: "Cash"},
		},
		Expenses: []journals.Expense{{ID: 1, Timestamp: day, Amount: decimal.NewNullDecimal(decimal.NewFromInt(10))}},
		Chart:    accounts.NewChart(nil),
	}, accounting.DefaultOptions())
	require.NoError(t, err)
	return snap
}

func TestLedgerIntegrityPasses(t *testing.T) {
	ledger := &stubLedger{snap: derivedSnapshot(t)}
	job := NewLedgerIntegrityJob(ledger, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewLedgerIntegrityTask("manual")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, ledger.rebuilds, 1)
	assert.True(t, ledger.rebuilds[0].IsAdmin())
}

func TestLedgerIntegrityFailsOnImbalance(t *testing.T) {
	snap := derivedSnapshot(t)
	snap.TrialBalance.TotalDebit = snap.TrialBalance.TotalDebit.Add(decimal.NewFromInt(1))
	job := NewLedgerIntegrityJob(&stubLedger{snap: snap}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, nil))
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestLedgerIntegrityPropagatesDeriveError(t *testing.T) {
	boom := errors.New("sales unavailable")
	job := NewLedgerIntegrityJob(&stubLedger{err: boom}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, nil))
	require.ErrorIs(t, err, boom)
}

func TestLedgerIntegritySkipsBadPayload(t *testing.T) {
	job := NewLedgerIntegrityJob(&stubLedger{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLedgerWarmupLoadsEveryScope(t *testing.T) {
	ledger := &stubLedger{snap: derivedSnapshot(t)}
	job := NewLedgerWarmupJob(ledger, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewLedgerWarmupTask()
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	scopes := make([]string, 0, len(ledger.snapshots))
	for _, p := range ledger.snapshots {
		scopes = append(scopes, p.Scope())
	}
	assert.Equal(t, []string{"admin", "public"}, scopes)
}

func TestLedgerWarmupIgnoresUnknownScope(t *testing.T) {
	ledger := &stubLedger{}
	job := NewLedgerWarmupJob(ledger, nil, nil)

	task, err := NewLedgerWarmupTask("branch-7", "public")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, ledger.snapshots, 1)
	assert.False(t, ledger.snapshots[0].IsAdmin())
}

func TestLedgerWarmupStopsOnError(t *testing.T) {
	ledger := &stubLedger{err: errors.New("redis down")}
	job := NewLedgerWarmupJob(ledger, nil, nil)

	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskLedgerWarmup, nil)))
	assert.Len(t, ledger.snapshots, 1)
}

func TestNewWorkerRegistersCron(t *testing.T) {
	mr := miniredis.RunT(t)
	integrity, err := NewLedgerIntegrityTask("scheduled")
	require.NoError(t, err)

	worker, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Handlers: []TaskHandler{
			{Type: TaskLedgerIntegrity, Handler: NewLedgerIntegrityJob(&stubLedger{}, nil, nil).Handle},
			{Type: "", Handler: nil},
		},
		Cron: []CronRegistration{{Spec: "0 * * * *", Task: integrity}},
	})
	require.NoError(t, err)
	require.NotNil(t, worker.scheduler)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Cron:      []CronRegistration{{Spec: "not a cron", Task: integrity}},
	})
	require.Error(t, err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func serveHealth(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestJobsHealth(t *testing.T) {
	rr := serveHealth(t, NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}}, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "default", body.Queue)
	assert.Equal(t, 4, body.Pending)
	assert.Equal(t, 1, body.Retry)
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(t, NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"failed_today":0}`, rr.Body.String())
}

func TestJobsHealthUnavailable(t *testing.T) {
	rr := serveHealth(t, NewHandler(stubInspector{err: errors.New("dial tcp")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

type stubCleaner struct {
	retention time.Duration
	err       error
}

func (s *stubCleaner) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.retention = olderThan
	return s.err
}

func TestIdempotencyCleanupRetention(t *testing.T) {
	store := &stubCleaner{}
	job := NewIdempotencyCleanupJob(store, nil, nil)

	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, DefaultIdempotencyRetention, store.retention)

	task, err = NewIdempotencyCleanupTask(48)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, store.retention)
}

func TestIdempotencyCleanupError(t *testing.T) {
	job := NewIdempotencyCleanupJob(&stubCleaner{err: errors.New("db down")}, nil, nil)
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	ids   map[string]bool
	types []string
	err   error
}

func (e *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	for _, opt := range opts {
		if opt.Type() != asynq.TaskIDOpt {
			continue
		}
		id := opt.Value().(string)
		if e.ids[id] {
			return nil, asynq.ErrTaskIDConflict
		}
		e.ids[id] = true
	}
	e.types = append(e.types, task.Type())
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (e *recordingEnqueuer) taskIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.ids))
	for id := range e.ids {
		out = append(out, id)
	}
	return out
}

func TestWarmupOnBumpEnqueuesOncePerVersion(t *testing.T) {
	enq := &recordingEnqueuer{ids: map[string]bool{}}
	onBump := (&Client{client: enq}).WarmupOnBump(context.Background(), nil)

	onBump(7)
	onBump(7)
	onBump(8)

	assert.Equal(t, []string{TaskLedgerWarmup, TaskLedgerWarmup}, enq.types)
	assert.ElementsMatch(t, []string{"ledger:warmup:7", "ledger:warmup:8"}, enq.taskIDs())
}

func TestWarmupOnBumpSurvivesQueueErrors(t *testing.T) {
	enq := &recordingEnqueuer{ids: map[string]bool{}, err: errors.New("redis down")}
	onBump := (&Client{client: enq}).WarmupOnBump(context.Background(), nil)

	assert.NotPanics(t, func() { onBump(1) })
	assert.Empty(t, enq.types)
	require.NoError(t, (&Client{client: enq}).Close())
}

func TestCacheBumpSchedulesWarmup(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := accounting.NewCache(rdb, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	enq := &recordingEnqueuer{ids: map[string]bool{}}
	require.NoError(t, cache.ListenForInvalidation(ctx, (&Client{client: enq}).WarmupOnBump(ctx, nil)))

	require.NoError(t, cache.Bump(ctx))
	require.Eventually(t, func() bool {
		return len(enq.taskIDs()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"ledger:warmup:1"}, enq.taskIDs())
}
