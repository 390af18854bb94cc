package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/worker"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func waitForState(t *testing.T, pool *worker.Pool, id string, state worker.JobState) worker.JobStatus {
	t.Helper()
	var status worker.JobStatus
	require.Eventually(t, func() bool {
		var ok bool
		status, ok = pool.Status(id)
		return ok && status.State == state
	}, 2*time.Second, 5*time.Millisecond)
	return status
}

func TestPool_RunsJobsAndTracksStatus(t *testing.T) {
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	defer pool.Stop()

	okID, err := pool.Submit(&funcJob{name: "ok", fn: func(context.Context) error { return nil }})
	require.NoError(t, err)
	failID, err := pool.Submit(&funcJob{name: "fail", fn: func(context.Context) error { return errors.New("boom") }})
	require.NoError(t, err)

	ok := waitForState(t, pool, okID, worker.JobSucceeded)
	assert.Equal(t, "ok", ok.Name)
	assert.NotNil(t, ok.StartedAt)
	assert.NotNil(t, ok.FinishedAt)

	failed := waitForState(t, pool, failID, worker.JobFailed)
	assert.Equal(t, "boom", failed.Error)

	_, found := pool.Status("unknown")
	assert.False(t, found)
}

func TestPool_SingleWorkerSerializesJobs(t *testing.T) {
	pool := worker.NewPool(1, 8)
	pool.Start(context.Background())
	defer pool.Stop()

	var running, overlap int32
	var ids []string
	for i := 0; i < 4; i++ {
		id, err := pool.Submit(&funcJob{name: "batch", fn: func(context.Context) error {
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for _, id := range ids {
		waitForState(t, pool, id, worker.JobSucceeded)
	}
	assert.Zero(t, atomic.LoadInt32(&overlap))
	assert.False(t, pool.Busy())
}

func TestPool_TrySubmitWhenFull(t *testing.T) {
	pool := worker.NewPool(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	pool.Start(context.Background())
	defer pool.Stop()
	defer close(release)

	_, err := pool.TrySubmit(&funcJob{name: "blocker", fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}})
	require.NoError(t, err)
	<-started

	_, err = pool.TrySubmit(&funcJob{name: "queued", fn: func(context.Context) error { return nil }})
	require.NoError(t, err)

	_, err = pool.TrySubmit(&funcJob{name: "rejected", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, worker.ErrQueueFull)
	assert.True(t, pool.Busy())
	assert.Equal(t, 1, pool.QueueSize())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()

	_, err := pool.Submit(&funcJob{name: "late", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, worker.ErrStopped)
}

func TestPool_StopCancelsRunningJob(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())
	started := make(chan struct{})

	id, err := pool.Submit(&funcJob{name: "long", fn: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}})
	require.NoError(t, err)
	<-started
	pool.Stop()

	status, ok := pool.Status(id)
	require.True(t, ok)
	assert.Equal(t, worker.JobFailed, status.State)
	assert.Equal(t, context.Canceled.Error(), status.Error)
}

type fakeRunner struct {
	reconciled []models.ReconcileOptions
	prompts    []string
}

func (f *fakeRunner) Reconcile(_ context.Context, opts models.ReconcileOptions) (*models.BatchResult, error) {
	f.reconciled = append(f.reconciled, opts)
	res := models.NewBatchResult(models.BatchReconcile, opts.Deck, opts.DryRun)
	res.Total, res.Updated = 2, 2
	return res.Finish(), nil
}

func (f *fakeRunner) GenerateAndInsert(_ context.Context, opts models.InsertOptions, prompts []string) (*models.BatchResult, error) {
	f.prompts = append(f.prompts, prompts...)
	res := models.NewBatchResult(models.BatchInsert, opts.Deck, opts.DryRun)
	return res.Finish(), errors.New("generation failed")
}

func TestBatchJobs_ExposeResults(t *testing.T) {
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	defer pool.Stop()
	runner := &fakeRunner{}

	rid, err := pool.Submit(&worker.ReconcileJob{Runner: runner, Options: models.ReconcileOptions{Deck: "D", DryRun: true}})
	require.NoError(t, err)
	iid, err := pool.Submit(&worker.InsertJob{Runner: runner, Options: models.InsertOptions{Deck: "D"}, Prompts: []string{"p1"}})
	require.NoError(t, err)

	rs := waitForState(t, pool, rid, worker.JobSucceeded)
	require.NotNil(t, rs.Result)
	assert.Equal(t, 2, rs.Result.Updated)
	assert.True(t, rs.Result.DryRun)

	is := waitForState(t, pool, iid, worker.JobFailed)
	require.NotNil(t, is.Result)
	assert.Equal(t, models.BatchInsert, is.Result.Kind)
	assert.Equal(t, []string{"p1"}, runner.prompts)
}

type countingPruner struct{ calls atomic.Int32 }

func (p *countingPruner) Prune(context.Context, time.Duration) (int64, error) {
	p.calls.Add(1)
	return 0, nil
}

func TestSchedulePrune(t *testing.T) {
	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	pruner := &countingPruner{}
	worker.SchedulePrune(ctx, pool, pruner, time.Hour, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return pruner.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

type blockingPruner struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingPruner) Prune(ctx context.Context, _ time.Duration) (int64, error) {
	close(p.started)
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	return 0, nil
}

func TestPool_BusyIgnoresPruning(t *testing.T) {
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	defer pool.Stop()

	pruner := &blockingPruner{started: make(chan struct{}), release: make(chan struct{})}
	pruneID, err := pool.Submit(&worker.PruneRunsJob{Pruner: pruner, OlderThan: time.Hour})
	require.NoError(t, err)
	<-pruner.started

	assert.False(t, pool.Busy(), "a running prune must not block batches")

	_, err = pool.Submit(&worker.ReconcileJob{Runner: &fakeRunner{}, Options: models.ReconcileOptions{Deck: "D"}})
	require.NoError(t, err)
	assert.True(t, pool.Busy(), "a queued batch makes the pool busy")

	close(pruner.release)
	waitForState(t, pool, pruneID, worker.JobSucceeded)
}
