package jobs

import (
	"time"

	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool. Submissions never
// block: a full queue is reported as worker.ErrQueueFull.
type WorkerQueue struct {
	pool   *worker.Pool
	runner worker.BatchRunner
	pruner worker.RunPruner
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, runner worker.BatchRunner, pruner worker.RunPruner) JobQueue {
	return &WorkerQueue{
		pool:   pool,
		runner: runner,
		pruner: pruner,
	}
}

func (q *WorkerQueue) EnqueueReconcile(opts models.ReconcileOptions) (string, error) {
	return q.pool.TrySubmit(&worker.ReconcileJob{
		Runner:  q.runner,
		Options: opts,
	})
}

func (q *WorkerQueue) EnqueueInsert(opts models.InsertOptions, prompts []string) (string, error) {
	return q.pool.TrySubmit(&worker.InsertJob{
		Runner:  q.runner,
		Options: opts,
		Prompts: prompts,
	})
}

func (q *WorkerQueue) EnqueuePrune(olderThan time.Duration) (string, error) {
	return q.pool.TrySubmit(&worker.PruneRunsJob{
		Pruner:    q.pruner,
		OlderThan: olderThan,
	})
}

func (q *WorkerQueue) Status(id string) (worker.JobStatus, bool) {
	return q.pool.Status(id)
}

func (q *WorkerQueue) Busy() bool {
	return q.pool.Busy()
}
