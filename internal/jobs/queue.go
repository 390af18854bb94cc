package jobs

import (
	"time"

	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/worker"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueReconcile(opts models.ReconcileOptions) (string, error)
	EnqueueInsert(opts models.InsertOptions, prompts []string) (string, error)
	EnqueuePrune(olderThan time.Duration) (string, error)
	Status(id string) (worker.JobStatus, bool)
	Busy() bool
}
