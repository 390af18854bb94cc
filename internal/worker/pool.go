package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
)

var (
	// ErrQueueFull is returned by TrySubmit when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned when submitting to a stopped pool.
	ErrStopped = errors.New("worker pool is stopped")
)

// historySize bounds the number of finished jobs kept for Status.
const historySize = 100

type Job interface {
	Run(context.Context) error
	Name() string
}

// resultJob is implemented by jobs that produce a batch result.
type resultJob interface {
	Result() *models.BatchResult
}

// backgroundJob is implemented by maintenance jobs that must not make the
// pool look busy to batch callers.
type backgroundJob interface {
	Background() bool
}

func isBackground(job Job) bool {
	b, ok := job.(backgroundJob)
	return ok && b.Background()
}

// JobState is the lifecycle stage of a submitted job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// JobStatus is a snapshot of a submitted job.
type JobStatus struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	State       JobState            `json:"state"`
	Error       string              `json:"error,omitempty"`
	Result      *models.BatchResult `json:"result,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`

	background bool
}

type entry struct {
	id  string
	job Job
}

// Pool runs submitted jobs on a fixed number of workers. Batches that write
// to a single Anki profile should use one worker so that they never overlap.
type Pool struct {
	jobs    chan entry
	wg      sync.WaitGroup
	workers int
	queue   int
	cancel  context.CancelFunc
	log     *logger.Logger

	// sendMu is held shared by senders and exclusively by Stop while it
	// closes jobs.
	sendMu  sync.RWMutex
	stopped atomic.Bool
	done    chan struct{}

	mu       sync.Mutex
	statuses map[string]*JobStatus
	finished []string
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 4
	}
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d workers and queue size %d", workers, queueSize)
	return &Pool{
		jobs:     make(chan entry, queueSize),
		done:     make(chan struct{}),
		workers:  workers,
		queue:    queueSize,
		log:      log,
		statuses: make(map[string]*JobStatus),
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info("starting worker pool with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			workerLog := p.log.WithField("worker_id", id)
			workerLog.Debug("worker started")

			for {
				select {
				case <-ctx.Done():
					workerLog.Debug("worker shutting down (context cancelled)")
					return
				case e, ok := <-p.jobs:
					if !ok {
						workerLog.Debug("worker shutting down (queue closed)")
						return
					}
					p.run(ctx, workerLog, e)
				}
			}
		}(i + 1)
	}
}

func (p *Pool) run(ctx context.Context, workerLog *logger.Logger, e entry) {
	jobLog := workerLog.WithFields(map[string]any{"job": e.job.Name(), "job_id": e.id})
	jobLog.Debug("starting job")
	start := time.Now()
	p.update(e.id, func(s *JobStatus) {
		s.State = JobRunning
		s.StartedAt = &start
	})

	// Create a context with the logger for the job
	jobCtx := logger.NewContext(ctx, jobLog)
	err := e.job.Run(jobCtx)

	if err != nil {
		jobLog.Error("job failed after %v: %v", time.Since(start), err)
	} else {
		jobLog.Info("job completed in %v", time.Since(start))
	}

	end := time.Now()
	p.update(e.id, func(s *JobStatus) {
		s.State = JobSucceeded
		if err != nil {
			s.State = JobFailed
			s.Error = err.Error()
		}
		if rj, ok := e.job.(resultJob); ok {
			s.Result = rj.Result()
		}
		s.FinishedAt = &end
	})
	p.retire(e.id)
}

func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	p.log.Info("stopping worker pool")
	close(p.done)

	p.sendMu.Lock()
	close(p.jobs)
	p.sendMu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

// Submit queues job, blocking while the queue is full, and returns its id.
func (p *Pool) Submit(job Job) (string, error) {
	return p.submit(job, true)
}

// TrySubmit queues job without blocking.
func (p *Pool) TrySubmit(job Job) (string, error) {
	return p.submit(job, false)
}

func (p *Pool) submit(job Job, wait bool) (string, error) {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.stopped.Load() {
		return "", ErrStopped
	}

	id := uuid.NewString()
	p.mu.Lock()
	p.statuses[id] = &JobStatus{
		ID:          id,
		Name:        job.Name(),
		State:       JobQueued,
		SubmittedAt: time.Now(),
		background:  isBackground(job),
	}
	p.mu.Unlock()
	e := entry{id: id, job: job}

	if wait {
		select {
		case p.jobs <- e:
		case <-p.done:
			p.forget(id)
			return "", ErrStopped
		}
	} else {
		select {
		case p.jobs <- e:
		default:
			p.forget(id)
			return "", ErrQueueFull
		}
	}
	p.log.Debug("submitted job %s: %s", id, job.Name())
	return id, nil
}

func (p *Pool) forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.statuses, id)
}

// Status returns a snapshot of the job with id.
func (p *Pool) Status(id string) (JobStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.statuses[id]
	if !ok {
		return JobStatus{}, false
	}
	return *s, true
}

// Busy reports whether a job other than a background job is queued or
// running.
func (p *Pool) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.statuses {
		if s.background {
			continue
		}
		if s.State == JobQueued || s.State == JobRunning {
			return true
		}
	}
	return false
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

func (p *Pool) update(id string, fn func(*JobStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.statuses[id]; ok {
		fn(s)
	}
}

// retire records id as finished and forgets the oldest finished jobs beyond
// historySize.
func (p *Pool) retire(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = append(p.finished, id)
	for len(p.finished) > historySize {
		delete(p.statuses, p.finished[0])
		p.finished = p.finished[1:]
	}
}
