package worker

import (
	"context"
	"time"

	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
)

// ReconcileJob reconciles a deck in the background.
type ReconcileJob struct {
	Runner  BatchRunner
	Options models.ReconcileOptions

	result *models.BatchResult
}

func (j *ReconcileJob) Name() string { return "reconcile" }

func (j *ReconcileJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("deck", j.Options.Deck)
	log.Info("starting background reconcile (dry_run=%v, force=%v, policy=%s)",
		j.Options.DryRun, j.Options.Force, j.Options.Policy)

	res, err := j.Runner.Reconcile(ctx, j.Options)
	j.result = res
	if res != nil {
		log.Info("reconcile result: %s", res.Summary())
	}
	return err
}

func (j *ReconcileJob) Result() *models.BatchResult { return j.result }

// InsertJob generates cards from prompts and inserts them in the background.
type InsertJob struct {
	Runner  BatchRunner
	Options models.InsertOptions
	Prompts []string

	result *models.BatchResult
}

func (j *InsertJob) Name() string { return "insert" }

func (j *InsertJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("deck", j.Options.Deck)
	log.Info("starting background insert of %d prompt(s)", len(j.Prompts))

	res, err := j.Runner.GenerateAndInsert(ctx, j.Options, j.Prompts)
	j.result = res
	if res != nil {
		log.Info("insert result: %s", res.Summary())
	}
	return err
}

func (j *InsertJob) Result() *models.BatchResult { return j.result }

// PruneRunsJob removes journaled runs older than OlderThan.
type PruneRunsJob struct {
	Pruner    RunPruner
	OlderThan time.Duration
}

func (j *PruneRunsJob) Name() string { return "prune_runs" }

// Background marks pruning as maintenance so it never blocks batch submission.
func (j *PruneRunsJob) Background() bool { return true }

func (j *PruneRunsJob) Run(ctx context.Context) error {
	n, err := j.Pruner.Prune(ctx, j.OlderThan)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("pruned %d run(s) older than %v", n, j.OlderThan)
	return nil
}

// SchedulePrune submits a PruneRunsJob immediately and then every interval
// until ctx is done. A full queue skips that tick.
func SchedulePrune(ctx context.Context, pool *Pool, pruner RunPruner, olderThan, interval time.Duration) {
	log := logger.FromContext(ctx).WithPrefix("scheduler")
	submit := func() {
		if _, err := pool.TrySubmit(&PruneRunsJob{Pruner: pruner, OlderThan: olderThan}); err != nil {
			log.Warn("skipping run pruning: %v", err)
		}
	}

	go func() {
		submit()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				submit()
			}
		}
	}()
}
