package worker

import (
	"context"
	"time"

	"github.com/vytor/chinesetutor/internal/models"
)

// BatchRunner runs whole batches against a deck.
// This avoids import cycles by not importing the services package
type BatchRunner interface {
	Reconcile(ctx context.Context, opts models.ReconcileOptions) (*models.BatchResult, error)
	GenerateAndInsert(ctx context.Context, opts models.InsertOptions, prompts []string) (*models.BatchResult, error)
}

// RunPruner deletes journaled runs older than a cutoff.
type RunPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
