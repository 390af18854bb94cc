package repository

import (
	"context"
	"time"

	"github.com/vytor/chinesetutor/internal/models"
)

// RunRepository handles the local journal of batch runs
type RunRepository interface {
	// Insert stores a run and its items atomically.
	Insert(ctx context.Context, run models.SyncRun, items []models.SyncRunItem) error
	Get(ctx context.Context, id string) (*models.SyncRun, error)
	List(ctx context.Context, filter models.RunFilter) ([]models.SyncRun, error)
	Count(ctx context.Context, filter models.RunFilter) (int, error)
	Items(ctx context.Context, runID string) ([]models.SyncRunItem, error)
	// DeleteBefore removes runs that started before t and returns how many.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
