package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/repository"
)

// RunDetail is a journaled run with its items.
type RunDetail struct {
	models.SyncRun
	Items []models.SyncRunItem `json:"items"`
}

// RunPage is one page of run history.
type RunPage struct {
	Runs  []models.SyncRun `json:"runs"`
	Total int              `json:"total"`
}

// HistoryService reads and prunes the run journal.
type HistoryService interface {
	List(ctx context.Context, filter models.RunFilter) (*RunPage, error)
	Get(ctx context.Context, id string) (*RunDetail, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

type historyService struct {
	runs repository.RunRepository
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(runs repository.RunRepository) HistoryService {
	return &historyService{runs: runs}
}

func (s *historyService) List(ctx context.Context, filter models.RunFilter) (*RunPage, error) {
	log := logger.FromContext(ctx).WithPrefix("history")

	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperrors.NewValidationError("pagination", "limit and offset cannot be negative")
	}

	runs, err := s.runs.List(ctx, filter)
	if err != nil {
		log.Error("failed to list runs: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	total, err := s.runs.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count runs: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	return &RunPage{Runs: runs, Total: total}, nil
}

func (s *historyService) Get(ctx context.Context, id string) (*RunDetail, error) {
	log := logger.FromContext(ctx).WithPrefix("history")

	run, err := s.runs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("run", id)
		}
		log.Error("failed to get run: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	items, err := s.runs.Items(ctx, id)
	if err != nil {
		log.Error("failed to get run items: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if items == nil {
		items = []models.SyncRunItem{}
	}
	return &RunDetail{SyncRun: *run, Items: items}, nil
}

func (s *historyService) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, apperrors.NewValidationError("older_than", "must be positive")
	}
	n, err := s.runs.DeleteBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	return n, nil
}
