package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chinesetutor/internal/models"
)

// MockRunRepository is a mock implementation of repository.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Insert(ctx context.Context, run models.SyncRun, items []models.SyncRunItem) error {
	args := m.Called(ctx, run, items)
	return args.Error(0)
}

func (m *MockRunRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncRun), args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.SyncRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncRun), args.Error(1)
}

func (m *MockRunRepository) Count(ctx context.Context, filter models.RunFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockRunRepository) Items(ctx context.Context, runID string) ([]models.SyncRunItem, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncRunItem), args.Error(1)
}

func (m *MockRunRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}
