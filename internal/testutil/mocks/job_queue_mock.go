package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/worker"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueReconcile(opts models.ReconcileOptions) (string, error) {
	args := m.Called(opts)
	return args.String(0), args.Error(1)
}

func (m *MockJobQueue) EnqueueInsert(opts models.InsertOptions, prompts []string) (string, error) {
	args := m.Called(opts, prompts)
	return args.String(0), args.Error(1)
}

func (m *MockJobQueue) EnqueuePrune(olderThan time.Duration) (string, error) {
	args := m.Called(olderThan)
	return args.String(0), args.Error(1)
}

func (m *MockJobQueue) Status(id string) (worker.JobStatus, bool) {
	args := m.Called(id)
	return args.Get(0).(worker.JobStatus), args.Bool(1)
}

func (m *MockJobQueue) Busy() bool {
	args := m.Called()
	return args.Bool(0)
}
