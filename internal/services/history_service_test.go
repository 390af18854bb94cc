package services_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/services"
	"github.com/vytor/chinesetutor/internal/testutil/mocks"
)

func TestHistoryList(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	svc := services.NewHistoryService(runs)
	filter := models.RunFilter{Deck: "D", Limit: 10}

	runs.On("List", mock.Anything, filter).Return([]models.SyncRun{{ID: "a"}, {ID: "b"}}, nil)
	runs.On("Count", mock.Anything, filter).Return(7, nil)

	page, err := svc.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Len(t, page.Runs, 2)
	assert.Equal(t, 7, page.Total)

	_, err = svc.List(context.Background(), models.RunFilter{Limit: -1})
	require.Error(t, err)
}

func TestHistoryGet(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	svc := services.NewHistoryService(runs)

	runs.On("Get", mock.Anything, "a").Return(&models.SyncRun{ID: "a", Status: models.RunCompleted}, nil)
	runs.On("Items", mock.Anything, "a").Return([]models.SyncRunItem{{RunID: "a", Word: "你"}}, nil)
	runs.On("Get", mock.Anything, "missing").Return(nil, sql.ErrNoRows)
	runs.On("Get", mock.Anything, "broken").Return(nil, errors.New("database is locked"))

	detail, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", detail.ID)
	assert.Len(t, detail.Items, 1)

	var appErr *apperrors.AppError
	_, err = svc.Get(context.Background(), "missing")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)

	_, err = svc.Get(context.Background(), "broken")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInternal, appErr.Code)
}

func TestHistoryPrune(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	svc := services.NewHistoryService(runs)

	runs.On("DeleteBefore", mock.Anything, mock.MatchedBy(func(ts time.Time) bool {
		return time.Since(ts) > 23*time.Hour
	})).Return(int64(4), nil)

	n, err := svc.Prune(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = svc.Prune(context.Background(), 0)
	require.Error(t, err)
}
