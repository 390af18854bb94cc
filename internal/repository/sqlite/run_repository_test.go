package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/repository"
	"github.com/vytor/chinesetutor/internal/repository/sqlite"
	"github.com/vytor/chinesetutor/internal/testutil"
)

type RunRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.RunRepository
}

func (s *RunRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewRunRepository(s.db)
}

func (s *RunRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func newRun(id, deck string, kind models.BatchKind, started time.Time) models.SyncRun {
	return models.SyncRun{
		ID:         id,
		Kind:       kind,
		Deck:       deck,
		Status:     models.RunCompleted,
		Total:      3,
		Updated:    2,
		Skipped:    1,
		StartedAt:  started.UTC().Truncate(time.Second),
		FinishedAt: started.Add(time.Minute).UTC().Truncate(time.Second),
	}
}

func (s *RunRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	run := newRun("run-1", "Chinese::HSK1", models.BatchReconcile, time.Now())
	run.DryRun = true
	run.ErrorMessage = "partial"

	items := []models.SyncRunItem{
		{RunID: "run-1", Position: 0, Word: "你好", NoteID: 11, Outcome: models.OutcomeUpdated, State: models.StateApplied, AudioUpdated: true},
		{RunID: "run-1", Position: 1, Word: "再见", NoteID: 12, Outcome: models.OutcomeSkipped, State: models.StateUpToDate},
	}
	s.Require().NoError(s.repo.Insert(ctx, run, items))

	got, err := s.repo.Get(ctx, "run-1")
	s.Require().NoError(err)
	s.Equal(run.Deck, got.Deck)
	s.Equal(run.Kind, got.Kind)
	s.True(got.DryRun)
	s.Equal(2, got.Updated)
	s.Equal("partial", got.ErrorMessage)
	s.True(run.StartedAt.Equal(got.StartedAt))

	gotItems, err := s.repo.Items(ctx, "run-1")
	s.Require().NoError(err)
	s.Equal(items, gotItems)
}

func (s *RunRepositorySuite) TestGetNotFound() {
	_, err := s.repo.Get(context.Background(), "missing")
	s.ErrorIs(err, sql.ErrNoRows)
}

func (s *RunRepositorySuite) TestInsertIsAtomic() {
	ctx := context.Background()
	run := newRun("run-dup", "Chinese", models.BatchInsert, time.Now())
	items := []models.SyncRunItem{
		{Position: 0, Word: "一", Outcome: models.OutcomeInserted},
		{Position: 0, Word: "二", Outcome: models.OutcomeInserted},
	}

	s.Error(s.repo.Insert(ctx, run, items))

	_, err := s.repo.Get(ctx, "run-dup")
	s.ErrorIs(err, sql.ErrNoRows)
}

func (s *RunRepositorySuite) TestListFilterAndOrder() {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	s.Require().NoError(s.repo.Insert(ctx, newRun("a", "Chinese", models.BatchReconcile, base), nil))
	s.Require().NoError(s.repo.Insert(ctx, newRun("b", "Chinese", models.BatchInsert, base.Add(time.Minute)), nil))
	s.Require().NoError(s.repo.Insert(ctx, newRun("c", "Other", models.BatchReconcile, base.Add(2*time.Minute)), nil))

	all, err := s.repo.List(ctx, models.RunFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	chinese, err := s.repo.List(ctx, models.RunFilter{Deck: "Chinese", Kind: models.BatchReconcile})
	s.Require().NoError(err)
	s.Require().Len(chinese, 1)
	s.Equal("a", chinese[0].ID)

	n, err := s.repo.Count(ctx, models.RunFilter{Deck: "Chinese"})
	s.Require().NoError(err)
	s.Equal(2, n)

	page, err := s.repo.List(ctx, models.RunFilter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("b", page[0].ID)
}

func (s *RunRepositorySuite) TestDeleteBeforeCascades() {
	ctx := context.Background()
	old := newRun("old", "Chinese", models.BatchReconcile, time.Now().Add(-48*time.Hour))
	fresh := newRun("fresh", "Chinese", models.BatchReconcile, time.Now())
	s.Require().NoError(s.repo.Insert(ctx, old, []models.SyncRunItem{{Position: 0, Word: "旧", Outcome: models.OutcomeSkipped}}))
	s.Require().NoError(s.repo.Insert(ctx, fresh, nil))

	n, err := s.repo.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	items, err := s.repo.Items(ctx, "old")
	s.Require().NoError(err)
	s.Empty(items)

	_, err = s.repo.Get(ctx, "fresh")
	s.NoError(err)
}

func TestRunRepositorySuite(t *testing.T) {
	suite.Run(t, new(RunRepositorySuite))
}
