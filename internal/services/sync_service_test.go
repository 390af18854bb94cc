package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/services"
	"github.com/vytor/chinesetutor/internal/testutil/mocks"
)

type syncFixture struct {
	store *mocks.MockStoreClient
	gen   *mocks.MockGenerator
	runs  *mocks.MockRunRepository
	svc   services.SyncService
}

func newSyncFixture(withJournal bool) *syncFixture {
	f := &syncFixture{
		store: new(mocks.MockStoreClient),
		gen:   new(mocks.MockGenerator),
		runs:  new(mocks.MockRunRepository),
	}
	inserter := services.NewInsertService(f.store, nil)
	reconciler := services.NewReconcileService(f.store, f.gen, nil, testPrompts)
	if withJournal {
		f.svc = services.NewSyncService(f.store, f.gen, inserter, reconciler, f.runs)
	} else {
		f.svc = services.NewSyncService(f.store, f.gen, inserter, reconciler, nil)
	}
	return f
}

func runWithStatus(status models.RunStatus) any {
	return mock.MatchedBy(func(run models.SyncRun) bool { return run.Status == status })
}

func TestSyncReconcile_EmptyDeck(t *testing.T) {
	f := newSyncFixture(true)
	f.store.On("FindNoteIDs", mock.Anything, `deck:"Empty"`).Return([]int64{}, nil)
	f.runs.On("Insert", mock.Anything, runWithStatus(models.RunEmpty), mock.Anything).Return(nil).Once()

	res, err := f.svc.Reconcile(context.Background(), models.ReconcileOptions{Deck: "Empty"})
	require.NoError(t, err)

	assert.Equal(t, "No cards found in deck: Empty", res.Message)
	assert.Equal(t, "No cards found in deck: Empty", res.Summary())
	assert.Equal(t, 0, res.Total)
	assert.NotEmpty(t, res.RunID)
	f.store.AssertNotCalled(t, "NotesInfo", mock.Anything, mock.Anything)
	f.runs.AssertExpectations(t)
}

func TestSyncReconcile_LimitTruncatesIDs(t *testing.T) {
	f := newSyncFixture(false)
	a, b := card("一", "一个。").WithNoteID(1), card("二", "两个。").WithNoteID(2)
	f.store.On("FindNoteIDs", mock.Anything, `deck:"D"`).Return([]int64{1, 2, 3, 4, 5}, nil)
	f.store.On("NotesInfo", mock.Anything, []int64{1, 2}).Return([]models.FlashcardRecord{a, b}, nil).Once()
	f.store.On("NoteFields", mock.Anything, int64(1)).Return(noteFields(a), nil)
	f.store.On("NoteFields", mock.Anything, int64(2)).Return(noteFields(b), nil)

	res, err := f.svc.Reconcile(context.Background(), models.ReconcileOptions{Deck: "D", Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, res.RunID)
	f.store.AssertExpectations(t)
}

func TestSyncReconcile_RemoteFailureIsJournaled(t *testing.T) {
	f := newSyncFixture(true)
	remoteErr := apperrors.NewRemoteStoreError("findNotes", apperrors.MsgUnreachable, "", errors.New("refused"))
	f.store.On("FindNoteIDs", mock.Anything, `deck:"D"`).Return(nil, remoteErr)
	f.runs.On("Insert", mock.Anything, runWithStatus(models.RunFailed), mock.Anything).Return(nil).Once()

	res, err := f.svc.Reconcile(context.Background(), models.ReconcileOptions{Deck: "D"})

	require.Error(t, err)
	assert.True(t, apperrors.IsRemoteStore(err))
	require.NotNil(t, res)
	f.runs.AssertExpectations(t)
}

func TestSyncReconcile_JournalFailureIsNotFatal(t *testing.T) {
	f := newSyncFixture(true)
	f.store.On("FindNoteIDs", mock.Anything, `deck:"D"`).Return([]int64{}, nil)
	f.runs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	res, err := f.svc.Reconcile(context.Background(), models.ReconcileOptions{Deck: "D"})
	require.NoError(t, err)

	assert.Empty(t, res.RunID)
}

func TestSyncReconcile_Validation(t *testing.T) {
	f := newSyncFixture(false)

	_, err := f.svc.Reconcile(context.Background(), models.ReconcileOptions{Deck: ""})
	require.Error(t, err)

	_, err = f.svc.Reconcile(context.Background(), models.ReconcileOptions{Deck: "D", Limit: -1})
	require.Error(t, err)
	f.store.AssertNotCalled(t, "FindNoteIDs", mock.Anything, mock.Anything)
}

func TestSyncInsert_JournalsItems(t *testing.T) {
	f := newSyncFixture(true)
	rec := card("你好", "你好！")
	f.store.On("EnsureDeck", mock.Anything, "Chinese::Test").Return(nil)
	f.store.On("FindNoteIDs", mock.Anything, mock.Anything).Return([]int64{}, nil)
	f.store.On("AddNote", mock.Anything, "Chinese::Test", rec, "").Return(int64(99), nil)
	f.runs.On("Insert", mock.Anything, runWithStatus(models.RunCompleted),
		mock.MatchedBy(func(items []models.SyncRunItem) bool {
			return len(items) == 1 && items[0].NoteID == 99 && items[0].Outcome == models.OutcomeInserted
		})).Return(nil).Once()

	res, err := f.svc.Insert(context.Background(), models.InsertOptions{Deck: "Chinese::Test"}, []models.FlashcardRecord{rec})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.NotEmpty(t, res.RunID)
	f.runs.AssertExpectations(t)
}

func TestSyncGenerateAndInsert_CountsFailedPrompts(t *testing.T) {
	f := newSyncFixture(false)
	a, b := card("猫", "猫在睡觉。"), card("狗", "狗在跑。")
	f.gen.On("Generate", mock.Anything, "first").Return([]models.FlashcardRecord{a, b}, nil)
	f.gen.On("Generate", mock.Anything, "second").
		Return(nil, apperrors.NewGenerationError("response truncated at 4096 tokens", nil))
	f.store.On("EnsureDeck", mock.Anything, "D").Return(nil)
	f.store.On("FindNoteIDs", mock.Anything, mock.Anything).Return([]int64{}, nil)
	f.store.On("AddNote", mock.Anything, "D", mock.Anything, "").Return(int64(1), nil)

	res, err := f.svc.GenerateAndInsert(context.Background(), models.InsertOptions{Deck: "D"}, []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, res.Total, res.Processed())
}

func TestSyncGenerateAndInsert_FailuresKeepPromptOrder(t *testing.T) {
	f := newSyncFixture(true)
	a, b := card("猫", "猫在睡觉。"), card("狗", "狗在跑。")
	f.gen.On("Generate", mock.Anything, "first").
		Return(nil, apperrors.NewGenerationError("model request failed", nil))
	f.gen.On("Generate", mock.Anything, "second").Return([]models.FlashcardRecord{a, b}, nil)
	f.gen.On("Generate", mock.Anything, "third").
		Return(nil, apperrors.NewGenerationError("response truncated at 4096 tokens", nil))
	f.store.On("EnsureDeck", mock.Anything, "D").Return(nil)
	f.store.On("FindNoteIDs", mock.Anything, mock.Anything).Return([]int64{}, nil)
	f.store.On("AddNote", mock.Anything, "D", mock.Anything, "").Return(int64(1), nil)

	var journaled []models.SyncRunItem
	f.runs.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { journaled = args.Get(2).([]models.SyncRunItem) }).
		Return(nil)

	res, err := f.svc.GenerateAndInsert(context.Background(), models.InsertOptions{Deck: "D"}, []string{"first", "second", "third"})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 2, res.Errors)

	var words []string
	for _, item := range res.Items {
		words = append(words, item.Word)
	}
	assert.Equal(t, []string{"prompt 1", "猫", "狗", "prompt 3"}, words)
	assert.Equal(t, models.StateFailed, res.Items[0].State)

	require.Len(t, journaled, 4)
	for i, item := range journaled {
		assert.Equal(t, i, item.Position)
		assert.Equal(t, words[i], item.Word)
	}
}

func TestSyncGenerateAndInsert_AllPromptsFail(t *testing.T) {
	f := newSyncFixture(false)
	f.gen.On("Generate", mock.Anything, "only").
		Return(nil, apperrors.NewGenerationError("model request failed", errors.New("401")))

	res, err := f.svc.GenerateAndInsert(context.Background(), models.InsertOptions{Deck: "D"}, []string{"only"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model request failed")
	assert.Equal(t, 1, res.Errors)
	f.store.AssertNotCalled(t, "EnsureDeck", mock.Anything, mock.Anything)
}
