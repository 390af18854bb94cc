package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chinesetutor/internal/ankiconnect"
	"github.com/vytor/chinesetutor/internal/models"
)

// MockStoreClient is a mock implementation of ankiconnect.StoreClient
type MockStoreClient struct {
	mock.Mock
}

func (m *MockStoreClient) FindNoteIDs(ctx context.Context, query string) ([]int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockStoreClient) NotesInfo(ctx context.Context, ids []int64) ([]models.FlashcardRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlashcardRecord), args.Error(1)
}

func (m *MockStoreClient) FindNotes(ctx context.Context, query string) ([]models.FlashcardRecord, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlashcardRecord), args.Error(1)
}

func (m *MockStoreClient) NoteFields(ctx context.Context, id int64) (map[string]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockStoreClient) AddNote(ctx context.Context, deck string, rec models.FlashcardRecord, audioPath string) (int64, error) {
	args := m.Called(ctx, deck, rec, audioPath)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStoreClient) UpdateNote(ctx context.Context, id int64, rec models.FlashcardRecord, audioPath string) error {
	args := m.Called(ctx, id, rec, audioPath)
	return args.Error(0)
}

func (m *MockStoreClient) DeckNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStoreClient) CreateDeck(ctx context.Context, deck string) error {
	args := m.Called(ctx, deck)
	return args.Error(0)
}

func (m *MockStoreClient) EnsureDeck(ctx context.Context, deck string) error {
	args := m.Called(ctx, deck)
	return args.Error(0)
}

func (m *MockStoreClient) ModelNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStoreClient) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStoreClient) CreateModel(ctx context.Context, spec ankiconnect.ModelSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

func (m *MockStoreClient) ModelTemplates(ctx context.Context, model string) (map[string]ankiconnect.CardTemplate, error) {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]ankiconnect.CardTemplate), args.Error(1)
}

func (m *MockStoreClient) ModelStyling(ctx context.Context, model string) (string, error) {
	args := m.Called(ctx, model)
	return args.String(0), args.Error(1)
}

func (m *MockStoreClient) UpdateModelTemplates(ctx context.Context, model string, templates []ankiconnect.CardTemplate) error {
	args := m.Called(ctx, model, templates)
	return args.Error(0)
}

func (m *MockStoreClient) UpdateModelStyling(ctx context.Context, model, css string) error {
	args := m.Called(ctx, model, css)
	return args.Error(0)
}

var _ ankiconnect.StoreClient = (*MockStoreClient)(nil)
