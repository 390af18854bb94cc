package ankiconnect

import (
	"context"

	"github.com/vytor/chinesetutor/internal/models"
)

// StoreClient defines the AnkiConnect operations used by the services.
// It allows tests to substitute a mock for the HTTP client.
type StoreClient interface {
	FindNoteIDs(ctx context.Context, query string) ([]int64, error)
	NotesInfo(ctx context.Context, ids []int64) ([]models.FlashcardRecord, error)
	FindNotes(ctx context.Context, query string) ([]models.FlashcardRecord, error)
	NoteFields(ctx context.Context, id int64) (map[string]string, error)
	AddNote(ctx context.Context, deck string, rec models.FlashcardRecord, audioPath string) (int64, error)
	UpdateNote(ctx context.Context, id int64, rec models.FlashcardRecord, audioPath string) error

	DeckNames(ctx context.Context) ([]string, error)
	CreateDeck(ctx context.Context, deck string) error
	EnsureDeck(ctx context.Context, deck string) error

	ModelNames(ctx context.Context) ([]string, error)
	ModelFieldNames(ctx context.Context, model string) ([]string, error)
	CreateModel(ctx context.Context, spec ModelSpec) error
	ModelTemplates(ctx context.Context, model string) (map[string]CardTemplate, error)
	ModelStyling(ctx context.Context, model string) (string, error)
	UpdateModelTemplates(ctx context.Context, model string, templates []CardTemplate) error
	UpdateModelStyling(ctx context.Context, model, css string) error
}

// Ensure Client implements the interface
var _ StoreClient = (*Client)(nil)
