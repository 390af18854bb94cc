package generation

import (
	"context"

	apperrors "github.com/vytor/chinesetutor/internal/errors"

	"github.com/vytor/chinesetutor/internal/models"
)

// Generator turns a prompt into candidate flashcards.
//
// Implementations return a non-empty slice whose first element is the primary
// result, or a *errors.GenerationError. Calls are not retried, and identical
// prompts are not guaranteed to produce identical records.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]models.FlashcardRecord, error)
}

// First returns the primary record produced for prompt.
func First(ctx context.Context, g Generator, prompt string) (models.FlashcardRecord, error) {
	records, err := g.Generate(ctx, prompt)
	if err != nil {
		return models.FlashcardRecord{}, err
	}
	if len(records) == 0 {
		return models.FlashcardRecord{}, apperrors.NewGenerationError("no flashcards generated", nil)
	}
	return records[0], nil
}
