package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/vytor/chinesetutor/internal/ankiconnect"
	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/generation"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/speech"
)

// LesserKnownDays is the review window searched by LesserKnown.
const LesserKnownDays = 7

// ConfirmFunc is asked before an existing note is overwritten.
type ConfirmFunc func(current models.FlashcardRecord) bool

// RegenerateResult is the outcome of regenerating a single note.
type RegenerateResult struct {
	Message   string
	Previous  *models.FlashcardRecord
	Updated   *models.FlashcardRecord
	Cancelled bool
}

// LookupService works on individual notes found by word or review history.
type LookupService interface {
	// Regenerate replaces the content of the one note in deck matching word.
	// A nil confirm regenerates without asking.
	Regenerate(ctx context.Context, deck, word string, confirm ConfirmFunc) (*RegenerateResult, error)
	// LesserKnown returns a random sample of up to count notes rated "again"
	// or "hard" in deck during the last week.
	LesserKnown(ctx context.Context, deck string, count int) ([]models.FlashcardRecord, error)
}

type lookupService struct {
	store     ankiconnect.StoreClient
	generator generation.Generator
	speech    speech.Synthesizer
	prompts   generation.PromptOptions
	shuffle   func(n int) []int
}

// NewLookupService creates a new LookupService
func NewLookupService(store ankiconnect.StoreClient, gen generation.Generator, synth speech.Synthesizer, prompts generation.PromptOptions) LookupService {
	return &lookupService{
		store:     store,
		generator: gen,
		speech:    synth,
		prompts:   prompts,
		shuffle:   rand.Perm,
	}
}

func (s *lookupService) Regenerate(ctx context.Context, deck, word string, confirm ConfirmFunc) (*RegenerateResult, error) {
	log := logger.FromContext(ctx).WithPrefix("lookup").WithField("word", word)

	word = strings.TrimSpace(word)
	if word == "" {
		return nil, apperrors.NewValidationError("word", "cannot be empty")
	}

	notes, err := s.store.FindNotes(ctx, models.WordExistsQuery(deck, word))
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return &RegenerateResult{Message: fmt.Sprintf("Could not find any cards matching '%s', exiting", word)}, nil
	}
	if len(notes) > 1 {
		return nil, apperrors.NewConflictError(fmt.Sprintf("Multiple cards match '%s'. Please be more specific.", word))
	}

	current := notes[0]
	log.Info("found note %d", current.ID())
	if confirm != nil && !confirm(current) {
		return &RegenerateResult{Message: "Operation cancelled by user.", Previous: &current, Cancelled: true}, nil
	}

	regenerated, err := generation.First(ctx, s.generator, generation.WordPrompt(word, s.prompts))
	if err != nil {
		return nil, err
	}
	regenerated = regenerated.WithNoteID(current.ID())

	var audioPath string
	if s.speech != nil {
		audioPath, err = s.speech.Synthesize(ctx, regenerated.SampleUsage)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateNote(ctx, current.ID(), regenerated, audioPath); err != nil {
		return nil, err
	}

	return &RegenerateResult{
		Message:  fmt.Sprintf("Updated! The new flashcard is below:\n%s", regenerated),
		Previous: &current,
		Updated:  &regenerated,
	}, nil
}

func (s *lookupService) LesserKnown(ctx context.Context, deck string, count int) ([]models.FlashcardRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("lookup").WithField("deck", deck)

	if count <= 0 {
		return nil, apperrors.NewValidationError("count", "must be positive")
	}

	query := models.LesserKnownQuery(deck, LesserKnownDays)
	log.Debug("query: %s", query)
	notes, err := s.store.FindNotes(ctx, query)
	if err != nil {
		return nil, err
	}

	n := min(count, len(notes))
	sample := make([]models.FlashcardRecord, 0, n)
	for _, i := range s.shuffle(len(notes))[:n] {
		sample = append(sample, notes[i])
	}
	return sample, nil
}

// FormatLesserKnown renders a LesserKnown sample for display.
func FormatLesserKnown(deck string, notes []models.FlashcardRecord) string {
	if len(notes) == 0 {
		return "No lesser-known cards found in deck: " + deck
	}
	lines := []string{fmt.Sprintf("Lesser-known cards from deck '%s':", deck)}
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", n.Word, n.Pinyin, n.English))
	}
	return strings.Join(lines, "\n")
}
