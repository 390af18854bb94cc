package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vytor/chinesetutor/internal/ankiconnect"
	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/speech"
)

// InsertService adds candidate flashcards to a deck, skipping any whose word
// already appears in the deck.
type InsertService interface {
	Insert(ctx context.Context, opts models.InsertOptions, candidates []models.FlashcardRecord) (*models.BatchResult, error)
}

type insertService struct {
	store  ankiconnect.StoreClient
	speech speech.Synthesizer
}

// NewInsertService creates a new InsertService. synth may be nil, in which
// case notes are added without audio.
func NewInsertService(store ankiconnect.StoreClient, synth speech.Synthesizer) InsertService {
	return &insertService{store: store, speech: synth}
}

// Insert classifies every candidate exactly once as inserted, duplicate or
// error. A failed candidate never stops the batch. The returned error is only
// set when the deck could not be prepared or ctx was cancelled.
func (s *insertService) Insert(ctx context.Context, opts models.InsertOptions, candidates []models.FlashcardRecord) (*models.BatchResult, error) {
	log := logger.FromContext(ctx).WithPrefix("insert").WithField("deck", opts.Deck)

	res := models.NewBatchResult(models.BatchInsert, opts.Deck, opts.DryRun)
	res.Total = len(candidates)

	if strings.TrimSpace(opts.Deck) == "" {
		return res.Finish(), apperrors.NewValidationError("deck", "cannot be empty")
	}

	if !opts.DryRun && len(candidates) > 0 {
		if err := s.store.EnsureDeck(ctx, opts.Deck); err != nil {
			log.Error("failed to ensure deck: %v", err)
			return res.Finish(), fmt.Errorf("ensure deck %s: %w", opts.Deck, err)
		}
	}

	// Words added by this batch. A later candidate contained in one of them
	// would match the remote query too, so dry runs classify it the same way.
	var added []string

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			res.Aborted = true
			log.Warn("insert cancelled after %d of %d candidate(s)", i, len(candidates))
			return res.Finish(), err
		}
		res.Record(s.insertOne(ctx, opts, cand, &added))
	}

	log.Info("insert finished: added=%d duplicates=%d errors=%d", res.Inserted, res.Duplicates, res.Errors)
	return res.Finish(), nil
}

func (s *insertService) insertOne(ctx context.Context, opts models.InsertOptions, cand models.FlashcardRecord, added *[]string) models.ItemOutcome {
	log := logger.FromContext(ctx).WithPrefix("insert").WithField("word", cand.Word)
	item := models.ItemOutcome{Word: cand.Word}

	fail := func(err error) models.ItemOutcome {
		log.Error("candidate failed: %v", err)
		item.State = models.StateFailed
		item.Outcome = models.OutcomeError
		item.Error = err.Error()
		return item
	}

	if err := cand.Validate(); err != nil {
		return fail(err)
	}

	for _, w := range *added {
		if strings.Contains(w, cand.Word) {
			log.Debug("duplicate of %s added earlier in this batch", w)
			item.Outcome = models.OutcomeDuplicate
			return item
		}
	}

	ids, err := s.store.FindNoteIDs(ctx, models.WordExistsQuery(opts.Deck, cand.Word))
	if err != nil {
		return fail(err)
	}
	if len(ids) > 0 {
		log.Debug("%d similar note(s) exist", len(ids))
		item.Outcome = models.OutcomeDuplicate
		item.NoteID = ids[0]
		return item
	}

	if opts.DryRun {
		log.Info("would add new card")
		item.Outcome = models.OutcomeInserted
		item.Regenerated = &cand
		item.AudioUpdated = s.speech != nil
		*added = append(*added, cand.Word)
		return item
	}

	var audioPath string
	var audioErr error
	if s.speech != nil {
		audioPath, audioErr = s.speech.Synthesize(ctx, cand.SampleUsage)
		if audioErr != nil {
			log.Warn("adding without audio: %v", audioErr)
			audioPath = ""
		}
	}

	id, err := s.store.AddNote(ctx, opts.Deck, cand, audioPath)
	if err != nil {
		return fail(err)
	}
	*added = append(*added, cand.Word)

	item.NoteID = id
	item.Regenerated = &cand
	item.AudioUpdated = audioPath != ""
	if audioErr != nil {
		// The note exists but its audio does not.
		item.State = models.StateFailed
		item.Outcome = models.OutcomeError
		item.Error = audioErr.Error()
		return item
	}

	log.Info("added note %d", id)
	item.Outcome = models.OutcomeInserted
	return item
}
