package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vytor/chinesetutor/internal/ankiconnect"
	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/generation"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/repository"
)

// SyncService drives whole batches against a deck and journals each run.
type SyncService interface {
	// Reconcile reconciles every note in opts.Deck, up to opts.Limit notes.
	// An empty deck is a normal outcome reported through the result message.
	Reconcile(ctx context.Context, opts models.ReconcileOptions) (*models.BatchResult, error)
	// Insert adds already generated candidates.
	Insert(ctx context.Context, opts models.InsertOptions, candidates []models.FlashcardRecord) (*models.BatchResult, error)
	// GenerateAndInsert runs each prompt through the generator and inserts
	// the resulting candidates. A failed prompt is counted as one error item,
	// placed in prompt order among the insert items.
	GenerateAndInsert(ctx context.Context, opts models.InsertOptions, prompts []string) (*models.BatchResult, error)
}

type syncService struct {
	store      ankiconnect.StoreClient
	generator  generation.Generator
	inserter   InsertService
	reconciler ReconcileService
	runs       repository.RunRepository
}

// NewSyncService creates a new SyncService. runs may be nil to disable the
// journal.
func NewSyncService(store ankiconnect.StoreClient, gen generation.Generator, inserter InsertService, reconciler ReconcileService, runs repository.RunRepository) SyncService {
	return &syncService{
		store:      store,
		generator:  gen,
		inserter:   inserter,
		reconciler: reconciler,
		runs:       runs,
	}
}

// NoCardsMessage is the result message of a reconcile run over an empty deck.
func NoCardsMessage(deck string) string {
	return "No cards found in deck: " + deck
}

func (s *syncService) Reconcile(ctx context.Context, opts models.ReconcileOptions) (*models.BatchResult, error) {
	log := logger.FromContext(ctx).WithPrefix("sync").WithField("deck", opts.Deck)

	if strings.TrimSpace(opts.Deck) == "" {
		return nil, apperrors.NewValidationError("deck", "cannot be empty")
	}
	if opts.Limit < 0 {
		return nil, apperrors.NewValidationError("limit", "cannot be negative")
	}
	if opts.Policy == "" {
		opts.Policy = models.FailSoft
	}

	ids, err := s.store.FindNoteIDs(ctx, models.DeckQuery(opts.Deck))
	if err != nil {
		log.Error("failed to query deck: %v", err)
		res := models.NewBatchResult(models.BatchReconcile, opts.Deck, opts.DryRun).Finish()
		s.journal(ctx, res, err)
		return res, err
	}

	if len(ids) == 0 {
		log.Info("no cards found")
		res := models.NewBatchResult(models.BatchReconcile, opts.Deck, opts.DryRun)
		res.Message = NoCardsMessage(opts.Deck)
		res.Finish()
		s.journal(ctx, res, nil)
		return res, nil
	}

	log.Info("found %d cards in deck", len(ids))
	if opts.Limit > 0 && len(ids) > opts.Limit {
		log.Info("limiting to the first %d card(s)", opts.Limit)
		ids = ids[:opts.Limit]
	}

	notes, err := s.store.NotesInfo(ctx, ids)
	if err != nil {
		log.Error("failed to fetch notes: %v", err)
		res := models.NewBatchResult(models.BatchReconcile, opts.Deck, opts.DryRun).Finish()
		s.journal(ctx, res, err)
		return res, err
	}

	res, err := s.reconciler.Reconcile(ctx, opts, notes)
	s.journal(ctx, res, err)
	return res, err
}

func (s *syncService) Insert(ctx context.Context, opts models.InsertOptions, candidates []models.FlashcardRecord) (*models.BatchResult, error) {
	res, err := s.inserter.Insert(ctx, opts, candidates)
	s.journal(ctx, res, err)
	return res, err
}

func (s *syncService) GenerateAndInsert(ctx context.Context, opts models.InsertOptions, prompts []string) (*models.BatchResult, error) {
	log := logger.FromContext(ctx).WithPrefix("sync").WithField("deck", opts.Deck)

	if s.generator == nil {
		return nil, fmt.Errorf("no generator configured")
	}

	var candidates []models.FlashcardRecord
	var failures []promptFailure
	for i, prompt := range prompts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			log.Error("generation failed for prompt %d of %d: %v", i+1, len(prompts), err)
			failures = append(failures, promptFailure{
				at: len(candidates),
				item: models.ItemOutcome{
					Word:    fmt.Sprintf("prompt %d", i+1),
					State:   models.StateFailed,
					Outcome: models.OutcomeError,
					Error:   err.Error(),
				},
			})
			continue
		}
		log.Info("generated %d card(s) from prompt %d of %d", len(records), i+1, len(prompts))
		candidates = append(candidates, records...)
	}

	res, err := s.inserter.Insert(ctx, opts, candidates)
	if res != nil && len(failures) > 0 {
		mergeFailures(res, failures)
	}
	if err == nil && len(candidates) == 0 && len(failures) > 0 {
		err = failuresError(failures)
	}
	s.journal(ctx, res, err)
	return res, err
}

// promptFailure is a prompt that produced no candidates. at is the number of
// candidates generated by the prompts before it.
type promptFailure struct {
	at   int
	item models.ItemOutcome
}

// mergeFailures counts failures into res and places each one among the insert
// items at its prompt's position.
func mergeFailures(res *models.BatchResult, failures []promptFailure) {
	inserted := res.Items
	merged := make([]models.ItemOutcome, 0, len(inserted)+len(failures))
	next := 0
	for _, f := range failures {
		for next < f.at && next < len(inserted) {
			merged = append(merged, inserted[next])
			next++
		}
		merged = append(merged, f.item)
	}
	merged = append(merged, inserted[next:]...)

	res.Total += len(failures)
	for _, f := range failures {
		res.Record(f.item)
	}
	res.Items = merged
}

func failuresError(failures []promptFailure) error {
	if len(failures) == 1 {
		return fmt.Errorf("generation failed: %s", failures[0].item.Error)
	}
	return fmt.Errorf("generation failed for all %d prompts, first error: %s", len(failures), failures[0].item.Error)
}

// journal records the run. Failures are logged, never returned, so a broken
// journal cannot fail a batch that already touched Anki.
func (s *syncService) journal(ctx context.Context, res *models.BatchResult, runErr error) {
	if res == nil || s.runs == nil {
		return
	}
	log := logger.FromContext(ctx).WithPrefix("sync")

	id := uuid.NewString()
	run := models.RunFromResult(id, res, runErr)
	if err := s.runs.Insert(ctx, run, models.ItemsFromResult(id, res)); err != nil {
		log.Warn("failed to journal run: %v", err)
		return
	}
	res.RunID = id
	log.Debug("journaled run %s with status %s", id, run.Status)
}
