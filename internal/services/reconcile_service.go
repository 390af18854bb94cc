package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vytor/chinesetutor/internal/ankiconnect"
	"github.com/vytor/chinesetutor/internal/generation"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/speech"
)

// ReconcileService brings existing notes up to date with freshly generated
// content.
type ReconcileService interface {
	// Reconcile processes notes in order under opts.Policy. With FailFast the
	// first failing note aborts the batch and the error names its word.
	Reconcile(ctx context.Context, opts models.ReconcileOptions, notes []models.FlashcardRecord) (*models.BatchResult, error)
	// ReconcileNote runs a single note through the state machine.
	ReconcileNote(ctx context.Context, opts models.ReconcileOptions, note models.FlashcardRecord) (models.ItemOutcome, error)
}

type reconcileService struct {
	store     ankiconnect.StoreClient
	generator generation.Generator
	speech    speech.Synthesizer
	prompts   generation.PromptOptions
}

// NewReconcileService creates a new ReconcileService. synth may be nil, in
// which case changed sample sentences keep their existing audio.
func NewReconcileService(store ankiconnect.StoreClient, gen generation.Generator, synth speech.Synthesizer, prompts generation.PromptOptions) ReconcileService {
	return &reconcileService{store: store, generator: gen, speech: synth, prompts: prompts}
}

func (s *reconcileService) Reconcile(ctx context.Context, opts models.ReconcileOptions, notes []models.FlashcardRecord) (*models.BatchResult, error) {
	log := logger.FromContext(ctx).WithPrefix("reconcile").WithField("deck", opts.Deck)

	res := models.NewBatchResult(models.BatchReconcile, opts.Deck, opts.DryRun)
	res.Total = len(notes)

	if opts.DryRun {
		log.Info("dry run: no changes will be made")
	}

	for i, note := range notes {
		if err := ctx.Err(); err != nil {
			res.Aborted = true
			log.Warn("reconcile cancelled after %d of %d note(s)", i, len(notes))
			return res.Finish(), err
		}

		log.Info("processing card %d/%d: %s", i+1, len(notes), note.Word)
		item, err := s.ReconcileNote(ctx, opts, note)
		res.Record(item)
		if err == nil {
			continue
		}

		log.Error("error processing card %s: %v", note.Word, err)
		if opts.Policy == models.FailFast {
			res.Aborted = true
			return res.Finish(), fmt.Errorf("processing card %q: %w", note.Word, err)
		}
	}

	log.Info("reconcile finished: updated=%d audio=%d skipped=%d errors=%d",
		res.Updated, res.AudioUpdated, res.Skipped, res.Errors)
	return res.Finish(), nil
}

func (s *reconcileService) ReconcileNote(ctx context.Context, opts models.ReconcileOptions, note models.FlashcardRecord) (models.ItemOutcome, error) {
	log := logger.FromContext(ctx).WithPrefix("reconcile").WithField("note_id", note.ID())
	item := models.ItemOutcome{Word: note.Word, NoteID: note.ID(), State: models.StateFetched}

	fail := func(err error) (models.ItemOutcome, error) {
		item.State = models.StateFailed
		item.Outcome = models.OutcomeError
		item.Error = err.Error()
		return item, err
	}

	if !note.HasNoteID() {
		return fail(fmt.Errorf("note %q has no id", note.Word))
	}

	fields, err := s.store.NoteFields(ctx, note.ID())
	if err != nil {
		return fail(err)
	}
	item.State = models.StateFieldsChecked

	missing := ankiconnect.MissingFields(fields)
	if len(missing) == 0 && !opts.Force {
		log.Debug("all fields present, skipping")
		item.State = models.StateUpToDate
		item.Outcome = models.OutcomeSkipped
		return item, nil
	}
	if len(missing) > 0 {
		log.Debug("missing fields: %s", strings.Join(missing, ", "))
	}
	item.State = models.StateNeedsRegen

	word := strings.TrimSpace(fields[ankiconnect.FieldChinese])
	if word == "" {
		word = strings.TrimSpace(note.Word)
	}
	if word == "" {
		return fail(fmt.Errorf("note %d has no word to regenerate from", note.ID()))
	}
	if item.Word == "" {
		item.Word = word
	}

	regenerated, err := generation.First(ctx, s.generator, generation.WordPrompt(word, s.prompts))
	if err != nil {
		return fail(err)
	}
	regenerated = regenerated.WithNoteID(note.ID())
	item.State = models.StateRegenerated
	item.Regenerated = &regenerated
	previous := note
	item.Previous = &previous

	oldUsage := fields[ankiconnect.FieldSampleUsage]
	needAudio := regenerated.SampleUsage != oldUsage
	if needAudio {
		item.State = models.StateNeedsAudio
		log.Info("sample usage changed, will regenerate audio: old=%q new=%q", oldUsage, regenerated.SampleUsage)
	} else {
		item.State = models.StateNoAudio
	}
	synthesize := needAudio && s.speech != nil
	if needAudio && s.speech == nil {
		log.Warn("speech synthesis is not configured, keeping existing audio")
	}

	if opts.DryRun {
		log.Info("would update card with:\n%s", regenerated)
		item.State = models.StateApplied
		item.Outcome = models.OutcomeUpdated
		item.AudioUpdated = synthesize
		return item, nil
	}

	var audioPath string
	var audioErr error
	if synthesize {
		audioPath, audioErr = s.speech.Synthesize(ctx, regenerated.SampleUsage)
		if audioErr != nil {
			log.Warn("writing text fields without audio: %v", audioErr)
			audioPath = ""
		}
	}

	if err := s.store.UpdateNote(ctx, note.ID(), regenerated, audioPath); err != nil {
		return fail(err)
	}
	if audioErr != nil {
		// Text fields are written, the audio half is not.
		return fail(audioErr)
	}

	item.State = models.StateApplied
	item.Outcome = models.OutcomeUpdated
	item.AudioUpdated = audioPath != ""
	return item, nil
}
