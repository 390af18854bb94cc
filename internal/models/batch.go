package models

import (
	"fmt"
	"strings"
	"time"
)

// FailurePolicy decides what a batch does after a per-item error.
type FailurePolicy string

const (
	// FailSoft counts the error and moves on to the next item.
	FailSoft FailurePolicy = "fail-soft"
	// FailFast aborts the batch on the first error.
	FailFast FailurePolicy = "fail-fast"
)

// ParseFailurePolicy accepts "fail-fast"/"fast" and "fail-soft"/"soft".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "soft", string(FailSoft):
		return FailSoft, nil
	case "fast", string(FailFast):
		return FailFast, nil
	}
	return "", fmt.Errorf("unknown failure policy %q", s)
}

// NoteState is a step of the per-note reconciliation state machine.
type NoteState string

const (
	StateFetched       NoteState = "FETCHED"
	StateFieldsChecked NoteState = "FIELDS_CHECKED"
	StateUpToDate      NoteState = "UP_TO_DATE"
	StateNeedsRegen    NoteState = "NEEDS_REGEN"
	StateRegenerated   NoteState = "REGENERATED"
	StateNeedsAudio    NoteState = "NEEDS_AUDIO"
	StateNoAudio       NoteState = "NO_AUDIO"
	StateApplied       NoteState = "APPLIED"
	StateFailed        NoteState = "FAILED"
)

// Outcome is how a single item of a batch ended.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUpdated   Outcome = "updated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeError     Outcome = "error"
)

// ItemOutcome records what happened to one candidate or note.
type ItemOutcome struct {
	Word         string           `json:"word"`
	NoteID       int64            `json:"note_id,omitempty"`
	Outcome      Outcome          `json:"outcome"`
	State        NoteState        `json:"state,omitempty"`
	AudioUpdated bool             `json:"audio_updated,omitempty"`
	Error        string           `json:"error,omitempty"`
	Regenerated  *FlashcardRecord `json:"regenerated,omitempty"`
	Previous     *FlashcardRecord `json:"previous,omitempty"`
}

// BatchKind distinguishes insertion batches from reconciliation batches.
type BatchKind string

const (
	BatchInsert    BatchKind = "insert"
	BatchReconcile BatchKind = "reconcile"
)

// BatchResult accumulates counters for one batch run. It is owned by the
// goroutine processing the batch until it is returned.
type BatchResult struct {
	RunID        string        `json:"run_id,omitempty"`
	Kind         BatchKind     `json:"kind"`
	Deck         string        `json:"deck"`
	DryRun       bool          `json:"dry_run"`
	Total        int           `json:"total"`
	Inserted     int           `json:"inserted"`
	Duplicates   int           `json:"duplicates"`
	Updated      int           `json:"updated"`
	AudioUpdated int           `json:"audio_updated"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	Aborted      bool          `json:"aborted"`
	Message      string        `json:"message,omitempty"`
	Items        []ItemOutcome `json:"items,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// NewBatchResult starts a result for deck.
func NewBatchResult(kind BatchKind, deck string, dryRun bool) *BatchResult {
	return &BatchResult{Kind: kind, Deck: deck, DryRun: dryRun, StartedAt: time.Now()}
}

// Record appends an item and bumps the matching counter.
func (b *BatchResult) Record(item ItemOutcome) {
	switch item.Outcome {
	case OutcomeInserted:
		b.Inserted++
	case OutcomeDuplicate:
		b.Duplicates++
	case OutcomeUpdated:
		b.Updated++
	case OutcomeSkipped:
		b.Skipped++
	case OutcomeError:
		b.Errors++
	}
	if item.AudioUpdated {
		b.AudioUpdated++
	}
	b.Items = append(b.Items, item)
}

// Processed is the number of items that reached a terminal outcome.
func (b *BatchResult) Processed() int {
	return len(b.Items)
}

// Finish stamps the end time. The result must not be mutated afterwards.
func (b *BatchResult) Finish() *BatchResult {
	b.FinishedAt = time.Now()
	return b
}

// Counters returns the result without per-item detail, for comparisons.
func (b BatchResult) Counters() BatchResult {
	b.RunID = ""
	b.Items = nil
	b.StartedAt = time.Time{}
	b.FinishedAt = time.Time{}
	return b
}

// Summary renders the multi-line report printed at the end of a batch.
func (b *BatchResult) Summary() string {
	if b.Message != "" && b.Total == 0 {
		return b.Message
	}

	var lines []string
	switch b.Kind {
	case BatchInsert:
		lines = []string{
			fmt.Sprintf("Card Insert Summary for deck '%s':", b.Deck),
			fmt.Sprintf("Candidates examined: %d", b.Total),
			fmt.Sprintf("Cards added: %d", b.Inserted),
			fmt.Sprintf("Duplicates skipped: %d", b.Duplicates),
			fmt.Sprintf("Errors encountered: %d", b.Errors),
		}
	default:
		lines = []string{
			fmt.Sprintf("Card Update Summary for deck '%s':", b.Deck),
			fmt.Sprintf("Total cards processed: %d", b.Total),
			fmt.Sprintf("Cards updated: %d", b.Updated),
			fmt.Sprintf("Audio files regenerated: %d", b.AudioUpdated),
			fmt.Sprintf("Cards skipped: %d", b.Skipped),
			fmt.Sprintf("Errors encountered: %d", b.Errors),
		}
	}
	if b.DryRun {
		lines = append(lines[:1], append([]string{"DRY RUN - No changes were made"}, lines[1:]...)...)
	}
	if b.Aborted {
		lines = append(lines, fmt.Sprintf("Aborted after %d of %d item(s)", b.Processed(), b.Total))
	}
	return strings.Join(lines, "\n")
}

// ReconcileOptions are the caller-selected knobs of a reconciliation batch.
type ReconcileOptions struct {
	Deck   string        `json:"deck"`
	Limit  int           `json:"limit,omitempty"`
	DryRun bool          `json:"dry_run"`
	Force  bool          `json:"force"`
	Policy FailurePolicy `json:"policy"`
}

// InsertOptions are the caller-selected knobs of an insertion batch.
type InsertOptions struct {
	Deck   string `json:"deck"`
	DryRun bool   `json:"dry_run"`
}
