package models

import "time"

// RunStatus is the terminal state of a journaled batch.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
	RunFailed    RunStatus = "failed"
	RunEmpty     RunStatus = "empty"
)

// SyncRun is the journal entry written after every batch.
type SyncRun struct {
	ID           string    `json:"id"`
	Kind         BatchKind `json:"kind"`
	Deck         string    `json:"deck"`
	DryRun       bool      `json:"dry_run"`
	Status       RunStatus `json:"status"`
	Total        int       `json:"total"`
	Inserted     int       `json:"inserted"`
	Duplicates   int       `json:"duplicates"`
	Updated      int       `json:"updated"`
	AudioUpdated int       `json:"audio_updated"`
	Skipped      int       `json:"skipped"`
	Errors       int       `json:"errors"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// SyncRunItem is one journaled item of a run.
type SyncRunItem struct {
	RunID        string    `json:"run_id"`
	Position     int       `json:"position"`
	Word         string    `json:"word"`
	NoteID       int64     `json:"note_id,omitempty"`
	Outcome      Outcome   `json:"outcome"`
	State        NoteState `json:"state,omitempty"`
	AudioUpdated bool      `json:"audio_updated"`
	Error        string    `json:"error,omitempty"`
}

// RunFilter narrows run history queries.
type RunFilter struct {
	Deck   string
	Kind   BatchKind
	Status RunStatus
	Limit  int
	Offset int
}

// RunFromResult builds the journal entry for a finished batch.
func RunFromResult(id string, res *BatchResult, runErr error) SyncRun {
	run := SyncRun{
		ID:           id,
		Kind:         res.Kind,
		Deck:         res.Deck,
		DryRun:       res.DryRun,
		Status:       RunCompleted,
		Total:        res.Total,
		Inserted:     res.Inserted,
		Duplicates:   res.Duplicates,
		Updated:      res.Updated,
		AudioUpdated: res.AudioUpdated,
		Skipped:      res.Skipped,
		Errors:       res.Errors,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
	}
	switch {
	case res.Aborted:
		run.Status = RunAborted
	case runErr != nil:
		run.Status = RunFailed
	case res.Total == 0:
		run.Status = RunEmpty
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	return run
}

// ItemsFromResult flattens a result's outcomes into journal rows.
func ItemsFromResult(id string, res *BatchResult) []SyncRunItem {
	items := make([]SyncRunItem, 0, len(res.Items))
	for i, it := range res.Items {
		items = append(items, SyncRunItem{
			RunID:        id,
			Position:     i,
			Word:         it.Word,
			NoteID:       it.NoteID,
			Outcome:      it.Outcome,
			State:        it.State,
			AudioUpdated: it.AudioUpdated,
			Error:        it.Error,
		})
	}
	return items
}
