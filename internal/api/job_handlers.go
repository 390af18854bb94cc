package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/generation"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
)

type reconcileRequest struct {
	Deck   string `json:"deck"`
	Limit  int    `json:"limit" validate:"min=0"`
	DryRun bool   `json:"dry_run"`
	Force  bool   `json:"force"`
	Policy string `json:"policy" validate:"omitempty,oneof=fail-fast fail-soft"`
}

type insertRequest struct {
	Deck   string   `json:"deck"`
	DryRun bool     `json:"dry_run"`
	Words  []string `json:"words" validate:"dive,required"`
	Text   string   `json:"text"`
	Mode   string   `json:"mode" validate:"omitempty,oneof=paragraph conversation"`
}

func writeAccepted(w http.ResponseWriter, r *http.Request, jobID string) {
	w.Header().Set("Location", "/api/jobs/"+jobID)
	writeJSON(w, r, http.StatusAccepted, map[string]string{
		"job_id":     jobID,
		"status_url": "/api/jobs/" + jobID,
	})
}

func (s *Server) deck(requested string) (string, error) {
	deck := strings.TrimSpace(requested)
	if deck == "" {
		deck = s.DefaultDeck
	}
	if deck == "" {
		return "", errors.NewValidationError("deck", "is required when no default deck is configured")
	}
	return deck, nil
}

// rejectWhenBusy answers 409 while another batch is queued or running.
func (s *Server) rejectWhenBusy(w http.ResponseWriter, r *http.Request) bool {
	if !s.Queue.Busy() {
		return false
	}
	handleError(w, r, errors.NewConflictError("a batch is already queued or running"))
	return true
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req reconcileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.deck(req.Deck)
	if err != nil {
		handleError(w, r, err)
		return
	}
	policy := models.FailSoft
	if req.Policy != "" {
		if policy, err = models.ParseFailurePolicy(req.Policy); err != nil {
			handleError(w, r, errors.NewValidationError("policy", err.Error()))
			return
		}
	}
	if s.rejectWhenBusy(w, r) {
		return
	}

	id, err := s.Queue.EnqueueReconcile(models.ReconcileOptions{
		Deck:   deck,
		Limit:  req.Limit,
		DryRun: req.DryRun,
		Force:  req.Force,
		Policy: policy,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("queued reconcile of %s as job %s", deck, id)
	writeAccepted(w, r, id)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req insertRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.deck(req.Deck)
	if err != nil {
		handleError(w, r, err)
		return
	}
	prompts, err := s.insertPrompts(req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if s.rejectWhenBusy(w, r) {
		return
	}

	id, err := s.Queue.EnqueueInsert(models.InsertOptions{Deck: deck, DryRun: req.DryRun}, prompts)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("queued insert of %d prompt(s) into %s as job %s", len(prompts), deck, id)
	writeAccepted(w, r, id)
}

func (s *Server) insertPrompts(req insertRequest) ([]string, error) {
	text := strings.TrimSpace(req.Text)
	if len(req.Words) == 0 && text == "" {
		return nil, errors.NewValidationError("words", "either words or text is required")
	}

	var prompts []string
	for _, word := range req.Words {
		prompts = append(prompts, generation.WordPrompt(strings.TrimSpace(word), s.Prompts))
	}
	if text != "" {
		if req.Mode == "conversation" {
			prompts = append(prompts, generation.ConversationPrompt(text, s.Prompts))
		} else {
			prompts = append(prompts, generation.ParagraphPrompt(text, s.Prompts))
		}
	}
	return prompts, nil
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, ok := s.Queue.Status(id)
	if !ok {
		handleError(w, r, errors.NewNotFoundError("job", id))
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}
