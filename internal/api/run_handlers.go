package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
)

const defaultPageSize = 20

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRunFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	page, err := s.History.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

func parseRunFilter(r *http.Request) (models.RunFilter, error) {
	q := r.URL.Query()
	filter := models.RunFilter{
		Deck:   q.Get("deck"),
		Kind:   models.BatchKind(q.Get("kind")),
		Status: models.RunStatus(q.Get("status")),
	}

	switch filter.Kind {
	case "", models.BatchInsert, models.BatchReconcile:
	default:
		return filter, errors.NewValidationError("kind", "must be insert or reconcile")
	}
	switch filter.Status {
	case "", models.RunCompleted, models.RunAborted, models.RunFailed, models.RunEmpty:
	default:
		return filter, errors.NewValidationError("status", "must be completed, aborted, failed or empty")
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit", defaultPageSize); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := s.History.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

type pruneRequest struct {
	OlderThanDays int `json:"older_than_days" validate:"min=1"`
}

func (s *Server) handlePruneRuns(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req pruneRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	id, err := s.Queue.EnqueuePrune(time.Duration(req.OlderThanDays) * 24 * time.Hour)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("queued pruning of runs older than %d day(s) as job %s", req.OlderThanDays, id)
	writeAccepted(w, r, id)
}
