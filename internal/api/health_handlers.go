package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/chinesetutor/internal/logger"
)

// handleHealth returns a liveness probe - always returns 200 OK.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady returns 200 when the journal database and AnkiConnect both
// answer, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	log := logger.FromContext(ctx)

	checks := map[string]string{"database": "ok", "anki": "ok"}
	ready := true

	if s.DB == nil {
		checks["database"] = "disabled"
	} else if err := s.DB.PingContext(ctx); err != nil {
		log.Warn("readiness check failed - database: %v", err)
		checks["database"] = err.Error()
		ready = false
	}

	if _, err := s.Store.DeckNames(ctx); err != nil {
		log.Warn("readiness check failed - anki: %v", err)
		checks["anki"] = err.Error()
		ready = false
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, map[string]any{"ready": ready, "checks": checks})
}
