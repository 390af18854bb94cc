package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/worker"
)

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr := toAppError(err)

	// Log based on status code
	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	writeJSON(w, r, appErr.Status, map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return &errors.AppError{Code: errors.ErrCodeTimeout, Message: "request timed out", Status: http.StatusGatewayTimeout, Err: err}
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, worker.ErrQueueFull):
		return errors.NewConflictError("a batch is already queued or running")
	case stderrors.Is(err, worker.ErrStopped):
		return &errors.AppError{Code: errors.ErrCodeInternal, Message: "server is shutting down", Status: http.StatusServiceUnavailable, Err: err}
	case errors.IsRemoteStore(err):
		return &errors.AppError{Code: errors.ErrCodeInternal, Message: "anki is unavailable", Status: http.StatusBadGateway, Err: err}
	default:
		// Wrap unknown errors as internal errors
		return errors.NewInternalError(err)
	}
}

// writeJSON encodes v with status. Encoding failures are only logged since the
// header has already been sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}
