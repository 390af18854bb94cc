package api

import (
	"context"
	"database/sql"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vytor/chinesetutor/internal/ankiconnect"
	"github.com/vytor/chinesetutor/internal/generation"
	"github.com/vytor/chinesetutor/internal/jobs"
	"github.com/vytor/chinesetutor/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server serves the local HTTP API. Batches are handed to Queue and run in
// the background; their results are read back from the run journal.
type Server struct {
	Queue       jobs.JobQueue
	History     services.HistoryService
	Store       ankiconnect.StoreClient
	DB          Pinger
	Prompts     generation.PromptOptions
	DefaultDeck string

	validate *validator.Validate
}

// NewServer creates a Server. db may be nil when no journal is configured.
func NewServer(queue jobs.JobQueue, history services.HistoryService, store ankiconnect.StoreClient, db *sql.DB, prompts generation.PromptOptions, defaultDeck string) *Server {
	s := &Server{
		Queue:       queue,
		History:     history,
		Store:       store,
		Prompts:     prompts,
		DefaultDeck: defaultDeck,
		validate:    newValidator(),
	}
	if db != nil {
		s.DB = db
	}
	return s
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
