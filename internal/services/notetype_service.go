package services

import (
	"context"
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/vytor/chinesetutor/internal/ankiconnect"
	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
)

//go:embed cardstyle/*.html cardstyle/*.css
var cardStyle embed.FS

// Card names of the note type. Each note produces one card per template.
const (
	CardChineseFront = "Chinese to English"
	CardEnglishFront = "English to Chinese"
)

// CardTemplates returns the card templates installed on the note type.
func CardTemplates() ([]ankiconnect.CardTemplate, error) {
	pairs := []struct{ name, front, back string }{
		{CardChineseFront, "chinese_front.html", "chinese_back.html"},
		{CardEnglishFront, "english_front.html", "english_back.html"},
	}
	templates := make([]ankiconnect.CardTemplate, 0, len(pairs))
	for _, p := range pairs {
		front, err := cardStyle.ReadFile("cardstyle/" + p.front)
		if err != nil {
			return nil, err
		}
		back, err := cardStyle.ReadFile("cardstyle/" + p.back)
		if err != nil {
			return nil, err
		}
		templates = append(templates, ankiconnect.CardTemplate{
			Name:  p.name,
			Front: string(front),
			Back:  string(back),
		})
	}
	return templates, nil
}

// CardCSS returns the stylesheet installed on the note type.
func CardCSS() (string, error) {
	css, err := cardStyle.ReadFile("cardstyle/style.css")
	if err != nil {
		return "", err
	}
	return string(css), nil
}

// SetupResult describes what Setup changed.
type SetupResult struct {
	Model            string   `json:"model"`
	Created          bool     `json:"created"`
	TemplatesUpdated bool     `json:"templates_updated"`
	StylingUpdated   bool     `json:"styling_updated"`
	MissingFields    []string `json:"missing_fields,omitempty"`
}

// NoteTypeService installs and maintains the note type in Anki.
type NoteTypeService interface {
	// Setup creates the note type, or refreshes the templates and styling of
	// an existing one that has every required field.
	Setup(ctx context.Context, model string) (*SetupResult, error)
	// UpdateStyling replaces the stylesheet of an existing note type.
	UpdateStyling(ctx context.Context, model string) error
}

type noteTypeService struct {
	store ankiconnect.StoreClient
}

// NewNoteTypeService creates a new NoteTypeService
func NewNoteTypeService(store ankiconnect.StoreClient) NoteTypeService {
	return &noteTypeService{store: store}
}

func (s *noteTypeService) Setup(ctx context.Context, model string) (*SetupResult, error) {
	log := logger.FromContext(ctx).WithPrefix("notetype").WithField("model", model)

	if strings.TrimSpace(model) == "" {
		return nil, apperrors.NewValidationError("model", "cannot be empty")
	}

	templates, err := CardTemplates()
	if err != nil {
		return nil, err
	}
	css, err := CardCSS()
	if err != nil {
		return nil, err
	}

	names, err := s.store.ModelNames(ctx)
	if err != nil {
		return nil, err
	}

	res := &SetupResult{Model: model}
	if !slices.Contains(names, model) {
		log.Info("creating note type")
		err := s.store.CreateModel(ctx, ankiconnect.ModelSpec{
			Name:      model,
			Fields:    ankiconnect.Fields,
			CSS:       css,
			Templates: templates,
		})
		if err != nil {
			return nil, err
		}
		res.Created = true
		return res, nil
	}

	fields, err := s.store.ModelFieldNames(ctx, model)
	if err != nil {
		return nil, err
	}
	for _, f := range ankiconnect.Fields {
		if !slices.Contains(fields, f) {
			res.MissingFields = append(res.MissingFields, f)
		}
	}
	if len(res.MissingFields) > 0 {
		log.Error("note type is missing fields: %s", strings.Join(res.MissingFields, ", "))
		return res, apperrors.NewConflictError(fmt.Sprintf(
			"note type %s exists but is missing fields: %s", model, strings.Join(res.MissingFields, ", ")))
	}

	current, err := s.store.ModelTemplates(ctx, model)
	if err != nil {
		return nil, err
	}
	if templatesDiffer(current, templates) {
		log.Info("updating card templates")
		if err := s.store.UpdateModelTemplates(ctx, model, templates); err != nil {
			return nil, err
		}
		res.TemplatesUpdated = true
	}

	currentCSS, err := s.store.ModelStyling(ctx, model)
	if err != nil {
		return nil, err
	}
	if currentCSS != css {
		log.Info("updating styling")
		if err := s.store.UpdateModelStyling(ctx, model, css); err != nil {
			return nil, err
		}
		res.StylingUpdated = true
	}

	return res, nil
}

func (s *noteTypeService) UpdateStyling(ctx context.Context, model string) error {
	log := logger.FromContext(ctx).WithPrefix("notetype").WithField("model", model)

	names, err := s.store.ModelNames(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, model) {
		return apperrors.NewNotFoundError("note type", model)
	}

	css, err := CardCSS()
	if err != nil {
		return err
	}
	if err := s.store.UpdateModelStyling(ctx, model, css); err != nil {
		return err
	}
	log.Info("styling updated")
	return nil
}

// templatesDiffer reports whether any wanted template is absent or changed.
// Extra cards on the remote note type are left alone.
func templatesDiffer(current map[string]ankiconnect.CardTemplate, wanted []ankiconnect.CardTemplate) bool {
	for _, w := range wanted {
		c, ok := current[w.Name]
		if !ok || c.Front != w.Front || c.Back != w.Back {
			return true
		}
	}
	return false
}
