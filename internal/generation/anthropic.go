package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4096

	toolName = "record_flashcards"
)

// AnthropicConfig configures AnthropicGenerator.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// AnthropicGenerator generates flashcards through the Anthropic Messages API.
// The model is forced to answer with a single tool call whose input schema
// mirrors FlashcardRecord, sampled at temperature 0.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	log       *logger.Logger
}

// NewAnthropicGenerator creates a generator. SDK retries are disabled.
func NewAnthropicGenerator(cfg AnthropicConfig) *AnthropicGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &AnthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		log:       logger.Default().WithPrefix("generation"),
	}
}

// Model returns the model name requests are sent to.
func (g *AnthropicGenerator) Model() string {
	return g.model
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) ([]models.FlashcardRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("generation").WithField("model", g.model)

	log.Debug("prompt:\n%s", prompt)
	start := time.Now()

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{{OfTool: flashcardTool()}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
		},
	})
	if err != nil {
		log.Error("messages request failed: %v", err)
		return nil, apperrors.NewGenerationError("model request failed", err)
	}

	log.Debug("response in %v, stop_reason=%s, input_tokens=%d, output_tokens=%d",
		time.Since(start), msg.StopReason, msg.Usage.InputTokens, msg.Usage.OutputTokens)

	if msg.StopReason == anthropic.StopReasonMaxTokens {
		return nil, apperrors.NewGenerationError(
			fmt.Sprintf("response truncated at %d tokens", g.maxTokens), nil)
	}

	for _, block := range msg.Content {
		switch block := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			if block.Name != toolName {
				continue
			}
			raw, err := json.Marshal(block.Input)
			if err != nil {
				return nil, apperrors.NewGenerationError("encode tool input", err)
			}
			records, err := ParseFlashcards(raw)
			if err != nil {
				log.Error("invalid tool output: %v", err)
				return nil, err
			}
			log.Info("generated %d flashcard(s) in %v", len(records), time.Since(start))
			return records, nil
		}
	}

	return nil, apperrors.NewGenerationError("response contained no "+toolName+" call", nil)
}

type toolInput struct {
	Flashcards []models.FlashcardRecord `json:"flashcards"`
}

// ParseFlashcards decodes the tool input and validates every record. Any
// invalid record fails the whole call.
func ParseFlashcards(raw []byte) ([]models.FlashcardRecord, error) {
	var in toolInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, apperrors.NewGenerationError("decode flashcards", err)
	}
	if len(in.Flashcards) == 0 {
		return nil, apperrors.NewGenerationError("no flashcards returned", nil)
	}
	for i := range in.Flashcards {
		// Ids are assigned by Anki, never by the model.
		in.Flashcards[i].NoteID = nil
		if err := in.Flashcards[i].Validate(); err != nil {
			return nil, apperrors.NewGenerationError(fmt.Sprintf("flashcard %d", i), err)
		}
	}
	return in.Flashcards, nil
}

func flashcardTool() *anthropic.ToolParam {
	frequencies := make([]string, 0, len(models.Frequencies))
	for _, f := range models.Frequencies {
		frequencies = append(frequencies, string(f))
	}

	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}

	card := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"word":                 str("The word or phrase in Chinese characters, repeated verbatim"),
			"pinyin":               str("Romanization with tone marks (Pinyin for Mandarin, Jyutping for Cantonese), lowercased"),
			"english":              str("English meaning, with nuance in parentheses where it helps contrast similar words"),
			"sample_usage":         str("A new sentence that uses the word in context"),
			"sample_usage_english": str("English translation of sample_usage"),
			"frequency": map[string]any{
				"type":        "string",
				"enum":        frequencies,
				"description": "How often the word is actually used",
			},
			"related_words": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"word":         str("Related word in Chinese characters"),
						"pinyin":       str("Romanization of the related word"),
						"english":      str("English meaning of the related word"),
						"relationship": str("How it relates, e.g. synonym, antonym, similar pattern"),
					},
					"required": []string{"word", "pinyin", "english", "relationship"},
				},
			},
		},
		"required": []string{"word", "pinyin", "english", "sample_usage", "sample_usage_english"},
	}

	return &anthropic.ToolParam{
		Name:        toolName,
		Description: anthropic.String("Record the generated flashcards."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"flashcards": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    card,
				},
			},
			Required: []string{"flashcards"},
		},
	}
}

var _ Generator = (*AnthropicGenerator)(nil)
