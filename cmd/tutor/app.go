package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/ankiconnect"
	"github.com/vytor/chinesetutor/internal/config"
	"github.com/vytor/chinesetutor/internal/db"
	"github.com/vytor/chinesetutor/internal/generation"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/repository"
	"github.com/vytor/chinesetutor/internal/repository/sqlite"
	"github.com/vytor/chinesetutor/internal/services"
	"github.com/vytor/chinesetutor/internal/speech"
)

// app holds what every command needs once flags and configuration are known.
type app struct {
	cfg     config.Config
	prefs   *config.Preferences
	runtime config.Runtime
	log     *logger.Logger
	store   *ankiconnect.Client
	in      io.Reader
	out     io.Writer
}

var tutor *app

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if flagModel != "" {
		cfg.GenerationModel = flagModel
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if flagDebug {
		level = logger.DEBUG
	}
	log := logger.New(
		logger.WithLevel(level),
		logger.WithColors(true),
		logger.WithFile(cfg.LogFile, 10, 3),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	path, err := config.DefaultPreferencesPath()
	if err != nil {
		return err
	}
	prefs, err := config.LoadPreferences(path)
	if err != nil {
		return err
	}

	log.Debug("ankiconnect_url=%s", cfg.AnkiConnectURL)
	log.Debug("anki_model=%s", cfg.AnkiModelName)
	log.Debug("generation_model=%s", cfg.GenerationModel)
	log.Debug("preferences=%s", prefs.Path())

	tutor = &app{
		cfg:   cfg,
		prefs: prefs,
		runtime: config.Runtime{
			Model:       cfg.GenerationModel,
			Debug:       flagDebug,
			SkipConfirm: flagYes,
		},
		log: log,
		store: ankiconnect.New(cfg.AnkiConnectURL,
			ankiconnect.WithTimeout(cfg.HTTPTimeout()),
			ankiconnect.WithModelName(cfg.AnkiModelName),
		),
		in:  cmd.InOrStdin(),
		out: cmd.OutOrStdout(),
	}
	return nil
}

// context returns the command context carrying the application logger.
func (a *app) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.NewContext(ctx, a.log)
}

func (a *app) prompts() generation.PromptOptions {
	return generation.PromptOptions{Language: a.prefs.Language(), Level: a.prefs.Level()}
}

// deck returns flagDeck or the configured default deck.
func (a *app) deck(flagDeck string) (string, error) {
	if d := strings.TrimSpace(flagDeck); d != "" {
		return d, nil
	}
	return a.prefs.RequireDeck()
}

func (a *app) generator() (generation.Generator, error) {
	if a.cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	return generation.NewAnthropicGenerator(generation.AnthropicConfig{
		APIKey:    a.cfg.AnthropicAPIKey,
		Model:     a.runtime.Model,
		MaxTokens: a.cfg.GenerationMaxTokens,
		Timeout:   a.cfg.GenerationTimeout(),
	}), nil
}

// synthesizer returns nil when speech is not configured, so notes are written
// without audio.
func (a *app) synthesizer() speech.Synthesizer {
	if !a.cfg.SpeechEnabled() {
		a.log.Warn("AZURE_SPEECH_SERVICE_KEY is not set, audio will not be generated")
		return nil
	}
	mediaDir := a.cfg.AnkiMediaDir
	if mediaDir == "" {
		dir, err := ankiconnect.DefaultMediaDir()
		if err != nil {
			a.log.Warn("cannot locate the Anki media directory, audio disabled: %v", err)
			return nil
		}
		mediaDir = dir
	}
	synth, err := speech.NewAzureSynthesizer(speech.AzureConfig{
		Key:      a.cfg.AzureSpeechKey,
		Region:   a.cfg.AzureSpeechRegion,
		Language: a.prefs.Language(),
		MediaDir: mediaDir,
		Timeout:  a.cfg.SpeechTimeout(),
	})
	if err != nil {
		a.log.Warn("speech synthesis disabled: %v", err)
		return nil
	}
	return synth
}

// journal opens the run journal. Batches still run when it is unavailable.
func (a *app) journal() (*db.DB, repository.RunRepository) {
	database, err := db.Open(a.cfg.DBPath)
	if err != nil {
		a.log.Warn("run journal unavailable: %v", err)
		return nil, nil
	}
	return database, sqlite.NewRunRepository(database.DB)
}

// syncService wires the batch driver. The returned close func releases the
// journal.
func (a *app) syncService() (services.SyncService, func(), error) {
	gen, err := a.generator()
	if err != nil {
		return nil, nil, err
	}
	synth := a.synthesizer()
	database, runs := a.journal()

	svc := services.NewSyncService(
		a.store,
		gen,
		services.NewInsertService(a.store, synth),
		services.NewReconcileService(a.store, gen, synth, a.prompts()),
		runs,
	)
	closeFn := func() {
		if database != nil {
			database.Close()
		}
	}
	return svc, closeFn, nil
}

// confirm asks a yes/no question, defaulting to no. --yes answers yes.
func (a *app) confirm(question string) bool {
	if a.runtime.SkipConfirm {
		return true
	}
	fmt.Fprintf(a.out, "%s (y/N): ", question)
	answer, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// readInput returns the argument, the contents of file, or stdin for "-".
func (a *app) readInput(args []string, file string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(a.in)
		return string(data), err
	case file != "":
		data, err := os.ReadFile(file)
		return string(data), err
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("provide text as an argument or with --file")
	}
}
