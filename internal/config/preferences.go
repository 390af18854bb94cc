package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported languages.
const (
	LanguageMandarin  = "mandarin"
	LanguageCantonese = "cantonese"
)

// ErrNoDefaultDeck is returned by RequireDeck when no deck has been configured.
var ErrNoDefaultDeck = errors.New("no default deck configured")

// Preferences are the user defaults persisted between invocations.
type Preferences struct {
	DefaultDeck     string `yaml:"default_deck,omitempty"`
	DefaultLanguage string `yaml:"default_language,omitempty"`
	LearnerLevel    string `yaml:"learner_level,omitempty"`

	path string
}

// DefaultPreferencesPath returns <config dir>/chinese-tutor/config.yaml.
func DefaultPreferencesPath() (string, error) {
	var dir string
	if runtime.GOOS == "windows" {
		dir = os.Getenv("APPDATA")
	} else if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = xdg
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "chinese-tutor", "config.yaml"), nil
}

// LoadPreferences reads the preferences file at path. A missing file yields
// empty preferences bound to path.
func LoadPreferences(path string) (*Preferences, error) {
	p := &Preferences{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	return p, nil
}

// Save writes the preferences back to the file they were loaded from.
func (p *Preferences) Save() error {
	if p.path == "" {
		return errors.New("preferences have no backing file")
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return os.WriteFile(p.path, data, 0o644)
}

// Path returns the backing file.
func (p *Preferences) Path() string {
	return p.path
}

// RequireDeck returns the default deck or ErrNoDefaultDeck.
func (p *Preferences) RequireDeck() (string, error) {
	if strings.TrimSpace(p.DefaultDeck) == "" {
		return "", fmt.Errorf("%w: set one with `tutor config --deck` (file: %s)", ErrNoDefaultDeck, p.path)
	}
	return p.DefaultDeck, nil
}

// Language returns the configured language, defaulting to Mandarin.
func (p *Preferences) Language() string {
	if p.DefaultLanguage == "" {
		return LanguageMandarin
	}
	return p.DefaultLanguage
}

// Level returns the learner level used in prompts, defaulting to intermediate.
func (p *Preferences) Level() string {
	if p.LearnerLevel == "" {
		return "intermediate"
	}
	return p.LearnerLevel
}

// SetLanguage validates and stores the default language.
func (p *Preferences) SetLanguage(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !ValidLanguage(lang) {
		return fmt.Errorf("unsupported language %q (want %s or %s)", lang, LanguageMandarin, LanguageCantonese)
	}
	p.DefaultLanguage = lang
	return nil
}

// ValidLanguage reports whether lang is supported.
func ValidLanguage(lang string) bool {
	return lang == LanguageMandarin || lang == LanguageCantonese
}
