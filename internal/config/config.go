package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/chinesetutor/internal/logger"
)

type Config struct {
	AnkiConnectURL           string
	AnkiModelName            string
	AnkiMediaDir             string
	AnthropicAPIKey          string
	GenerationModel          string
	GenerationMaxTokens      int
	AzureSpeechKey           string
	AzureSpeechRegion        string
	DBPath                   string
	Addr                     string
	LogLevel                 string
	LogFile                  string
	HTTPTimeoutSeconds       int
	SpeechTimeoutSeconds     int
	GenerationTimeoutSeconds int
	RunRetentionDays         int
	JobQueueSize             int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// .env is optional.
	_ = godotenv.Load()

	return Config{
		AnkiConnectURL:           envOr("ANKICONNECT_URL", "http://localhost:8765"),
		AnkiModelName:            envOr("ANKI_MODEL_NAME", "chinese-tutor"),
		AnkiMediaDir:             envOr("ANKI_MEDIA_DIR", ""),
		AnthropicAPIKey:          envOr("ANTHROPIC_API_KEY", ""),
		GenerationModel:          envOr("GENERATION_MODEL", "claude-sonnet-4-20250514"),
		GenerationMaxTokens:      envIntOr("GENERATION_MAX_TOKENS", 4096),
		AzureSpeechKey:           envOr("AZURE_SPEECH_SERVICE_KEY", ""),
		AzureSpeechRegion:        envOr("AZURE_SPEECH_SERVICE_REGION", ""),
		DBPath:                   envOr("DB_PATH", "file:chinese-tutor.db"),
		Addr:                     envOr("ADDR", "127.0.0.1:8080"),
		LogLevel:                 envOr("LOG_LEVEL", "INFO"),
		LogFile:                  envOr("LOG_FILE", ""),
		HTTPTimeoutSeconds:       envIntOr("HTTP_TIMEOUT_SECONDS", 30),
		SpeechTimeoutSeconds:     envIntOr("SPEECH_TIMEOUT_SECONDS", 60),
		GenerationTimeoutSeconds: envIntOr("GENERATION_TIMEOUT_SECONDS", 180),
		RunRetentionDays:         envIntOr("RUN_RETENTION_DAYS", 90),
		JobQueueSize:             envIntOr("JOB_QUEUE_SIZE", 4),
	}
}

// Validate reports every problem found in c, joined into a single error.
func (c Config) Validate() error {
	var errs []error

	if c.AnkiConnectURL == "" {
		errs = append(errs, errors.New("ANKICONNECT_URL cannot be empty"))
	} else if u, err := url.Parse(c.AnkiConnectURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("ANKICONNECT_URL %q is not an absolute URL", c.AnkiConnectURL))
	}
	if strings.TrimSpace(c.AnkiModelName) == "" {
		errs = append(errs, errors.New("ANKI_MODEL_NAME cannot be empty"))
	}
	if c.GenerationModel == "" {
		errs = append(errs, errors.New("GENERATION_MODEL cannot be empty"))
	}
	if c.GenerationMaxTokens < 256 || c.GenerationMaxTokens > 16384 {
		errs = append(errs, fmt.Errorf("GENERATION_MAX_TOKENS must be between 256 and 16384, got %d", c.GenerationMaxTokens))
	}
	if (c.AzureSpeechKey == "") != (c.AzureSpeechRegion == "") {
		errs = append(errs, errors.New("AZURE_SPEECH_SERVICE_KEY and AZURE_SPEECH_SERVICE_REGION must be set together"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	if c.HTTPTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSeconds))
	}
	if c.SpeechTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("SPEECH_TIMEOUT_SECONDS must be positive, got %d", c.SpeechTimeoutSeconds))
	}
	if c.GenerationTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("GENERATION_TIMEOUT_SECONDS must be positive, got %d", c.GenerationTimeoutSeconds))
	}
	if c.RunRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("RUN_RETENTION_DAYS cannot be negative, got %d", c.RunRetentionDays))
	}
	if c.JobQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("JOB_QUEUE_SIZE must be positive, got %d", c.JobQueueSize))
	}

	return errors.Join(errs...)
}

// SpeechEnabled reports whether Azure credentials are configured.
func (c Config) SpeechEnabled() bool {
	return c.AzureSpeechKey != "" && c.AzureSpeechRegion != ""
}

// HTTPTimeout is the per-request timeout for AnkiConnect and article fetches.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// SpeechTimeout is the per-request timeout for speech synthesis.
func (c Config) SpeechTimeout() time.Duration {
	return time.Duration(c.SpeechTimeoutSeconds) * time.Second
}

// GenerationTimeout bounds a single model request.
func (c Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// RunRetention is how long journaled runs are kept. Zero keeps them forever.
func (c Config) RunRetention() time.Duration {
	return time.Duration(c.RunRetentionDays) * 24 * time.Hour
}

// Runtime carries per-invocation switches from the CLI into the services.
// Nothing below cmd/ reads these from globals.
type Runtime struct {
	Model       string
	Debug       bool
	SkipConfirm bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
