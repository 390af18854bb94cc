package speech

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
)

// Synthesizer renders a sentence to an audio file and returns its path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Voice is an Azure neural voice and the locale it speaks.
type Voice struct {
	Name   string
	Locale string
}

// Voices maps a language to the voice used for it.
var Voices = map[string]Voice{
	"mandarin":  {Name: "zh-CN-XiaoxiaoNeural", Locale: "zh-CN"},
	"cantonese": {Name: "zh-HK-HiuGaaiNeural", Locale: "zh-HK"},
}

const (
	OutputFormat = "riff-24khz-16bit-mono-pcm"
	filePrefix   = "chinese-tutor-"
)

// FileName is the media file name for text. Equal text maps to the same file.
func FileName(text string) string {
	sum := md5.Sum([]byte(text))
	return filePrefix + hex.EncodeToString(sum[:]) + ".wav"
}

// AzureConfig configures AzureSynthesizer.
type AzureConfig struct {
	Key      string
	Region   string
	Language string
	// MediaDir is the Anki collection.media directory audio is written to.
	MediaDir string
	Timeout  time.Duration
	// Endpoint overrides the regional endpoint, mainly for tests.
	Endpoint   string
	HTTPClient *http.Client
}

// AzureSynthesizer calls the Azure Speech REST API.
type AzureSynthesizer struct {
	key        string
	endpoint   string
	voice      Voice
	mediaDir   string
	httpClient *http.Client
	log        *logger.Logger
}

// NewAzureSynthesizer validates cfg and creates a synthesizer.
func NewAzureSynthesizer(cfg AzureConfig) (*AzureSynthesizer, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("azure speech key is required")
	}
	if cfg.Region == "" && cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure speech region is required")
	}
	if cfg.MediaDir == "" {
		return nil, fmt.Errorf("media directory is required")
	}

	lang := strings.ToLower(strings.TrimSpace(cfg.Language))
	if lang == "" {
		lang = "mandarin"
	}
	voice, ok := Voices[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q for speech synthesis", cfg.Language)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &AzureSynthesizer{
		key:        cfg.Key,
		endpoint:   endpoint,
		voice:      voice,
		mediaDir:   cfg.MediaDir,
		httpClient: hc,
		log:        logger.Default().WithPrefix("speech"),
	}, nil
}

// Voice returns the voice requests are made with.
func (s *AzureSynthesizer) Voice() Voice {
	return s.voice
}

// SSML renders the request body for text.
func SSML(voice Voice, text string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", err
	}
	return fmt.Sprintf(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		voice.Locale, voice.Name, escaped.String()), nil
}

// Synthesize writes text as a WAV file into the media directory. A file that
// already exists for the same text is reused without calling Azure.
func (s *AzureSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("speech").WithField("voice", s.voice.Name)

	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewMediaSynthesisError(text, fmt.Errorf("empty text"))
	}

	path := filepath.Join(s.mediaDir, FileName(text))
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		log.Debug("reusing existing audio %s", path)
		return path, nil
	}

	body, err := SSML(s.voice, text)
	if err != nil {
		return "", apperrors.NewMediaSynthesisError(text, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(body))
	if err != nil {
		return "", apperrors.NewMediaSynthesisError(text, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", OutputFormat)
	req.Header.Set("User-Agent", "chinese-tutor")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error("synthesis request failed: %v", err)
		return "", apperrors.NewMediaSynthesisError(text, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("synthesis failed: status=%d, body=%s", resp.StatusCode, string(msg))
		return "", apperrors.NewMediaSynthesisError(text, fmt.Errorf("status %d: %s", resp.StatusCode, string(msg)))
	}

	if err := writeAtomic(path, resp.Body); err != nil {
		log.Error("failed to write audio: %v", err)
		return "", apperrors.NewMediaSynthesisError(text, err)
	}

	log.Debug("synthesized %s in %v", filepath.Base(path), time.Since(start))
	return path, nil
}

func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close audio: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("empty audio response")
	}
	return os.Rename(tmp.Name(), path)
}

var _ Synthesizer = (*AzureSynthesizer)(nil)
