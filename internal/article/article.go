package article

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"gopkg.in/yaml.v3"

	"github.com/vytor/chinesetutor/internal/logger"
)

const defaultMaxBytes = 10 << 20

// Article is source text flashcards are generated from.
type Article struct {
	Title    string
	Byline   string
	SiteName string
	Source   string
	Text     string
}

// Paragraphs splits the text on line breaks and drops blank lines.
func (a Article) Paragraphs() []string {
	var out []string
	for _, line := range strings.Split(a.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Extractor loads articles from URLs, HTML files, YAML article files or
// plain text files.
type Extractor struct {
	httpClient *http.Client
	maxBytes   int64
	log        *logger.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Extractor) {
		e.httpClient = hc
	}
}

// WithMaxBytes caps the size of fetched or read documents.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		e.maxBytes = n
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxBytes:   defaultMaxBytes,
		log:        logger.Default().WithPrefix("article"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load picks a loader from the shape of source.
func (e *Extractor) Load(ctx context.Context, source string) (Article, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return e.FetchURL(ctx, source)
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		return e.LoadYAML(source)
	case ".html", ".htm":
		return e.LoadHTML(source)
	default:
		data, err := e.readFile(source)
		if err != nil {
			return Article{}, err
		}
		return Article{Title: filepath.Base(source), Source: source, Text: strings.TrimSpace(string(data))}, nil
	}
}

// FetchURL downloads a page and extracts its main text.
func (e *Extractor) FetchURL(ctx context.Context, rawURL string) (Article, error) {
	log := logger.FromContext(ctx).WithPrefix("article").WithField("url", rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; chinese-tutor)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	log.Debug("fetching article")
	start := time.Now()

	resp, err := e.httpClient.Do(req)
	if err != nil {
		log.Error("fetch failed: %v", err)
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > e.maxBytes {
		return Article{}, fmt.Errorf("fetch %s: content length %d exceeds limit of %d bytes", rawURL, resp.ContentLength, e.maxBytes)
	}

	body, err := e.readLimited(resp.Body)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	log.Debug("fetched %d bytes in %v", len(body), time.Since(start))
	return e.extract(body, parsed, rawURL)
}

// LoadHTML extracts the main text of a saved HTML page.
func (e *Extractor) LoadHTML(path string) (Article, error) {
	data, err := e.readFile(path)
	if err != nil {
		return Article{}, err
	}
	abs, _ := filepath.Abs(path)
	return e.extract(data, &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, path)
}

type yamlArticle struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author"`
	Source  string `yaml:"source"`
	Content string `yaml:"content"`
}

// LoadYAML reads an article file with a required content key and optional
// title, author and source keys.
func (e *Extractor) LoadYAML(path string) (Article, error) {
	data, err := e.readFile(path)
	if err != nil {
		return Article{}, err
	}
	var doc yamlArticle
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Article{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return Article{}, fmt.Errorf("%s: missing content", path)
	}
	source := doc.Source
	if source == "" {
		source = path
	}
	return Article{Title: doc.Title, Byline: doc.Author, Source: source, Text: strings.TrimSpace(doc.Content)}, nil
}

func (e *Extractor) extract(body []byte, pageURL *url.URL, source string) (Article, error) {
	parsed, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract %s: %w", source, err)
	}
	text := strings.TrimSpace(parsed.TextContent)
	if text == "" {
		return Article{}, fmt.Errorf("extract %s: no readable text", source)
	}
	return Article{
		Title:    strings.TrimSpace(parsed.Title),
		Byline:   parsed.Byline,
		SiteName: parsed.SiteName,
		Source:   source,
		Text:     text,
	}, nil
}

func (e *Extractor) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	data, err := e.readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readLimited reads one byte past the limit so an exactly full buffer can be
// told apart from a truncated one.
func (e *Extractor) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("document exceeds limit of %d bytes", e.maxBytes)
	}
	return data, nil
}
