package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
)

const maxResponseBytes = 16 << 20

type Client struct {
	url        string
	modelName  string
	httpClient *http.Client
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithModelName sets the note type used for new notes.
func WithModelName(name string) Option {
	return func(c *Client) {
		c.modelName = name
	}
}

// New creates a client for the AnkiConnect endpoint at url.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:        url,
		modelName:  DefaultModelName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.Default().WithPrefix("ankiconnect"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ModelName returns the note type new notes are created with.
func (c *Client) ModelName() string {
	return c.modelName
}

type request struct {
	Action  Action `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// do sends one action and decodes its result into out, which may be nil.
// Every failure comes back as a *errors.RemoteStoreError naming the action.
func (c *Client) do(ctx context.Context, action Action, params any, out any) error {
	log := logger.FromContext(ctx).WithPrefix("ankiconnect").WithField("action", action)

	if !action.Valid() {
		return apperrors.NewRemoteStoreError(string(action), "unknown action", "", nil)
	}
	if params == nil {
		params = map[string]any{}
	}

	payload, err := json.Marshal(request{Action: action, Version: APIVersion, Params: params})
	if err != nil {
		return apperrors.NewRemoteStoreError(string(action), "encode request", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		log.Error("failed to create request: %v", err)
		return apperrors.NewRemoteStoreError(string(action), "create request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("sending request to %s", c.url)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("request failed: %v", err)
		return apperrors.NewRemoteStoreError(string(action), apperrors.MsgUnreachable, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Error("failed to read response: %v", err)
		return apperrors.NewRemoteStoreError(string(action), apperrors.MsgUnreachable, "", err)
	}

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		log.Error("unexpected status=%d, body=%s", resp.StatusCode, truncate(body, 1024))
		return apperrors.NewRemoteStoreError(string(action), apperrors.MsgUnexpectedStatus, string(body),
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Error("failed to decode response: %v", err)
		return apperrors.NewRemoteStoreError(string(action), apperrors.MsgInvalidResponse, string(body), err)
	}
	if envelope.Error != nil && *envelope.Error != "" {
		log.Error("remote error: %s", *envelope.Error)
		return apperrors.NewRemoteStoreError(string(action), *envelope.Error, string(body), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		log.Error("failed to decode result: %v", err)
		return apperrors.NewRemoteStoreError(string(action), apperrors.MsgInvalidResponse, string(body), err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// FindNoteIDs runs an Anki search and returns the matching note ids.
func (c *Client) FindNoteIDs(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := c.do(ctx, ActionFindNotes, map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).WithPrefix("ankiconnect").Debug("query %s matched %d note(s)", query, len(ids))
	return ids, nil
}

func (c *Client) notesInfo(ctx context.Context, ids []int64) ([]noteInfo, error) {
	var infos []noteInfo
	if err := c.do(ctx, ActionNotesInfo, map[string]any{"notes": ids}, &infos); err != nil {
		return nil, err
	}
	// Unknown ids come back as empty objects, which would silently shorten
	// the result. Treat any gap as a failure of the whole call.
	if len(infos) != len(ids) {
		return nil, apperrors.NewRemoteStoreError(string(ActionNotesInfo), apperrors.MsgInvalidResponse, "",
			fmt.Errorf("requested %d note(s), received %d", len(ids), len(infos)))
	}
	for i, info := range infos {
		if info.NoteID == 0 || info.Fields == nil {
			return nil, apperrors.NewRemoteStoreError(string(ActionNotesInfo), apperrors.MsgInvalidResponse, "",
				fmt.Errorf("note %d: missing id or fields", ids[i]))
		}
	}
	return infos, nil
}

// NotesInfo fetches and maps the given notes. It fails as a whole if any
// requested note is missing or malformed.
func (c *Client) NotesInfo(ctx context.Context, ids []int64) ([]models.FlashcardRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	infos, err := c.notesInfo(ctx, ids)
	if err != nil {
		return nil, err
	}
	records := make([]models.FlashcardRecord, 0, len(infos))
	for _, info := range infos {
		records = append(records, info.record())
	}
	return records, nil
}

// FindNotes searches and then fetches the matching notes.
func (c *Client) FindNotes(ctx context.Context, query string) ([]models.FlashcardRecord, error) {
	ids, err := c.FindNoteIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.NotesInfo(ctx, ids)
}

// NoteFields returns the raw field values of one note.
func (c *Client) NoteFields(ctx context.Context, id int64) (map[string]string, error) {
	infos, err := c.notesInfo(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	return infos[0].values(), nil
}

// AddNote creates a note for rec in deck and returns its id. audioPath may be
// empty. A missing id in the response means Anki rejected the note, usually
// as a duplicate of its own first field.
func (c *Client) AddNote(ctx context.Context, deck string, rec models.FlashcardRecord, audioPath string) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("ankiconnect").WithField("word", rec.Word)

	note := newNote{
		DeckName:  deck,
		ModelName: c.modelName,
		Fields:    textFields(rec),
		Tags:      []string{},
	}
	if audioPath != "" {
		note.Audio = audioAttachment(audioPath)
	}

	var id *int64
	if err := c.do(ctx, ActionAddNote, map[string]any{"note": note}, &id); err != nil {
		return 0, err
	}
	if id == nil || *id == 0 {
		log.Error("addNote returned no id")
		return 0, apperrors.NewRemoteStoreError(string(ActionAddNote), apperrors.MsgNoNoteID, "", nil)
	}

	log.Info("added note %d to deck %s", *id, deck)
	return *id, nil
}

// UpdateNote writes rec onto note id following AudioUpdatePlan.
func (c *Client) UpdateNote(ctx context.Context, id int64, rec models.FlashcardRecord, audioPath string) error {
	log := logger.FromContext(ctx).WithPrefix("ankiconnect").WithField("note_id", id)

	plan := AudioUpdatePlan(id, rec, audioPath)
	for i, step := range plan {
		if err := c.do(ctx, ActionUpdateNoteFields, map[string]any{"note": step}, nil); err != nil {
			return fmt.Errorf("update note %d (step %d of %d): %w", id, i+1, len(plan), err)
		}
	}

	log.Debug("updated note in %d step(s), audio=%t", len(plan), audioPath != "")
	return nil
}

// DeckNames lists every deck path.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var decks []string
	if err := c.do(ctx, ActionDeckNames, nil, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// CreateDeck creates deck. Anki treats creating an existing deck as a no-op.
func (c *Client) CreateDeck(ctx context.Context, deck string) error {
	return c.do(ctx, ActionCreateDeck, map[string]any{"deck": deck}, nil)
}

// EnsureDeck creates deck unless it is already listed.
func (c *Client) EnsureDeck(ctx context.Context, deck string) error {
	decks, err := c.DeckNames(ctx)
	if err != nil {
		return err
	}
	for _, d := range decks {
		if d == deck {
			return nil
		}
	}
	logger.FromContext(ctx).WithPrefix("ankiconnect").Info("creating deck %s", deck)
	return c.CreateDeck(ctx, deck)
}

// DefaultMediaDir returns the collection.media directory of the default Anki
// profile for the current OS.
func DefaultMediaDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Anki2", "User 1", "collection.media"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Anki2", "User 1", "collection.media"), nil
	case "linux":
		return filepath.Join(home, ".local", "share", "Anki2", "User 1", "collection.media"), nil
	default:
		return "", fmt.Errorf("no default Anki media directory for %s", runtime.GOOS)
	}
}
