package ankiconnect_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chinesetutor/internal/ankiconnect"
	apperrors "github.com/vytor/chinesetutor/internal/errors"
	"github.com/vytor/chinesetutor/internal/models"
)

type recordedCall struct {
	Action  string
	Version int
	Params  json.RawMessage
}

// fakeAnki answers AnkiConnect requests with canned results per action.
type fakeAnki struct {
	mu      sync.Mutex
	calls   []recordedCall
	results map[string]string
	errors  map[string]string
}

func newFakeAnki(t *testing.T) (*fakeAnki, *ankiconnect.Client) {
	t.Helper()
	f := &fakeAnki{results: map[string]string{}, errors: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, ankiconnect.New(srv.URL)
}

func (f *fakeAnki) serve(w http.ResponseWriter, r *http.Request) {
	var call recordedCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	result, ok := f.results[call.Action]
	remoteErr := f.errors[call.Action]
	f.mu.Unlock()

	if !ok {
		result = "null"
	}
	errJSON := "null"
	if remoteErr != "" {
		b, _ := json.Marshal(remoteErr)
		errJSON = string(b)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"result":` + result + `,"error":` + errJSON + `}`))
}

func (f *fakeAnki) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Action)
	}
	return out
}

func (f *fakeAnki) params(t *testing.T, i int) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Less(t, i, len(f.calls))
	var p map[string]any
	require.NoError(t, json.Unmarshal(f.calls[i].Params, &p))
	return p
}

const noteJSON = `{"noteId": 1500, "modelName": "chinese-tutor", "tags": [], "fields": {
	"Chinese": {"value": "你好", "order": 0},
	"Pinyin": {"value": "nǐ hǎo", "order": 1},
	"English": {"value": "hello", "order": 2},
	"Sample Usage": {"value": "你好！", "order": 3},
	"Sample Usage (English)": {"value": "Hello!", "order": 4},
	"Related Words": {"value": "", "order": 5},
	"Sample Usage (Audio)": {"value": "[sound:a.wav]", "order": 6}
}}`

func sampleRecord() models.FlashcardRecord {
	return models.FlashcardRecord{
		Word:               "你好",
		Pinyin:             "nǐ hǎo",
		English:            "hello",
		SampleUsage:        "你好，朋友。",
		SampleUsageEnglish: "Hello, friend.",
	}
}

func TestAction_Valid(t *testing.T) {
	assert.True(t, ankiconnect.ActionFindNotes.Valid())
	assert.True(t, ankiconnect.ActionUpdateModelStyling.Valid())
	assert.False(t, ankiconnect.Action("cardsInfo").Valid())
}

func TestFindNoteIDs_SendsEnvelope(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["findNotes"] = `[1, 2, 3]`

	ids, err := client.FindNoteIDs(context.Background(), `deck:"Chinese"`)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	require.Len(t, fake.calls, 1)
	assert.Equal(t, "findNotes", fake.calls[0].Action)
	assert.Equal(t, ankiconnect.APIVersion, fake.calls[0].Version)
	assert.Equal(t, `deck:"Chinese"`, fake.params(t, 0)["query"])
}

func TestDo_ParamsDefaultToEmptyObject(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["deckNames"] = `["Default"]`

	_, err := client.DeckNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, fake.params(t, 0))
}

func TestDo_RemoteError(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.errors["createDeck"] = "collection is not available"

	err := client.CreateDeck(context.Background(), "Chinese")
	require.Error(t, err)

	var rse *apperrors.RemoteStoreError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, "createDeck", rse.Action)
	assert.Equal(t, "collection is not available", rse.Message)
	assert.Contains(t, rse.Response, "collection is not available")
}

func TestDo_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := ankiconnect.New(url).FindNoteIDs(context.Background(), "x")

	var rse *apperrors.RemoteStoreError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, apperrors.MsgUnreachable, rse.Message)
	assert.Equal(t, "findNotes", rse.Action)
}

func TestDo_InvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := ankiconnect.New(srv.URL).DeckNames(context.Background())

	var rse *apperrors.RemoteStoreError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, apperrors.MsgInvalidResponse, rse.Message)
	assert.Equal(t, "<html>not json</html>", rse.Response)
}

func TestDo_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := ankiconnect.New(srv.URL).DeckNames(context.Background())

	var rse *apperrors.RemoteStoreError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, apperrors.MsgUnexpectedStatus, rse.Message)
}

func TestNotesInfo_MapsFields(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["notesInfo"] = `[` + noteJSON + `]`

	records, err := client.NotesInfo(context.Background(), []int64{1500})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, int64(1500), rec.ID())
	assert.Equal(t, "你好", rec.Word)
	assert.Equal(t, "nǐ hǎo", rec.Pinyin)
	assert.Equal(t, "hello", rec.English)
	assert.Equal(t, "你好！", rec.SampleUsage)
	assert.Equal(t, "Hello!", rec.SampleUsageEnglish)
	assert.Empty(t, rec.RelatedWords)
}

func TestNotesInfo_PartialResultFailsWholeCall(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["notesInfo"] = `[` + noteJSON + `, {}]`

	records, err := client.NotesInfo(context.Background(), []int64{1500, 1501})
	assert.Nil(t, records)

	var rse *apperrors.RemoteStoreError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, apperrors.MsgInvalidResponse, rse.Message)
}

func TestNotesInfo_EmptyIDsSkipsRemote(t *testing.T) {
	fake, client := newFakeAnki(t)

	records, err := client.NotesInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, fake.actions())
}

func TestFindNotes_FindThenInfo(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["findNotes"] = `[1500]`
	fake.results["notesInfo"] = `[` + noteJSON + `]`

	records, err := client.FindNotes(context.Background(), `deck:"Chinese"`)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"findNotes", "notesInfo"}, fake.actions())
}

func TestNoteFields_AndMissingFields(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["notesInfo"] = `[{"noteId": 7, "fields": {
		"Chinese": {"value": "谢谢"},
		"Pinyin": {"value": " "},
		"English": {"value": "thanks"}
	}}]`

	fields, err := client.NoteFields(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "谢谢", fields[ankiconnect.FieldChinese])

	assert.Equal(t,
		[]string{ankiconnect.FieldPinyin, ankiconnect.FieldSampleUsage, ankiconnect.FieldSampleUsageEnglish},
		ankiconnect.MissingFields(fields))
}

func TestAddNote(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["addNote"] = `1700000000000`

	id, err := client.AddNote(context.Background(), "Chinese::Test", sampleRecord(), "/media/chinese-tutor-abc.wav")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), id)

	note := fake.params(t, 0)["note"].(map[string]any)
	assert.Equal(t, "Chinese::Test", note["deckName"])
	assert.Equal(t, ankiconnect.DefaultModelName, note["modelName"])
	fields := note["fields"].(map[string]any)
	assert.Equal(t, "你好", fields["Chinese"])
	assert.Equal(t, "Hello, friend.", fields["Sample Usage (English)"])

	audio := note["audio"].([]any)
	require.Len(t, audio, 1)
	att := audio[0].(map[string]any)
	assert.Equal(t, "/media/chinese-tutor-abc.wav", att["path"])
	assert.Equal(t, "chinese-tutor-abc.wav", att["filename"])
	assert.Equal(t, []any{"Sample Usage (Audio)"}, att["fields"])
}

func TestAddNote_NoIDIsError(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["addNote"] = `null`

	_, err := client.AddNote(context.Background(), "Chinese", sampleRecord(), "")

	var rse *apperrors.RemoteStoreError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, apperrors.MsgNoNoteID, rse.Message)
	_, hasAudio := fake.params(t, 0)["note"].(map[string]any)["audio"]
	assert.False(t, hasAudio)
}

func TestAudioUpdatePlan_TextOnly(t *testing.T) {
	plan := ankiconnect.AudioUpdatePlan(9, sampleRecord(), "")

	require.Len(t, plan, 1)
	assert.False(t, plan[0].HasAudio())
	_, touchesAudio := plan[0].Fields[ankiconnect.FieldSampleUsageAudio]
	assert.False(t, touchesAudio, "text-only update must leave existing audio alone")
}

func TestAudioUpdatePlan_ClearThenAttach(t *testing.T) {
	rec := sampleRecord()
	plan := ankiconnect.AudioUpdatePlan(9, rec, "/media/new.wav")

	require.Len(t, plan, 2)

	first, second := plan[0], plan[1]
	assert.False(t, first.HasAudio())
	assert.Equal(t, "", first.Fields[ankiconnect.FieldSampleUsageAudio])
	assert.Equal(t, rec.SampleUsage, first.Fields[ankiconnect.FieldSampleUsage])

	assert.True(t, second.HasAudio())
	assert.Equal(t, rec.Word, second.Fields[ankiconnect.FieldChinese])
	assert.Equal(t, int64(9), second.ID)
}

func TestUpdateNote_TwoPhaseWithAudio(t *testing.T) {
	fake, client := newFakeAnki(t)

	err := client.UpdateNote(context.Background(), 9, sampleRecord(), "/media/new.wav")
	require.NoError(t, err)
	assert.Equal(t, []string{"updateNoteFields", "updateNoteFields"}, fake.actions())

	first := fake.params(t, 0)["note"].(map[string]any)
	_, firstAudio := first["audio"]
	assert.False(t, firstAudio)

	second := fake.params(t, 1)["note"].(map[string]any)
	assert.Len(t, second["audio"], 1)
}

func TestUpdateNote_StopsAfterFailedFirstPhase(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.errors["updateNoteFields"] = "note was not found"

	err := client.UpdateNote(context.Background(), 9, sampleRecord(), "/media/new.wav")
	require.Error(t, err)
	assert.True(t, apperrors.IsRemoteStore(err))
	assert.Contains(t, err.Error(), "step 1 of 2")
	assert.Len(t, fake.actions(), 1)
}

func TestEnsureDeck(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["deckNames"] = `["Default", "Chinese"]`

	require.NoError(t, client.EnsureDeck(context.Background(), "Chinese"))
	assert.Equal(t, []string{"deckNames"}, fake.actions())

	require.NoError(t, client.EnsureDeck(context.Background(), "Chinese::New"))
	assert.Equal(t, []string{"deckNames", "deckNames", "createDeck"}, fake.actions())
	assert.Equal(t, "Chinese::New", fake.params(t, 2)["deck"])
}

func TestModelOperations(t *testing.T) {
	fake, client := newFakeAnki(t)
	fake.results["modelTemplates"] = `{"Chinese front": {"Front": "{{Chinese}}", "Back": "{{English}}"}}`
	fake.results["modelStyling"] = `{"css": ".card {}"}`
	ctx := context.Background()

	templates, err := client.ModelTemplates(ctx, "chinese-tutor")
	require.NoError(t, err)
	assert.Equal(t, ankiconnect.CardTemplate{Name: "Chinese front", Front: "{{Chinese}}", Back: "{{English}}"},
		templates["Chinese front"])

	css, err := client.ModelStyling(ctx, "chinese-tutor")
	require.NoError(t, err)
	assert.Equal(t, ".card {}", css)

	require.NoError(t, client.UpdateModelStyling(ctx, "chinese-tutor", ".card { color: red }"))
	model := fake.params(t, 2)["model"].(map[string]any)
	assert.Equal(t, "chinese-tutor", model["name"])
	assert.Equal(t, ".card { color: red }", model["css"])

	require.NoError(t, client.UpdateModelTemplates(ctx, "chinese-tutor", []ankiconnect.CardTemplate{
		{Name: "English front", Front: "{{English}}", Back: "{{Chinese}}"},
	}))
	model = fake.params(t, 3)["model"].(map[string]any)
	byName := model["templates"].(map[string]any)
	assert.Equal(t, map[string]any{"Front": "{{English}}", "Back": "{{Chinese}}"}, byName["English front"])

	require.NoError(t, client.CreateModel(ctx, ankiconnect.ModelSpec{
		Name:   "chinese-tutor",
		Fields: ankiconnect.Fields,
		CSS:    ".card {}",
	}))
	created := fake.params(t, 4)
	assert.Equal(t, "chinese-tutor", created["modelName"])
	assert.Len(t, created["inOrderFields"], len(ankiconnect.Fields))
	assert.Equal(t, false, created["isCloze"])
}
