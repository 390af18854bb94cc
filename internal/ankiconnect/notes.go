package ankiconnect

import (
	"path/filepath"
	"strings"

	"github.com/vytor/chinesetutor/internal/models"
)

type noteInfo struct {
	NoteID    int64                `json:"noteId"`
	ModelName string               `json:"modelName"`
	Tags      []string             `json:"tags"`
	Fields    map[string]noteField `json:"fields"`
}

type noteField struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

func (n noteInfo) values() map[string]string {
	out := make(map[string]string, len(n.Fields))
	for name, f := range n.Fields {
		out[name] = f.Value
	}
	return out
}

func (n noteInfo) record() models.FlashcardRecord {
	v := n.values()
	rec := models.FlashcardRecord{
		Word:               v[FieldChinese],
		Pinyin:             v[FieldPinyin],
		English:            v[FieldEnglish],
		SampleUsage:        v[FieldSampleUsage],
		SampleUsageEnglish: v[FieldSampleUsageEnglish],
		RelatedWords:       models.ParseRelatedWords(v[FieldRelatedWords]),
	}
	return rec.WithNoteID(n.NoteID)
}

// MissingFields returns the required fields that are absent or blank in
// fields, in RequiredFields order.
func MissingFields(fields map[string]string) []string {
	var missing []string
	for _, name := range RequiredFields {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// textFields maps a record onto the note's text fields. Related Words is only
// written when the record carries some, so an update never wipes a field the
// generator left empty.
func textFields(rec models.FlashcardRecord) map[string]string {
	fields := map[string]string{
		FieldChinese:            rec.Word,
		FieldPinyin:             rec.Pinyin,
		FieldEnglish:            rec.English,
		FieldSampleUsage:        rec.SampleUsage,
		FieldSampleUsageEnglish: rec.SampleUsageEnglish,
	}
	if len(rec.RelatedWords) > 0 {
		fields[FieldRelatedWords] = models.RenderRelatedWords(rec.RelatedWords)
	}
	return fields
}

type mediaAttachment struct {
	Path     string   `json:"path"`
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

func audioAttachment(audioPath string) []mediaAttachment {
	return []mediaAttachment{{
		Path:     audioPath,
		Filename: filepath.Base(audioPath),
		Fields:   []string{FieldSampleUsageAudio},
	}}
}

type newNote struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
	Audio     []mediaAttachment `json:"audio,omitempty"`
}

// NoteUpdate is the payload of one updateNoteFields call.
type NoteUpdate struct {
	ID     int64             `json:"id"`
	Fields map[string]string `json:"fields"`
	Audio  []mediaAttachment `json:"audio,omitempty"`
}

// HasAudio reports whether the update attaches an audio file.
func (u NoteUpdate) HasAudio() bool {
	return len(u.Audio) > 0
}

// AudioUpdatePlan returns the ordered updateNoteFields payloads needed to
// write rec onto note id.
//
// Without audio it is a single text-only write that leaves the audio field
// untouched. With audio it is two writes that must run in order: the first
// clears the audio field, the second attaches the new file.
func AudioUpdatePlan(id int64, rec models.FlashcardRecord, audioPath string) []NoteUpdate {
	if audioPath == "" {
		return []NoteUpdate{{ID: id, Fields: textFields(rec)}}
	}

	blank := textFields(rec)
	blank[FieldSampleUsageAudio] = ""

	attach := textFields(rec)
	attach[FieldSampleUsageAudio] = ""

	return []NoteUpdate{
		{ID: id, Fields: blank},
		{ID: id, Fields: attach, Audio: audioAttachment(audioPath)},
	}
}
