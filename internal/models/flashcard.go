package models

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Frequency is how often a word shows up in everyday usage.
type Frequency string

const (
	FrequencyVeryCommon Frequency = "very common"
	FrequencyCommon     Frequency = "common"
	FrequencyInfrequent Frequency = "infrequent"
	FrequencyRare       Frequency = "rare"
	FrequencyVeryRare   Frequency = "very rare"
)

// Frequencies lists the accepted values in descending order of use.
var Frequencies = []Frequency{
	FrequencyVeryCommon,
	FrequencyCommon,
	FrequencyInfrequent,
	FrequencyRare,
	FrequencyVeryRare,
}

// Valid reports whether f is unset or one of Frequencies.
func (f Frequency) Valid() bool {
	if f == "" {
		return true
	}
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// RelatedWord links a flashcard to a synonym, antonym or similar word.
type RelatedWord struct {
	Word         string `json:"word" validate:"nonblank"`
	Pinyin       string `json:"pinyin"`
	English      string `json:"english"`
	Relationship string `json:"relationship"`
}

// FlashcardRecord is one vocabulary note. NoteID is set only once the note
// exists in Anki.
type FlashcardRecord struct {
	NoteID             *int64        `json:"note_id,omitempty"`
	Word               string        `json:"word" validate:"nonblank"`
	Pinyin             string        `json:"pinyin" validate:"nonblank"`
	English            string        `json:"english" validate:"nonblank"`
	SampleUsage        string        `json:"sample_usage" validate:"nonblank"`
	SampleUsageEnglish string        `json:"sample_usage_english" validate:"nonblank"`
	Frequency          Frequency     `json:"frequency,omitempty" validate:"frequency"`
	RelatedWords       []RelatedWord `json:"related_words,omitempty" validate:"dive"`
}

// HasNoteID reports whether the record is already stored in Anki.
func (r FlashcardRecord) HasNoteID() bool {
	return r.NoteID != nil
}

// ID returns the note id or 0 when the record is not stored yet.
func (r FlashcardRecord) ID() int64 {
	if r.NoteID == nil {
		return 0
	}
	return *r.NoteID
}

// WithNoteID returns a copy of r bound to id.
func (r FlashcardRecord) WithNoteID(id int64) FlashcardRecord {
	r.NoteID = &id
	return r
}

func (r FlashcardRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Word: %s\n", r.Word)
	fmt.Fprintf(&sb, "Pinyin: %s\n", r.Pinyin)
	fmt.Fprintf(&sb, "English: %s\n", r.English)
	fmt.Fprintf(&sb, "Sample Usage: %s\n", r.SampleUsage)
	fmt.Fprintf(&sb, "Sample Usage (English): %s", r.SampleUsageEnglish)
	if r.Frequency != "" {
		fmt.Fprintf(&sb, "\nFrequency: %s", r.Frequency)
	}
	for _, rw := range r.RelatedWords {
		fmt.Fprintf(&sb, "\nRelated: %s (%s) %s", rw.Word, rw.Pinyin, rw.English)
		if rw.Relationship != "" {
			fmt.Fprintf(&sb, " [%s]", rw.Relationship)
		}
	}
	return sb.String()
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
			return Frequency(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// Validate checks that every required field is present and non-blank and
// that the frequency, if set, is a known value.
func (r FlashcardRecord) Validate() error {
	err := recordValidator().Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var missing, invalid []string
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "FlashcardRecord.")
		switch fe.Tag() {
		case "nonblank":
			missing = append(missing, field)
		default:
			invalid = append(invalid, fmt.Sprintf("%s=%v", field, fe.Value()))
		}
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required field(s): "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid value(s): "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("invalid flashcard %q: %s", r.Word, strings.Join(parts, "; "))
}

// RenderRelatedWords renders related words into the HTML stored in the
// Related Words note field.
func RenderRelatedWords(words []RelatedWord) string {
	if len(words) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, rw := range words {
		sb.WriteString("<li>")
		sb.WriteString(html.EscapeString(rw.Word))
		sb.WriteString(" (")
		sb.WriteString(html.EscapeString(rw.Pinyin))
		sb.WriteString("): ")
		sb.WriteString(html.EscapeString(rw.English))
		if rw.Relationship != "" {
			sb.WriteString(" [")
			sb.WriteString(html.EscapeString(rw.Relationship))
			sb.WriteString("]")
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

var relatedItemRe = regexp.MustCompile(`<li>(.*?) \((.*?)\): (.*?)(?: \[(.*?)\])?</li>`)

// ParseRelatedWords reverses RenderRelatedWords. Items that do not match the
// rendered shape are skipped.
func ParseRelatedWords(field string) []RelatedWord {
	matches := relatedItemRe.FindAllStringSubmatch(field, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]RelatedWord, 0, len(matches))
	for _, m := range matches {
		out = append(out, RelatedWord{
			Word:         html.UnescapeString(m[1]),
			Pinyin:       html.UnescapeString(m[2]),
			English:      html.UnescapeString(m[3]),
			Relationship: html.UnescapeString(m[4]),
		})
	}
	return out
}
