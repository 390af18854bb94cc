package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chinesetutor/internal/models"
)

func sampleRecord() models.FlashcardRecord {
	return models.FlashcardRecord{
		Word:               "你好",
		Pinyin:             "nǐ hǎo",
		English:            "hello",
		SampleUsage:        "你好，我叫小明。",
		SampleUsageEnglish: "Hello, my name is Xiao Ming.",
		Frequency:          models.FrequencyVeryCommon,
	}
}

func TestValidate_AcceptsCompleteRecord(t *testing.T) {
	assert.NoError(t, sampleRecord().Validate())
}

func TestValidate_ReportsBlankRequiredFields(t *testing.T) {
	rec := sampleRecord()
	rec.Pinyin = "   "
	rec.SampleUsageEnglish = ""

	err := rec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinyin")
	assert.Contains(t, err.Error(), "sample_usage_english")
}

func TestValidate_Frequency(t *testing.T) {
	rec := sampleRecord()
	rec.Frequency = ""
	assert.NoError(t, rec.Validate(), "unset frequency is allowed")

	rec.Frequency = "sometimes"
	err := rec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frequency=sometimes")
}

func TestValidate_RelatedWordsNeedWord(t *testing.T) {
	rec := sampleRecord()
	rec.RelatedWords = []models.RelatedWord{{Pinyin: "nín hǎo", English: "hello (polite)"}}

	err := rec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "related_words[0].word")
}

func TestNoteID(t *testing.T) {
	rec := sampleRecord()
	assert.False(t, rec.HasNoteID())
	assert.Equal(t, int64(0), rec.ID())

	stored := rec.WithNoteID(1234567890)
	assert.True(t, stored.HasNoteID())
	assert.Equal(t, int64(1234567890), stored.ID())
	assert.False(t, rec.HasNoteID(), "WithNoteID must not mutate the receiver")
}

func TestRelatedWords_RenderAndParse(t *testing.T) {
	words := []models.RelatedWord{
		{Word: "您好", Pinyin: "nín hǎo", English: "hello (polite)", Relationship: "synonym"},
		{Word: "再见", Pinyin: "zài jiàn", English: "goodbye & farewell"},
	}

	rendered := models.RenderRelatedWords(words)
	assert.Contains(t, rendered, "goodbye &amp; farewell")
	assert.Equal(t, words, models.ParseRelatedWords(rendered))

	assert.Empty(t, models.RenderRelatedWords(nil))
	assert.Nil(t, models.ParseRelatedWords("free text someone typed"))
}

func TestString_IncludesFields(t *testing.T) {
	out := sampleRecord().String()
	assert.Contains(t, out, "Word: 你好")
	assert.Contains(t, out, "Sample Usage (English): Hello, my name is Xiao Ming.")
	assert.Contains(t, out, "Frequency: very common")
}
