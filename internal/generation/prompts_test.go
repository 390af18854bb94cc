package generation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/chinesetutor/internal/generation"
)

func TestWordPrompt(t *testing.T) {
	p := generation.WordPrompt("你好", generation.PromptOptions{})

	assert.Contains(t, p, "Mandarin Chinese flashcard for the word/phrase 你好")
	assert.Contains(t, p, "Pinyin romanization")
	assert.Contains(t, p, "intermediate students")
}

func TestPrompts_Cantonese(t *testing.T) {
	opts := generation.PromptOptions{Language: "Cantonese", Level: "beginner"}

	p := generation.ParagraphPrompt("  今日天氣好好。 ", opts)
	assert.Contains(t, p, "article in Cantonese Chinese")
	assert.Contains(t, p, "--\n今日天氣好好。\n--")
	assert.Contains(t, p, "Jyutping")
	assert.Contains(t, p, "beginner students")
}

func TestConversationPrompt_UnknownLanguageFallsBack(t *testing.T) {
	p := generation.ConversationPrompt("A: 你好\nB: 你好！", generation.PromptOptions{Language: "klingon"})

	assert.Contains(t, p, "conversation between a language learner")
	assert.Contains(t, p, "in Mandarin Chinese")
}
