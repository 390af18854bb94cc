package generation

import (
	"fmt"
	"strings"
)

// PromptOptions tailor prompts to the learner.
type PromptOptions struct {
	// Language is "mandarin" or "cantonese".
	Language string
	// Level describes the learner, e.g. "beginner" or "intermediate".
	Level string
}

var languageNames = map[string]string{
	"mandarin":  "Mandarin Chinese",
	"cantonese": "Cantonese Chinese",
}

func (o PromptOptions) language() string {
	lang := strings.ToLower(strings.TrimSpace(o.Language))
	if _, ok := languageNames[lang]; !ok {
		return "mandarin"
	}
	return lang
}

func (o PromptOptions) languageName() string {
	return languageNames[o.language()]
}

func (o PromptOptions) romanization() string {
	if o.language() == "cantonese" {
		return "Jyutping"
	}
	return "Pinyin"
}

func (o PromptOptions) level() string {
	if strings.TrimSpace(o.Level) == "" {
		return "intermediate"
	}
	return o.Level
}

func (o PromptOptions) description() string {
	return fmt.Sprintf(`Each flashcard should help %s students of %s understand the word's meaning,
how it is naturally used in sentences, and how it relates to commonly paired or similar words.

Fill in these fields for every flashcard:
- word: the word or phrase, repeated verbatim
- pinyin: the %s romanization with tone marks
- english: the most appropriate English meaning; add context or nuance in parentheses when it helps contrast similar words
- sample_usage: a new sentence that uses the word or phrase in context
- sample_usage_english: the English translation of sample_usage
- frequency: how often the word or phrase is actually used
- related_words: a few related words, each with word, pinyin, english and relationship (e.g. "synonym", "antonym", "similar pattern")

Focus on clarity and practical usage for a %s student.`,
		o.level(), o.languageName(), o.romanization(), o.level())
}

// WordPrompt asks for one flashcard for word.
func WordPrompt(word string, opts PromptOptions) string {
	return fmt.Sprintf(`Generate a %s flashcard for the word/phrase %s. If the input seems wrong, select the most likely intended phrase.

Record exactly one flashcard.
%s`, opts.languageName(), word, opts.description())
}

// ParagraphPrompt asks for flashcards covering the key vocabulary of text.
func ParagraphPrompt(text string, opts PromptOptions) string {
	return fmt.Sprintf(`Below the line is a paragraph from an article in %s. Extract 3-5 key vocabulary and grammar phrases, except proper nouns.
--
%s
--

Record one flashcard per extracted word or phrase.
%s`, opts.languageName(), strings.TrimSpace(text), opts.description())
}

// ConversationPrompt asks for flashcards from a learner's chat with an assistant.
func ConversationPrompt(text string, opts PromptOptions) string {
	return fmt.Sprintf(`Below the line is a conversation between a language learner and an LLM assistant in %s. Extract 3-5 key vocabulary and grammar phrases, except proper nouns.
--
%s
--

Record one flashcard per extracted word or phrase.
%s`, opts.languageName(), strings.TrimSpace(text), opts.description())
}
