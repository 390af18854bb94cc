package models

import (
	"fmt"
	"strings"
)

// DeckSeparator joins the segments of a deck path.
const DeckSeparator = "::"

// Subdeck returns the path of child under parent.
func Subdeck(parent, child string) string {
	return parent + DeckSeparator + child
}

// DeckSegments splits a deck path into its segments.
func DeckSegments(deck string) []string {
	return strings.Split(deck, DeckSeparator)
}

// searchEscaper escapes text placed inside a quoted Anki search term, where
// * and _ are wildcards.
var searchEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`*`, `\*`,
	`_`, `\_`,
)

// EscapeSearch makes s match literally inside a quoted Anki search term.
func EscapeSearch(s string) string {
	return searchEscaper.Replace(s)
}

// DeckQuery is the Anki search that selects every note in deck.
func DeckQuery(deck string) string {
	return fmt.Sprintf(`deck:"%s"`, EscapeSearch(deck))
}

// WordExistsQuery matches notes in deck whose word field contains word.
// Substring matching is intentional: a near match counts as a duplicate.
func WordExistsQuery(deck, word string) string {
	return fmt.Sprintf(`%s "Chinese:*%s*"`, DeckQuery(deck), EscapeSearch(word))
}

// LesserKnownQuery selects notes in deck rated "again" or "hard" during the
// last days days.
func LesserKnownQuery(deck string, days int) string {
	q := DeckQuery(deck)
	return fmt.Sprintf("(%s rated:%d:1 OR %s rated:%d:2)", q, days, q, days)
}
