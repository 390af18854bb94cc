package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/chinesetutor/internal/config"
	"github.com/vytor/chinesetutor/internal/models"
)

func testApp(t *testing.T, input string) (*app, *bytes.Buffer) {
	t.Helper()
	prefs, err := config.LoadPreferences(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return &app{prefs: prefs, in: strings.NewReader(input), out: out}, out
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		skip  bool
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "upper case", input: "Y\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty answer defaults to no", input: "\n", want: false},
		{name: "no input", input: "", want: false},
		{name: "skip confirm", input: "", skip: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out := testApp(t, tt.input)
			a.runtime.SkipConfirm = tt.skip

			assert.Equal(t, tt.want, a.confirm("Regenerate?"))
			if !tt.skip {
				assert.Contains(t, out.String(), "Regenerate? (y/N)")
			}
		})
	}
}

func TestDeck(t *testing.T) {
	a, _ := testApp(t, "")

	_, err := a.deck("")
	assert.ErrorIs(t, err, config.ErrNoDefaultDeck)

	deck, err := a.deck(" Chinese::News ")
	require.NoError(t, err)
	assert.Equal(t, "Chinese::News", deck)

	a.prefs.DefaultDeck = "Chinese"
	deck, err = a.deck("")
	require.NoError(t, err)
	assert.Equal(t, "Chinese", deck)
}

func TestReadInput(t *testing.T) {
	a, _ := testApp(t, "来自标准输入")

	text, err := a.readInput([]string{"我", "喜欢"}, "")
	require.NoError(t, err)
	assert.Equal(t, "我 喜欢", text)

	text, err = a.readInput(nil, "-")
	require.NoError(t, err)
	assert.Equal(t, "来自标准输入", text)

	path := filepath.Join(t.TempDir(), "text.txt")
	require.NoError(t, os.WriteFile(path, []byte("文件内容"), 0o644))
	text, err = a.readInput(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "文件内容", text)

	_, err = a.readInput(nil, "")
	assert.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	res := models.NewBatchResult(models.BatchInsert, "Chinese::Test", false)
	res.Total = 2
	res.Record(models.ItemOutcome{Word: "你好", Outcome: models.OutcomeInserted})
	res.Record(models.ItemOutcome{Word: "再见", Outcome: models.OutcomeError, Error: "remote store error"})
	res.RunID = "run-1"

	var out bytes.Buffer
	renderSummary(&out, res.Finish())

	s := out.String()
	assert.Contains(t, s, "Card Insert Summary for deck 'Chinese::Test':")
	assert.Contains(t, s, "Cards added: 1")
	assert.Contains(t, s, "再见: remote store error")
	assert.Contains(t, s, "run-1")
	assert.NotContains(t, s, "你好:")
}

func TestRenderSummaryNil(t *testing.T) {
	var out bytes.Buffer
	renderSummary(&out, nil)
	assert.Empty(t, out.String())
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{
		"add-word", "g", "add-text", "add-article", "fix-cards", "regenerate-flashcard", "rg",
		"setup-anki", "update-styling", "list-lesser-known-cards", "config", "history", "serve",
	} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.NotEqual(t, rootCmd, cmd, name)
	}
}
