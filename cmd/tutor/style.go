package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vytor/chinesetutor/internal/models"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleBox     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

// renderSummary prints the end-of-batch report, followed by the words that
// failed.
func renderSummary(w io.Writer, res *models.BatchResult) {
	if res == nil {
		return
	}
	summary := res.Summary()
	lines := strings.SplitN(summary, "\n", 2)
	out := styleTitle.Render(lines[0])
	if len(lines) > 1 {
		out += "\n" + lines[1]
	}
	fmt.Fprintln(w, styleBox.Render(out))

	for _, item := range res.Items {
		if item.Outcome != models.OutcomeError {
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", styleError.Render("✗"), item.Word, item.Error)
	}
	if res.RunID != "" {
		fmt.Fprintln(w, styleMuted.Render("run "+res.RunID))
	}
}

// renderCard prints a flashcard inside a box.
func renderCard(w io.Writer, rec models.FlashcardRecord) {
	fmt.Fprintln(w, styleBox.Render(rec.String()))
}
