package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagDebug bool
	flagModel string
	flagYes   bool
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Generate and maintain Chinese vocabulary flashcards in Anki",
	Long: `tutor generates Chinese vocabulary flashcards with a language model and
keeps them in sync with an Anki collection through AnkiConnect.

Anki must be running with the AnkiConnect add-on installed. Settings are read
from the environment (or a .env file); per-user defaults such as the deck are
stored with 'tutor config'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupApp,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Turn on extra debug logging")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Override the generation model")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Skip confirmation prompts")

	rootCmd.AddGroup(
		&cobra.Group{ID: "cards", Title: "Card Commands:"},
		&cobra.Group{ID: "anki", Title: "Anki Setup:"},
		&cobra.Group{ID: "app", Title: "Application:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("Error:"), err)
		os.Exit(1)
	}
}
