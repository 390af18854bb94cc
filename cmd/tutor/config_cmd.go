package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configDeck     string
	configLanguage string
	configLevel    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the default deck, language and learner level",
	Long: `Show the saved defaults, or change them with flags:

  tutor config --deck "Chinese::Vocabulary" --language cantonese`,
	GroupID: "app",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		prefs := tutor.prefs
		flags := cmd.Flags()
		if !flags.Changed("deck") && !flags.Changed("language") && !flags.Changed("level") {
			printPreferences()
			return nil
		}

		if flags.Changed("deck") {
			deck := strings.TrimSpace(configDeck)
			if deck == "" {
				return fmt.Errorf("deck cannot be empty")
			}
			prefs.DefaultDeck = deck
		}
		if flags.Changed("language") {
			if err := prefs.SetLanguage(configLanguage); err != nil {
				return err
			}
		}
		if flags.Changed("level") {
			prefs.LearnerLevel = strings.TrimSpace(configLevel)
		}
		if err := prefs.Save(); err != nil {
			return err
		}
		fmt.Fprintln(tutor.out, styleSuccess.Render("Configuration saved"))
		printPreferences()
		return nil
	},
}

func printPreferences() {
	prefs := tutor.prefs
	deck := prefs.DefaultDeck
	if deck == "" {
		deck = styleMuted.Render("(not set)")
	}
	fmt.Fprintf(tutor.out, "%s %s\n", styleTitle.Render("Deck:    "), deck)
	fmt.Fprintf(tutor.out, "%s %s\n", styleTitle.Render("Language:"), prefs.Language())
	fmt.Fprintf(tutor.out, "%s %s\n", styleTitle.Render("Level:   "), prefs.Level())
	fmt.Fprintln(tutor.out, styleMuted.Render(prefs.Path()))
}

func init() {
	configCmd.Flags().StringVar(&configDeck, "deck", "", "Default deck")
	configCmd.Flags().StringVar(&configLanguage, "language", "", "Default language (mandarin or cantonese)")
	configCmd.Flags().StringVar(&configLevel, "level", "", "Learner level used in prompts")
	rootCmd.AddCommand(configCmd)
}
