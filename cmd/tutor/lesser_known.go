package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/services"
)

var (
	lesserKnownDeck  string
	lesserKnownCount int
)

var lesserKnownCmd = &cobra.Command{
	Use:     "list-lesser-known-cards",
	Aliases: []string{"lesser-known"},
	Short:   "List a random sample of cards rated again or hard this week",
	GroupID: "cards",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		deck, err := tutor.deck(lesserKnownDeck)
		if err != nil {
			return err
		}
		svc := services.NewLookupService(tutor.store, nil, nil, tutor.prompts())
		notes, err := svc.LesserKnown(tutor.context(cmd), deck, lesserKnownCount)
		if err != nil {
			return err
		}
		fmt.Fprintln(tutor.out, services.FormatLesserKnown(deck, notes))
		return nil
	},
}

func init() {
	lesserKnownCmd.Flags().StringVarP(&lesserKnownDeck, "deck", "d", "", "Deck to sample (defaults to the configured deck)")
	lesserKnownCmd.Flags().IntVarP(&lesserKnownCount, "count", "c", 5, "Number of cards to list")
	rootCmd.AddCommand(lesserKnownCmd)
}
