package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/services"
)

var regenerateDeck string

var regenerateCmd = &cobra.Command{
	Use:     "regenerate-flashcard <word>",
	Aliases: []string{"rg", "regenerate"},
	Short:   "Replace the content of an existing flashcard",
	GroupID: "cards",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deck, err := tutor.deck(regenerateDeck)
		if err != nil {
			return err
		}
		gen, err := tutor.generator()
		if err != nil {
			return err
		}
		svc := services.NewLookupService(tutor.store, gen, tutor.synthesizer(), tutor.prompts())

		res, err := svc.Regenerate(tutor.context(cmd), deck, args[0], func(current models.FlashcardRecord) bool {
			fmt.Fprintln(tutor.out, "Found the following flashcard:")
			renderCard(tutor.out, current)
			return tutor.confirm("Regenerate this flashcard?")
		})
		if err != nil {
			return err
		}
		switch {
		case res.Cancelled:
			fmt.Fprintln(tutor.out, styleWarn.Render(res.Message))
		case res.Updated != nil:
			fmt.Fprintln(tutor.out, styleSuccess.Render("Updated! The new flashcard is below:"))
			renderCard(tutor.out, *res.Updated)
		default:
			fmt.Fprintln(tutor.out, res.Message)
		}
		return nil
	},
}

func init() {
	regenerateCmd.Flags().StringVarP(&regenerateDeck, "deck", "d", "", "Deck to search (defaults to the configured deck)")
	rootCmd.AddCommand(regenerateCmd)
}
