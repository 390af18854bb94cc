package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/services"
)

var setupAnkiCmd = &cobra.Command{
	Use:     "setup-anki",
	Short:   "Create or refresh the flashcard note type in Anki",
	GroupID: "anki",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		model := tutor.store.ModelName()
		res, err := services.NewNoteTypeService(tutor.store).Setup(tutor.context(cmd), model)
		if res != nil && len(res.MissingFields) > 0 {
			fmt.Fprintf(tutor.out, "%s note type %q is missing fields: %s\n",
				styleWarn.Render("!"), model, strings.Join(res.MissingFields, ", "))
		}
		if err != nil {
			return err
		}

		switch {
		case res.Created:
			fmt.Fprintln(tutor.out, styleSuccess.Render(fmt.Sprintf("Created note type %q", model)))
		case res.TemplatesUpdated || res.StylingUpdated:
			fmt.Fprintln(tutor.out, styleSuccess.Render(fmt.Sprintf("Updated note type %q", model)))
		default:
			fmt.Fprintf(tutor.out, "Note type %q is up to date\n", model)
		}
		return nil
	},
}

var updateStylingCmd = &cobra.Command{
	Use:     "update-styling",
	Short:   "Replace the card stylesheet of the note type",
	GroupID: "anki",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		model := tutor.store.ModelName()
		if err := services.NewNoteTypeService(tutor.store).UpdateStyling(tutor.context(cmd), model); err != nil {
			return err
		}
		fmt.Fprintln(tutor.out, styleSuccess.Render(fmt.Sprintf("Updated styling of %q", model)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupAnkiCmd)
	rootCmd.AddCommand(updateStylingCmd)
}
