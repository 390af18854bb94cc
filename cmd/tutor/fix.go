package main

import (
	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/models"
)

var (
	fixDeck   string
	fixLimit  int
	fixDryRun bool
	fixForce  bool
	fixPolicy string
)

var fixCardsCmd = &cobra.Command{
	Use:     "fix-cards",
	Aliases: []string{"fix"},
	Short:   "Regenerate missing or outdated fields of every card in a deck",
	Long: `Walk every note in the deck, regenerate notes with missing fields (or all
notes with --force), write back only the fields that changed and regenerate
the sample sentence audio when the sentence changed.

With --policy fail-fast the run stops at the first failing note.`,
	GroupID: "cards",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		policy, err := models.ParseFailurePolicy(fixPolicy)
		if err != nil {
			return err
		}
		deck, err := tutor.deck(fixDeck)
		if err != nil {
			return err
		}
		svc, closeFn, err := tutor.syncService()
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := svc.Reconcile(tutor.context(cmd), models.ReconcileOptions{
			Deck:   deck,
			Limit:  fixLimit,
			DryRun: fixDryRun,
			Force:  fixForce,
			Policy: policy,
		})
		renderSummary(tutor.out, res)
		return err
	},
}

func init() {
	fixCardsCmd.Flags().StringVarP(&fixDeck, "deck", "d", "", "Deck to fix (defaults to the configured deck)")
	fixCardsCmd.Flags().IntVarP(&fixLimit, "limit", "n", 0, "Only process the first N notes (0 for all)")
	fixCardsCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Report changes without writing them")
	fixCardsCmd.Flags().BoolVar(&fixForce, "force", false, "Regenerate every note, even complete ones")
	fixCardsCmd.Flags().StringVar(&fixPolicy, "policy", string(models.FailSoft), "fail-soft or fail-fast")
	rootCmd.AddCommand(fixCardsCmd)
}
