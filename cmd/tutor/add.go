package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/article"
	"github.com/vytor/chinesetutor/internal/generation"
	"github.com/vytor/chinesetutor/internal/models"
)

var (
	addDeck          string
	addDryRun        bool
	addFile          string
	addConversation  bool
	addSubdeck       string
	addMaxParagraphs int
)

var addWordCmd = &cobra.Command{
	Use:     "add-word <word>...",
	Aliases: []string{"g", "generate-flashcard-from-word"},
	Short:   "Generate a flashcard for each word and add it to the deck",
	GroupID: "cards",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts := make([]string, 0, len(args))
		for _, word := range args {
			prompts = append(prompts, generation.WordPrompt(word, tutor.prompts()))
		}
		return generateAndInsert(cmd, addDeck, prompts)
	},
}

var addTextCmd = &cobra.Command{
	Use:   "add-text [text]",
	Short: "Generate flashcards for the vocabulary in a paragraph or conversation",
	Long: `Generate flashcards for the vocabulary in a paragraph of text. The text is
taken from the arguments, from --file, or from stdin with --file -.

With --conversation the text is treated as a dialogue and the useful
phrases in it are extracted as well.`,
	GroupID: "cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := tutor.readInput(args, addFile)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no text provided")
		}
		prompt := generation.ParagraphPrompt(text, tutor.prompts())
		if addConversation {
			prompt = generation.ConversationPrompt(text, tutor.prompts())
		}
		return generateAndInsert(cmd, addDeck, []string{prompt})
	},
}

var addArticleCmd = &cobra.Command{
	Use:   "add-article <url|file>",
	Short: "Generate flashcards from every paragraph of an article",
	Long: `Extract the readable text of a web page, HTML file, YAML article file or
plain text file and generate flashcards paragraph by paragraph.

With --subdeck the cards go to a child of the deck, e.g. "Chinese::News".`,
	GroupID: "cards",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := tutor.context(cmd)
		art, err := article.NewExtractor().Load(ctx, args[0])
		if err != nil {
			return err
		}
		paragraphs := art.Paragraphs()
		if addMaxParagraphs > 0 && len(paragraphs) > addMaxParagraphs {
			paragraphs = paragraphs[:addMaxParagraphs]
		}
		if len(paragraphs) == 0 {
			return fmt.Errorf("no text found in %s", args[0])
		}
		if art.Title != "" {
			fmt.Fprintln(tutor.out, styleTitle.Render(art.Title))
		}
		fmt.Fprintln(tutor.out, styleMuted.Render(fmt.Sprintf("%d paragraph(s)", len(paragraphs))))

		prompts := make([]string, 0, len(paragraphs))
		for _, p := range paragraphs {
			prompts = append(prompts, generation.ParagraphPrompt(p, tutor.prompts()))
		}

		deck := addDeck
		if addSubdeck != "" {
			parent, err := tutor.deck(addDeck)
			if err != nil {
				return err
			}
			deck = models.Subdeck(parent, addSubdeck)
		}
		return generateAndInsert(cmd, deck, prompts)
	},
}

func generateAndInsert(cmd *cobra.Command, deckFlag string, prompts []string) error {
	deck, err := tutor.deck(deckFlag)
	if err != nil {
		return err
	}
	svc, closeFn, err := tutor.syncService()
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := svc.GenerateAndInsert(tutor.context(cmd), models.InsertOptions{Deck: deck, DryRun: addDryRun}, prompts)
	renderSummary(tutor.out, res)
	return err
}

func init() {
	for _, c := range []*cobra.Command{addWordCmd, addTextCmd, addArticleCmd} {
		c.Flags().StringVarP(&addDeck, "deck", "d", "", "Target deck (defaults to the configured deck)")
		c.Flags().BoolVar(&addDryRun, "dry-run", false, "Show what would be added without changing Anki")
		rootCmd.AddCommand(c)
	}
	addTextCmd.Flags().StringVarP(&addFile, "file", "f", "", "Read the text from a file (- for stdin)")
	addTextCmd.Flags().BoolVar(&addConversation, "conversation", false, "Treat the text as a conversation")
	addArticleCmd.Flags().StringVar(&addSubdeck, "subdeck", "", "Add the cards to this child deck")
	addArticleCmd.Flags().IntVar(&addMaxParagraphs, "max-paragraphs", 0, "Only use the first N paragraphs (0 for all)")
}
