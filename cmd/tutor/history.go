package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/db"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/repository/sqlite"
	"github.com/vytor/chinesetutor/internal/services"
)

var (
	historyDeck          string
	historyKind          string
	historyLimit         int
	historyOlderThanDays int
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "List journaled batch runs",
	GroupID: "app",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(func(svc services.HistoryService) error {
			page, err := svc.List(tutor.context(cmd), models.RunFilter{
				Deck:  historyDeck,
				Kind:  models.BatchKind(historyKind),
				Limit: historyLimit,
			})
			if err != nil {
				return err
			}
			if len(page.Runs) == 0 {
				fmt.Fprintln(tutor.out, "No runs recorded")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(styleMuted).
				Headers("ID", "STARTED", "KIND", "DECK", "STATUS", "TOTAL", "CHANGED", "ERRORS")
			for _, run := range page.Runs {
				kind := string(run.Kind)
				if run.DryRun {
					kind += " (dry)"
				}
				t.Row(
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					kind,
					run.Deck,
					string(run.Status),
					strconv.Itoa(run.Total),
					strconv.Itoa(run.Inserted+run.Updated),
					strconv.Itoa(run.Errors),
				)
			}
			fmt.Fprintln(tutor.out, t.Render())
			fmt.Fprintln(tutor.out, styleMuted.Render(fmt.Sprintf("%d of %d run(s)", len(page.Runs), page.Total)))
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(svc services.HistoryService) error {
			detail, err := svc.Get(tutor.context(cmd), args[0])
			if err != nil {
				return err
			}
			run := detail.SyncRun
			fmt.Fprintln(tutor.out, styleTitle.Render(fmt.Sprintf("Run %s", run.ID)))
			fmt.Fprintf(tutor.out, "%s %s in %q, %s\n", run.Kind, run.Status, run.Deck,
				run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
			if run.ErrorMessage != "" {
				fmt.Fprintln(tutor.out, styleError.Render(run.ErrorMessage))
			}
			for _, item := range detail.Items {
				line := fmt.Sprintf("%3d  %-10s %s", item.Position, item.Outcome, item.Word)
				if item.AudioUpdated {
					line += " (audio)"
				}
				if item.Error != "" {
					line += ": " + item.Error
				}
				fmt.Fprintln(tutor.out, line)
			}
			return nil
		})
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete journaled runs older than a number of days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if historyOlderThanDays <= 0 {
			return errors.New("--older-than-days must be positive")
		}
		return withHistory(func(svc services.HistoryService) error {
			n, err := svc.Prune(tutor.context(cmd), time.Duration(historyOlderThanDays)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(tutor.out, "Deleted %d run(s)\n", n)
			return nil
		})
	},
}

func withHistory(fn func(services.HistoryService) error) error {
	database, err := db.Open(tutor.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open run journal: %w", err)
	}
	defer database.Close()
	return fn(services.NewHistoryService(sqlite.NewRunRepository(database.DB)))
}

func init() {
	historyCmd.Flags().StringVarP(&historyDeck, "deck", "d", "", "Only runs against this deck")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "Only insert or reconcile runs")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs")
	historyPruneCmd.Flags().IntVar(&historyOlderThanDays, "older-than-days", 0, "Delete runs started more than N days ago")
	_ = historyPruneCmd.MarkFlagRequired("older-than-days")

	historyCmd.PreRunE = func(*cobra.Command, []string) error {
		switch models.BatchKind(strings.ToLower(historyKind)) {
		case "", models.BatchInsert, models.BatchReconcile:
			historyKind = strings.ToLower(historyKind)
			return nil
		}
		return fmt.Errorf("unknown run kind %q", historyKind)
	}

	historyCmd.AddCommand(historyShowCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
