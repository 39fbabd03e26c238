package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"teamdesk/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent calls from the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withJournal(func(store *journal.Store) error {
				entries, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if entries == nil {
					entries = []journal.Entry{}
				}
				return ctx.render(cmd, entries, func() string {
					return renderHistory(entries)
				})
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove journal entries older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			retention := cfg.Journal.RetentionDays
			if cmd.Flags().Changed("days") {
				retention = days
			}
			if retention < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			return ctx.withJournal(func(store *journal.Store) error {
				removed, err := store.PruneRetention(cmd.Context(), retention, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d journal entr%s older than %d day(s)\n", removed, plural(removed), retention)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (default journal.retention_days)")
	return cmd
}

func renderHistory(entries []journal.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(entry.ID, 10),
			entry.StartedAt.Local().Format("2006-01-02 15:04:05"),
			entry.Method,
			entry.Outcome,
			entry.Duration.Round(time.Millisecond).String(),
			entry.Message,
		})
	}
	return renderTable(
		[]string{"ID", "Started", "Method", "Outcome", "Duration", "Message"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func plural(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
