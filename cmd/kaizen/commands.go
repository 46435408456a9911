package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xmhha/kaizen/pkg/aggregator"
	"github.com/0xmhha/kaizen/pkg/automation"
	"github.com/0xmhha/kaizen/pkg/display"
)

// defaultHistoryLimit is the number of moves the history command shows.
const defaultHistoryLimit = 20

func newPurgeCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "purge [dir...]",
		Short: "Sort every file already present in the watched directories",
		Long: `Purge moves every classifiable file found directly in the given
directories (default: the configured watch paths) into its category folder.
Files are credited to the ledger exactly like files the agent sorts live.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter(cmd, format)
			if err != nil {
				return err
			}

			a, err := openApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := automation.New(automation.Options{
				Ledger:  a.ledger,
				History: a.store,
				Bus:     a.bus,
			}, a.log.With("component", "automation"))
			if err != nil {
				return err
			}

			outcomes, err := svc.Purge(cmd.Context(), a.cfg, args)
			if err != nil {
				return fmt.Errorf("purge failed: %w", err)
			}

			if err := formatter.FormatOutcomes(cmd.OutOrStdout(), outcomes); err != nil {
				return err
			}

			if format == string(display.FormatTable) {
				moved := 0
				for _, out := range outcomes {
					if out.Succeeded {
						moved++
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nMoved %d of %d files.\n", moved, len(outcomes))
			}
			return nil
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show level, rank, experience and streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := newFormatter(cmd, format)
			if err != nil {
				return err
			}

			a, err := openApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			return formatter.FormatStats(cmd.OutOrStdout(), a.ledger.Snapshot())
		},
	}

	addFormatFlag(cmd, &format)
	cmd.AddCommand(newStatsResetCmd(configPath))
	return cmd
}

func newStatsResetCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero every counter of the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force && !confirm(cmd, "This will erase your experience, level and streak. Continue? [y/N]: ") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			a, err := openApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.ledger.Reset(); err != nil {
				return fmt.Errorf("failed to reset stats: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stats reset.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	return cmd
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var (
		format  string
		limit   int
		groupBy string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent file moves",
		Long: `History lists the most recent file moves, newest first. With --group-by
the same moves are summarized per category, date, hour or result instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("invalid limit %d: must be positive", limit)
			}

			dims, err := aggregator.ParseDimensions(groupBy)
			if err != nil {
				return err
			}

			formatter, err := newFormatter(cmd, format)
			if err != nil {
				return err
			}

			a, err := openApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			outcomes, err := a.store.RecentMoves(limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			if len(dims) == 0 {
				return formatter.FormatOutcomes(cmd.OutOrStdout(), outcomes)
			}

			agg := aggregator.New(aggregator.Config{GroupBy: dims})
			for _, out := range outcomes {
				agg.Add(out)
			}
			return formatter.FormatSummary(cmd.OutOrStdout(), agg.Stats(), agg.Groups())
		},
	}

	addFormatFlag(cmd, &format)
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of moves to read")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "summarize by dimensions (category, date, hour, result)")
	return cmd
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", string(display.FormatTable), "output format (table, json, simple)")
}

// newFormatter builds the formatter for --format, with color only on a
// terminal.
func newFormatter(cmd *cobra.Command, format string) (display.Formatter, error) {
	f, err := display.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	return display.New(display.Config{
		Format:         f,
		Color:          isTerminal(cmd.OutOrStdout()),
		ShowTimestamps: true,
	}), nil
}
