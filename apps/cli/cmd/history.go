package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <database>",
	Short: "Show recorded runs and flaky rows",
	Long: `Show the runs recorded with "rowspec run --history".

With --flaky, list the rows that passed only after a retry or that both
passed and failed across runs.

Examples:
  rowspec history .rowspec/history.db
  rowspec history .rowspec/history.db --flaky --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: historyCommand,
}

var (
	historyFlakyFlag bool
	historyLimitFlag int
)

func init() {
	historyCmd.Flags().BoolVar(&historyFlakyFlag, "flaky", false, "List flaky rows instead of runs")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 10, "Maximum number of entries")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return &exitError{code: ExitUsageError, err: fmt.Errorf("cannot access %s: %w", args[0], err)}
	}

	store, err := history.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if historyFlakyFlag {
		flaky, err := store.Flaky(cmd.Context(), historyLimitFlag)
		if err != nil {
			return err
		}
		if len(flaky) == 0 {
			fmt.Fprintln(w, "No flaky rows recorded")
			return nil
		}
		fmt.Fprintln(w, "CLASS\tROW\tRUNS\tRETRIED\tFAILED")
		for _, f := range flaky {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", f.Class, f.Name, f.Runs, f.Retried, f.Failures)
		}
		return nil
	}

	runs, err := store.Recent(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tPASSED\tFAILED\tSKIPPED\tIGNORED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.Started.Local().Format(time.DateTime), r.Duration.Round(time.Millisecond),
			r.Passed, r.Failed, r.Skipped, r.Ignored)
	}
	return nil
}
