package cmd

import (
	"fmt"
	"strconv"

	"github.com/rustyeddy/elfsim/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded simulation runs",
	Long: `Query and display records from a SQLite journal.

Subcommands:
  trade  - Get details of a specific trade by ID
  day    - List the trades of one simulated day
  days   - List the daily pool snapshots of a run
  runs   - List recorded runs
  run    - Show one run as an Org-mode report

Examples:
  elfsim journal trade 01HQ...
  elfsim journal day 3 --run <run-id>
  elfsim journal runs`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <n>",
	Short: "List the trades of simulated day n",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDaysCmd = &cobra.Command{
	Use:   "days",
	Short: "List daily pool snapshots",
	Args:  cobra.NoArgs,
	RunE:  runJournalDays,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var (
	journalDBPath string
	journalRunID  string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalDaysCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./elfsim.sqlite", "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalRunID, "run", "", "restrict to one run id (default all runs)")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	day, err := strconv.Atoi(args[0])
	if err != nil || day < 0 {
		return fmt.Errorf("day: %q is not a day number", args[0])
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesByDay(journalRunID, day)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalDays(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	days, err := j.ListDays(journalRunID)
	if err != nil {
		return fmt.Errorf("query days: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-36s %5s %10s %12s %12s %8s %8s\n", "run", "day", "vault", "spot", "apr", "trades", "skipped")
	for _, d := range days {
		fmt.Fprintf(out, "%-36s %5d %10s %12s %12s %8d %8d\n",
			d.RunID, d.Day, d.VaultAPR.StringFixed(4), d.SpotPrice.StringFixed(6), d.PoolAPR.StringFixed(6), d.Trades, d.Skipped)
	}
	return nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ids, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	r, err := j.GetRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	s, err := journal.FormatRunOrg(r)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), s)
	return nil
}
