package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/internal/logging"
	"github.com/rustyeddy/elfsim/journal"
	"github.com/rustyeddy/elfsim/simulation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation",
	Long: `Run a simulation using settings from a configuration file, the
environment and --set overrides.

Trades and daily pool snapshots go to the CSV directory and SQLite database
named by the journal section or by --csv-dir and --db.

Examples:
  elfsim run -f sim.yaml
  elfsim run --set pricing_model=yieldspace --seed 7 --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runSeed   int64
	runCSVDir string
	runDBPath string
	runOrg    string
	runJSON   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "random seed (overrides the config)")
	runCmd.Flags().StringVar(&runCSVDir, "csv-dir", "", "write trades.csv and days.csv to this directory")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "record the run to this SQLite database")
	runCmd.Flags().StringVar(&runOrg, "org", "", "write an Org-mode run report to this file")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the summary as JSON")
}

// openSinks opens the journals named by cfg.Journal.
func openSinks(cfg *config.Config) (journal.Multi, error) {
	var sinks journal.Multi
	if cfg.Journal.CSVDir != "" {
		j, err := journal.NewCSV(cfg.Journal.CSVDir)
		if err != nil {
			return nil, fmt.Errorf("create csv journal: %w", err)
		}
		sinks = append(sinks, j)
	}
	if cfg.Journal.SQLitePath != "" {
		j, err := journal.NewSQLite(cfg.Journal.SQLitePath)
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("open db: %w", err)
		}
		sinks = append(sinks, j)
	}
	return sinks, nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, func(), error) {
	log, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return log, func() { closer.Close() }, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.RandomSeed = runSeed
	}
	if runCSVDir != "" {
		cfg.Journal.CSVDir = runCSVDir
	}
	if runDBPath != "" {
		cfg.Journal.SQLitePath = runDBPath
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	sinks, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	s, err := simulation.New(cfg, log, sinks...)
	if err != nil {
		return fmt.Errorf("create simulation: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := s.RunSimulation(ctx); err != nil {
		return fmt.Errorf("run simulation: %w", err)
	}

	if runOrg != "" {
		if err := journal.WriteRunOrg(runOrg, s.RunRecord(time.Now().UTC())); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Summary())
	}
	simulation.PrintSummary(out, s.Summary())
	if cfg.Journal.CSVDir != "" {
		fmt.Fprintf(out, "CSV:           %s\n", cfg.Journal.CSVDir)
	}
	if cfg.Journal.SQLitePath != "" {
		fmt.Fprintf(out, "Database:      %s\n", cfg.Journal.SQLitePath)
	}
	if runOrg != "" {
		fmt.Fprintf(out, "Org Report:    %s\n", runOrg)
	}
	return nil
}
