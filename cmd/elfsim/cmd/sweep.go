package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/elfsim/journal"
	"github.com/rustyeddy/elfsim/simulation"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the same configuration over many seeds",
	Long: `Run one independent simulation per seed, several at a time, and print
one summary line per seed.

Seeds are a comma list and may contain ranges.

Example:
  elfsim sweep -f sim.yaml --seeds 1-20 --parallel 4`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	sweepSeeds    string
	sweepParallel int
	sweepDBPath   string
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepSeeds, "seeds", "1-10", "seeds to run, e.g. 1,2,5-9")
	sweepCmd.Flags().IntVarP(&sweepParallel, "parallel", "p", 4, "simulations to run at once")
	sweepCmd.Flags().StringVarP(&sweepDBPath, "db", "d", "", "record a run summary per seed to this SQLite database")
}

// parseSeeds expands "1,3,5-7" into 1 3 5 6 7.
func parseSeeds(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad seed %q", part)
		}
		to := from
		if isRange {
			if to, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64); err != nil || to < from {
				return nil, fmt.Errorf("bad seed range %q", part)
			}
		}
		for seed := from; seed <= to; seed++ {
			out = append(out, seed)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no seeds in %q", s)
	}
	return out, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	seeds, err := parseSeeds(sweepSeeds)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext()
	defer cancel()
	runs, err := simulation.Sweep(ctx, cfg, seeds, sweepParallel, log)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	if sweepDBPath != "" {
		db, err := journal.NewSQLite(sweepDBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		now := time.Now().UTC()
		for _, r := range runs {
			if err := db.RecordRun(r.RunRecord(now)); err != nil {
				return fmt.Errorf("record run %s: %w", r.RunID, err)
			}
		}
	}

	simulation.PrintSweep(cmd.OutOrStdout(), runs)
	return nil
}
