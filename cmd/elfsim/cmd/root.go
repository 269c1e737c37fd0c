package cmd

import (
	"fmt"
	"os"

	"github.com/rustyeddy/elfsim/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "elfsim",
	Short: "A fixed-rate AMM market simulator",
	Long: `Elfsim simulates a fixed-rate bond market priced by the YieldSpace or
Hyperdrive model.

It provides tools for:
  - Running day/block simulations with trading agents
  - Sweeping a configuration over many random seeds
  - Recording trades and daily pool state to CSV and SQLite
  - Querying recorded runs

Complete documentation is available at https://github.com/rustyeddy/elfsim`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	envPath    string
	logLevel   string
	setFlags   []string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "", "config file (YAML, JSON or TOML); defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file with ELFSIM_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringArrayVar(&setFlags, "set", nil, "override a config key, e.g. --set num_trading_days=30 (repeatable)")
}

// loadConfig layers defaults, the config file, the environment and --set
// flags, in that order.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.LoadEnvOverrides(envPath); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	kv, err := config.ParseOverrides(setFlags)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		kv["logging.level"] = logLevel
	}
	if len(kv) > 0 {
		if err := cfg.ApplyOverrides(kv); err != nil {
			return nil, fmt.Errorf("apply overrides: %w", err)
		}
	}
	return cfg, nil
}
