package cmd

import (
	"fmt"

	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/simulation"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage simulation configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate a configuration with its overrides applied
  keys     - List the keys accepted by --set and ELFSIM_* variables

Examples:
  elfsim config init -o sim.yaml
  elfsim config validate -f sim.yaml --set num_trading_days=30`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The format
follows the extension: .yaml, .toml or .json.

Example:
  elfsim config init -o sim.toml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List override keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range config.OverrideKeys() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configKeysCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "simulation.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  elfsim run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	name := configPath
	if name == "" {
		name = "(defaults)"
	}
	agents := 0
	for _, a := range cfg.Agents {
		agents += a.Count
	}
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", name)
	fmt.Fprintf(out, "  Model: %s, %d days x %d blocks, seed %d\n",
		cfg.Simulation.PricingModel, cfg.Simulation.NumTradingDays, cfg.Simulation.NumBlocksPerDay, cfg.Simulation.RandomSeed)
	fmt.Fprintf(out, "  Market: %.0f liquidity, %.2f%% target APR, %d day term\n",
		cfg.Market.TargetLiquidity, cfg.Market.TargetPoolAPR*100, cfg.Market.NumPositionDays)
	fmt.Fprintf(out, "  Vault: %s\n", cfg.VaultAPR.Type)
	fmt.Fprintf(out, "  Agents: %d\n", agents)
	fmt.Fprintf(out, "  Run ID: %s\n", simulation.RunID(cfg))
	return nil
}
