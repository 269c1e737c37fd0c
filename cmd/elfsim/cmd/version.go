package cmd

import (
	"fmt"

	"github.com/rustyeddy/elfsim/pricing"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the elfsim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "elfsim version %s\n", version)
		fmt.Fprintf(out, "Pricing models: %v\n", pricing.Names())
		fmt.Fprintln(out, "https://github.com/rustyeddy/elfsim")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
