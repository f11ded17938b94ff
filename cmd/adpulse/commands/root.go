package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adpulse",
	Short: "AdPulse - content scoring and ad budget reallocation engine",
	Long: `AdPulse Unified CLI

Scores content across ad platforms into a unified impact score and
redistributes daily ad budgets toward what performs.

Usage:
  go run ./cmd/adpulse [command]

Examples:
  go run ./cmd/adpulse api
  go run ./cmd/adpulse score
  go run ./cmd/adpulse reallocate --allocation 1 --dry-run
  go run ./cmd/adpulse scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
